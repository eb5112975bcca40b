package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maiyu/lanchonete-bot/internal/observability/metrics"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

// The engine contract: one inbound message in, one reply out, never fails.
type conversationProcessor interface {
	Process(ctx context.Context, conversationID, text string) string
}

type replySender interface {
	SendText(ctx context.Context, to, body string, preview bool) error
}

// Handler handles WhatsApp webhook requests.
type Handler struct {
	verifyToken string
	engine      conversationProcessor
	sender      replySender
	logger      *logging.Logger
	metrics     *metrics.WebhookMetrics
}

// NewHandler creates the webhook handler.
func NewHandler(verifyToken string, engine conversationProcessor, sender replySender, logger *logging.Logger, wm *metrics.WebhookMetrics) *Handler {
	if engine == nil {
		panic("messaging: engine cannot be nil")
	}
	if sender == nil {
		panic("messaging: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		verifyToken: verifyToken,
		engine:      engine,
		sender:      sender,
		logger:      logger,
		metrics:     wm,
	}
}

// VerifyWebhook handles the GET verification handshake: the challenge is
// echoed back only when the caller presents the configured verify token.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		h.logger.Warn("webhook verification rejected", "mode", mode)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// ReceiveMessage handles POST webhook deliveries. Engine-level failures
// never produce a non-2xx response; only payloads the boundary cannot parse
// into (conversation id, text) are rejected.
func (h *Handler) ReceiveMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		h.observe("rejected", start)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	msg, err := ParseWebhook(body)
	if errors.Is(err, ErrNotAMessage) {
		// Delivery receipts, reactions and the like: acknowledged with no
		// side effects.
		h.observe("ignored", start)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	if err != nil {
		h.logger.Error("failed to parse webhook", "error", err)
		h.observe("rejected", start)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h.logger.Info("webhook message received", "conversation_id", msg.ConversationID)

	reply := h.engine.Process(r.Context(), msg.ConversationID, msg.Text)

	if err := h.sender.SendText(r.Context(), msg.From, reply, false); err != nil {
		// Fire-and-forget: the platform gets a success either way.
		h.logger.Error("failed to deliver reply", "error", err, "to", msg.From)
	}

	h.observe("processed", start)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type sendTextRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// SendText handles POST /send-text, a utility route for sending a message
// outside the conversation flow.
func (h *Handler) SendText(w http.ResponseWriter, r *http.Request) {
	var req sendTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	to := digitsOf(req.To)
	if to == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.sender.SendText(r.Context(), to, req.Message, req.Link != ""); err != nil {
		h.logger.Error("failed to send text", "error", err, "to", to)
		http.Error(w, "Failed to send message", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) observe(outcome string, start time.Time) {
	h.metrics.ObserveInbound(outcome)
	h.metrics.ObserveWebhookLatency(outcome, time.Since(start).Seconds())
}

// digitsOf strips everything but decimal digits from a recipient number.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
