package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/maiyu/lanchonete-bot/internal/observability/metrics"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

var senderTracer = otel.Tracer("lanchonete.internal.messaging.sender")

// Sender posts text messages through the WhatsApp Cloud API.
type Sender struct {
	token      string
	businessID string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.WebhookMetrics
}

// NewSender builds a Cloud API sender. baseURL defaults to the Graph API
// when empty.
func NewSender(token, businessID, baseURL string, logger *logging.Logger, wm *metrics.WebhookMetrics) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v22.0"
	}
	return &Sender{
		token:      token,
		businessID: businessID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  logger,
		metrics: wm,
	}
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url,omitempty"`
	Body       string `json:"body"`
}

type sendPayload struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

// SendText dispatches one text message, retrying transient failures. The
// engine treats delivery as fire-and-forget; callers log the error but do
// not surface it to the webhook response.
func (s *Sender) SendText(ctx context.Context, to, body string, preview bool) error {
	if s.token == "" {
		return errors.New("messaging: whatsapp api token missing")
	}
	if to == "" {
		return errors.New("messaging: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := senderTracer.Start(ctx, "messaging.send_text")
	defer span.End()
	span.SetAttributes(attribute.String("lanchonete.to", to))

	payload, err := json.Marshal(sendPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textPayload{PreviewURL: preview, Body: body},
	})
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal send payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.businessID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("whatsapp message sent", "to", to)
				s.metrics.ObserveOutbound("sent")
				return nil
			}
			lastErr = sendError(resp.StatusCode, respBody)
			if !retryableStatus(resp.StatusCode) {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	span.RecordError(lastErr)
	s.logger.Error("failed to send whatsapp message", "error", lastErr, "to", to)
	s.metrics.ObserveOutbound("error")
	return lastErr
}

func sendError(status int, body []byte) error {
	var errorBody map[string]interface{}
	if len(body) > 0 && json.Unmarshal(body, &errorBody) == nil {
		return fmt.Errorf("messaging: whatsapp send failed: status %d, body: %v", status, errorBody)
	}
	return fmt.Errorf("messaging: whatsapp send failed: status %d", status)
}

// retryableStatus reports whether another attempt can help. Client errors
// other than 429 are permanent.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
