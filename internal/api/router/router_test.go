package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maiyu/lanchonete-bot/internal/conversation"
	"github.com/maiyu/lanchonete-bot/internal/menu"
	"github.com/maiyu/lanchonete-bot/internal/messaging"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

// newTestRouter wires a real engine and sender against a fake Graph API so
// routes are exercised end to end.
func newTestRouter(t *testing.T) (http.Handler, *[]string) {
	t.Helper()

	var sent []string
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		sent = append(sent, payload.Text.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(graph.Close)

	logger := logging.Default()
	engine := conversation.NewEngine(conversation.NewMemoryStore(), menu.Default(), nil, "Maiyu Bot", logger, nil)
	sender := messaging.NewSender("token", "biz", graph.URL, logger, nil)
	webhook := messaging.NewHandler("segredo", engine, sender, logger, nil)

	return New(&Config{Webhook: webhook}), &sent
}

func TestRouterHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRouterWebhookVerification(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=segredo&hub.challenge=abc123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "abc123" {
		t.Fatalf("expected challenge echo, got %d %q", w.Code, w.Body.String())
	}
}

func TestRouterWebhookMessageFlow(t *testing.T) {
	r, sent := newTestRouter(t)

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "biz",
			"changes": [{
				"value": {
					"contacts": [{"wa_id": "5511999990000"}],
					"messages": [{"from": "5511999990000", "type": "text", "text": {"body": "cardápio"}}]
				}
			}]
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one outbound message, got %d", len(*sent))
	}
	if !strings.Contains((*sent)[0], "Aqui está nosso cardápio:") {
		t.Errorf("expected the menu listing to be sent, got %q", (*sent)[0])
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
