// Package messaging is the WhatsApp Cloud API boundary: it parses inbound
// webhook payloads into the engine's input shape and delivers replies
// through the Graph API send endpoint.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotAMessage flags webhook deliveries that are structurally valid but
// carry no inbound text message (status updates, reactions, media). They
// are acknowledged upstream without side effects.
var ErrNotAMessage = errors.New("messaging: event carries no text message")

// InboundMessage is the validated engine input extracted from a webhook
// delivery. ConversationID keys the state store; From is the wa_id the
// reply is addressed to.
type InboundMessage struct {
	ConversationID string
	From           string
	Text           string
}

// Webhook payload shapes, restricted to the fields we read.
type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	Messages []webhookMessage `json:"messages"`
	Contacts []webhookContact `json:"contacts"`
}

type webhookMessage struct {
	From string       `json:"from"`
	Type string       `json:"type"`
	Text *webhookText `json:"text"`
}

type webhookText struct {
	Body string `json:"body"`
}

type webhookContact struct {
	WaID string `json:"wa_id"`
}

// ParseWebhook validates a Cloud API webhook body and extracts the first
// text message. It returns ErrNotAMessage for deliveries without one, and
// a plain error for payloads that are not a WhatsApp webhook at all.
func ParseWebhook(body []byte) (InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return InboundMessage{}, fmt.Errorf("messaging: malformed webhook body: %w", err)
	}
	if payload.Object != "whatsapp_business_account" {
		return InboundMessage{}, fmt.Errorf("messaging: unexpected webhook object %q", payload.Object)
	}
	if len(payload.Entry) == 0 {
		return InboundMessage{}, errors.New("messaging: webhook has no entries")
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			msg, ok := firstTextMessage(change.Value)
			if !ok {
				continue
			}
			from := msg.From
			if from == "" && len(change.Value.Contacts) > 0 {
				from = change.Value.Contacts[0].WaID
			}
			if from == "" || msg.Text.Body == "" {
				continue
			}
			return InboundMessage{
				// The end-user chat thread is keyed by the sender's
				// wa_id, never by the business account id.
				ConversationID: from,
				From:           from,
				Text:           msg.Text.Body,
			}, nil
		}
	}
	return InboundMessage{}, ErrNotAMessage
}

func firstTextMessage(value webhookValue) (webhookMessage, bool) {
	for _, msg := range value.Messages {
		if msg.Text != nil && (msg.Type == "" || msg.Type == "text") {
			return msg, true
		}
	}
	return webhookMessage{}, false
}
