package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maiyu/lanchonete-bot/internal/conversation"
	"github.com/maiyu/lanchonete-bot/internal/menu"
)

type stubChat struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.content}},
		},
	}, nil
}

func testOptions() Options {
	return Options{
		Model:   "llama-3.3-70b-versatile",
		BotName: "Maiyu Bot",
		Menu:    menu.Default(),
		Timeout: time.Second,
	}
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient(Options{Menu: menu.Default()})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestRespondSendsSystemAndUserTurns(t *testing.T) {
	chat := &stubChat{content: "Oi, eu sou o Maiyu Bot! Temos hamburguer e suco."}
	client := newGroqClient(chat, testOptions())

	reply, err := client.Respond(context.Background(), conversation.NewState(), "o que vocês têm?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != chat.content {
		t.Errorf("unexpected reply: %q", reply)
	}

	if chat.lastReq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected model: %s", chat.lastReq.Model)
	}
	if len(chat.lastReq.Messages) != 2 {
		t.Fatalf("expected system + user turns, got %d messages", len(chat.lastReq.Messages))
	}
	if chat.lastReq.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first turn must be the system persona")
	}
	if !strings.Contains(chat.lastReq.Messages[0].Content, "Maiyu Bot") {
		t.Errorf("system turn missing persona name: %q", chat.lastReq.Messages[0].Content)
	}
	if !strings.Contains(chat.lastReq.Messages[1].Content, `"o que vocês têm?"`) {
		t.Errorf("user turn missing customer text: %q", chat.lastReq.Messages[1].Content)
	}
}

func TestRespondOrderingPromptEmbedsCatalog(t *testing.T) {
	chat := &stubChat{content: "Um X-Tudo, anotado! - Maiyu Bot"}
	client := newGroqClient(chat, testOptions())

	state := conversation.State{Phase: conversation.PhaseOrdering, Order: []menu.Item{}}
	if _, err := client.Respond(context.Background(), state, "um x-tudo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(chat.lastReq.Messages[1].Content, `"lanches"`) {
		t.Errorf("ordering prompt must embed the catalog: %q", chat.lastReq.Messages[1].Content)
	}
}

func TestRespondPrefixesBotNameWhenMissing(t *testing.T) {
	chat := &stubChat{content: "Temos hamburguer, x-tudo e sucos."}
	client := newGroqClient(chat, testOptions())

	reply, err := client.Respond(context.Background(), conversation.NewState(), "oi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(reply, "Oi, eu sou o Maiyu Bot! ") {
		t.Errorf("expected bot-name prefix, got %q", reply)
	}
	if !strings.Contains(reply, "Temos hamburguer") {
		t.Errorf("original completion must be preserved: %q", reply)
	}
}

func TestRespondKeepsReplyThatNamesTheBot(t *testing.T) {
	chat := &stubChat{content: "Aqui é o Maiyu Bot, pode pedir!"}
	client := newGroqClient(chat, testOptions())

	reply, _ := client.Respond(context.Background(), conversation.NewState(), "oi")
	if strings.HasPrefix(reply, "Oi, eu sou o") {
		t.Errorf("reply already naming the bot must not be prefixed: %q", reply)
	}
}

func TestRespondPropagatesAPIError(t *testing.T) {
	chat := &stubChat{err: errors.New("429 too many requests")}
	client := newGroqClient(chat, testOptions())

	_, err := client.Respond(context.Background(), conversation.NewState(), "oi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chat completion failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRespondErrorsOnEmptyChoices(t *testing.T) {
	client := newGroqClient(&emptyChat{}, testOptions())

	_, err := client.Respond(context.Background(), conversation.NewState(), "oi")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

type emptyChat struct{}

func (emptyChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}
