// Package llm talks to Groq's OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/maiyu/lanchonete-bot/internal/conversation"
	"github.com/maiyu/lanchonete-bot/internal/menu"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

var groqTracer = otel.Tracer("lanchonete.internal.llm.groq")

const defaultModel = "llama-3.3-70b-versatile"

// chatClient is the minimal surface we need from the go-openai client.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GroqClient generates free-form replies for the conversation engine.
type GroqClient struct {
	client  chatClient
	model   string
	botName string
	menu    *menu.Menu
	timeout time.Duration
	logger  *logging.Logger
}

// Options configures a GroqClient.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	BotName string
	Menu    *menu.Menu
	Timeout time.Duration
	Logger  *logging.Logger
}

// NewGroqClient builds a Groq-backed responder. Groq speaks the OpenAI
// chat-completions protocol, so the client only differs in its base URL.
func NewGroqClient(opts Options) (*GroqClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm: groq api key missing")
	}
	if opts.Menu == nil {
		return nil, errors.New("llm: menu cannot be nil")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return newGroqClient(openai.NewClientWithConfig(cfg), opts), nil
}

func newGroqClient(client chatClient, opts Options) *GroqClient {
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &GroqClient{
		client:  client,
		model:   model,
		botName: opts.BotName,
		menu:    opts.Menu,
		timeout: timeout,
		logger:  logger,
	}
}

var _ conversation.Responder = (*GroqClient)(nil)

// Respond generates a reply for the given conversation state and raw text.
// The call is bounded by the configured timeout regardless of the caller's
// context.
func (c *GroqClient) Respond(ctx context.Context, state conversation.State, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := groqTracer.Start(ctx, "llm.respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("lanchonete.phase", string(state.Phase)),
		attribute.String("lanchonete.model", c.model),
	)

	prompt := conversation.BuildPrompt(c.botName, c.menu, state, text)
	c.logger.Debug("sending prompt to groq", "phase", state.Phase, "prompt_len", len(prompt))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: conversation.SystemPrompt(c.botName)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("llm: completion returned no choices")
		span.RecordError(err)
		return "", err
	}

	return c.ensureBotName(resp.Choices[0].Message.Content), nil
}

// ensureBotName prefixes the greeting when the completion does not already
// mention the bot by name.
func (c *GroqClient) ensureBotName(reply string) string {
	if c.botName == "" || strings.Contains(reply, c.botName) {
		return reply
	}
	return fmt.Sprintf("Oi, eu sou o %s! %s", c.botName, reply)
}
