package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/maiyu/lanchonete-bot/internal/menu"
	"github.com/maiyu/lanchonete-bot/internal/observability/metrics"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

var engineTracer = otel.Tracer("lanchonete.internal.conversation.engine")

// Keyword rules are matched against the lower-cased inbound text. The menu
// keyword is also accepted without the accent, since phone keyboards often
// drop it.
const (
	keywordMenu       = "cardápio"
	keywordMenuPlain  = "cardapio"
	keywordFinalize   = "finalizar"
	keywordConfirmYes = "sim"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Responder generates a free-form reply when no deterministic rule matches.
type Responder interface {
	Respond(ctx context.Context, state State, text string) (string, error)
}

// Engine is the conversation core: it dispatches each inbound message
// either to a deterministic ordering-flow rule or to the language model,
// and keeps the conversation state current in the store.
type Engine struct {
	store   StateStore
	menu    *menu.Menu
	llm     Responder
	botName string
	logger  *logging.Logger
	metrics *metrics.EngineMetrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates the conversation engine. The metrics argument may be
// nil when observation is not wanted (tests).
func NewEngine(store StateStore, m *menu.Menu, llm Responder, botName string, logger *logging.Logger, em *metrics.EngineMetrics) *Engine {
	if store == nil {
		panic("conversation: state store cannot be nil")
	}
	if m == nil {
		panic("conversation: menu cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:   store,
		menu:    m,
		llm:     llm,
		botName: botName,
		logger:  logger,
		metrics: em,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex that serializes processing for one chat id.
// Lock entries accumulate alongside conversation state and share its
// process-lifetime ownership.
func (e *Engine) lockFor(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// Process handles one inbound message and returns the reply to send. It
// never fails from the caller's perspective: store and gateway errors
// degrade to a user-facing apology, and the reply is always non-empty.
// Calls for the same conversation id are serialized; distinct ids proceed
// concurrently.
func (e *Engine) Process(ctx context.Context, conversationID, text string) string {
	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := engineTracer.Start(ctx, "conversation.process")
	defer span.End()
	span.SetAttributes(attribute.String("lanchonete.conversation_id", conversationID))

	state, err := e.store.Get(ctx, conversationID)
	if err != nil {
		// A failed read must not break the conversation; fall back to a
		// fresh snapshot and keep going.
		e.logger.Warn("failed to load conversation state", "error", err, "conversation_id", conversationID)
		span.RecordError(err)
		state = NewState()
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(lower, keywordMenu) || strings.Contains(lower, keywordMenuPlain):
		e.metrics.ObserveRule("menu")
		state.Phase = PhaseOrdering
		e.save(ctx, conversationID, state)
		return RenderMenu(e.menu)

	case strings.Contains(lower, keywordFinalize):
		e.metrics.ObserveRule("finalize")
		if len(state.Order) == 0 {
			return RenderEmptyOrderPrompt()
		}
		state.Phase = PhaseConfirming
		e.save(ctx, conversationID, state)
		return RenderOrderSummary(state.Order) + "\n" + RenderConfirmPrompt()

	case lower == keywordConfirmYes && state.Phase == PhaseConfirming:
		e.metrics.ObserveRule("confirm")
		e.confirmOrder(ctx, conversationID, state)
		return RenderConfirmation()

	case state.Phase == PhaseOrdering && digitsOnly.MatchString(lower):
		e.metrics.ObserveRule("add_item")
		return e.addItem(ctx, conversationID, state, lower)

	default:
		return e.delegate(ctx, conversationID, state, text)
	}
}

// confirmOrder logs the closed order with a reference for the kitchen and
// resets the conversation to its initial state.
func (e *Engine) confirmOrder(ctx context.Context, conversationID string, state State) {
	var total float64
	names := make([]string, 0, len(state.Order))
	for _, item := range state.Order {
		total += item.Price
		names = append(names, item.Name)
	}
	e.logger.Info("order confirmed",
		"conversation_id", conversationID,
		"order_ref", uuid.NewString(),
		"items", strings.Join(names, ", "),
		"total", fmt.Sprintf("%.2f", total),
	)
	if _, err := e.store.Reset(ctx, conversationID); err != nil {
		e.logger.Error("failed to reset conversation state", "error", err, "conversation_id", conversationID)
	}
}

// addItem appends the item with the given decimal id to the order. Unknown
// ids, including numbers too large to parse, are a valid negative result.
func (e *Engine) addItem(ctx context.Context, conversationID string, state State, digits string) string {
	id, err := strconv.Atoi(digits)
	if err != nil {
		return RenderItemNotFound()
	}
	item, ok := e.menu.FindByID(id)
	if !ok {
		return RenderItemNotFound()
	}
	state.Order = append(state.Order, item)
	e.save(ctx, conversationID, state)
	return RenderItemAdded(item)
}

// delegate asks the language model for a free-form reply. The phase is
// never changed by this path, and any gateway failure degrades to the fixed
// apology.
func (e *Engine) delegate(ctx context.Context, conversationID string, state State, text string) string {
	if e.llm == nil {
		e.metrics.ObserveLLM("disabled")
		return e.fallbackReply()
	}
	reply, err := e.llm.Respond(ctx, state, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			e.logger.Error("language model call failed", "error", err, "conversation_id", conversationID)
		}
		e.metrics.ObserveLLM("error")
		return e.fallbackReply()
	}
	e.metrics.ObserveLLM("ok")
	return reply
}

func (e *Engine) fallbackReply() string {
	return fmt.Sprintf("Oi, eu sou o %s! Desculpe, algo deu errado. Tente novamente!", e.botName)
}

// save persists the updated snapshot. A failed write is logged and the
// reply is still returned; the next message simply sees the older state.
func (e *Engine) save(ctx context.Context, conversationID string, state State) {
	if _, err := e.store.Update(ctx, conversationID, state); err != nil {
		e.logger.Error("failed to persist conversation state", "error", err, "conversation_id", conversationID)
	}
}
