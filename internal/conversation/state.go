// Package conversation implements the ordering dialogue: per-chat state,
// the rule-based engine, and the fixed Portuguese reply templates.
package conversation

import "github.com/maiyu/lanchonete-bot/internal/menu"

// Phase identifies where a conversation is in the ordering flow.
type Phase string

const (
	// PhaseStart is the initial phase of every conversation.
	PhaseStart Phase = "start"
	// PhaseOrdering is active after the customer asked for the menu.
	PhaseOrdering Phase = "ordering"
	// PhaseConfirming is active after the customer asked to close the order.
	PhaseConfirming Phase = "confirming"
)

// State is one conversation's ordering progress. Order holds copies of
// catalog items in insertion order; duplicates are allowed and meaningful.
type State struct {
	Phase Phase       `json:"phase"`
	Order []menu.Item `json:"order"`
}

// NewState returns the initial snapshot every conversation starts from.
func NewState() State {
	return State{Phase: PhaseStart, Order: []menu.Item{}}
}

// cloneState copies a snapshot so callers never share the Order slice with
// the store.
func cloneState(s State) State {
	order := make([]menu.Item, len(s.Order))
	copy(order, s.Order)
	return State{Phase: s.Phase, Order: order}
}
