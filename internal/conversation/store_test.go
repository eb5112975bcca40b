package conversation

import (
	"context"
	"sync"
	"testing"

	"github.com/maiyu/lanchonete-bot/internal/menu"
)

func TestMemoryStoreGetCreatesInitialState(t *testing.T) {
	store := NewMemoryStore()

	state, err := store.Get(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseStart {
		t.Errorf("expected start phase, got %s", state.Phase)
	}
	if state.Order == nil || len(state.Order) != 0 {
		t.Errorf("expected empty non-nil order, got %#v", state.Order)
	}
}

func TestMemoryStoreUpdateReplacesSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item, _ := menu.Default().FindByID(1)
	updated, err := store.Update(ctx, "c1", State{Phase: PhaseOrdering, Order: []menu.Item{item}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Phase != PhaseOrdering || len(updated.Order) != 1 {
		t.Fatalf("unexpected updated snapshot: %+v", updated)
	}

	got, _ := store.Get(ctx, "c1")
	if got.Phase != PhaseOrdering || len(got.Order) != 1 || got.Order[0].ID != 1 {
		t.Errorf("stored snapshot mismatch: %+v", got)
	}
}

func TestMemoryStoreResetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item, _ := menu.Default().FindByID(2)
	store.Update(ctx, "c1", State{Phase: PhaseConfirming, Order: []menu.Item{item}})

	state, err := store.Reset(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseStart || len(state.Order) != 0 {
		t.Errorf("expected initial snapshot after reset, got %+v", state)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item, _ := menu.Default().FindByID(1)
	store.Update(ctx, "c1", State{Phase: PhaseOrdering, Order: []menu.Item{item}})

	first, _ := store.Get(ctx, "c1")
	first.Order[0].Name = "mutated"
	first.Phase = PhaseConfirming

	second, _ := store.Get(ctx, "c1")
	if second.Order[0].Name != "Hamburguer Simples" {
		t.Error("caller mutation leaked into the store")
	}
	if second.Phase != PhaseOrdering {
		t.Error("phase mutation leaked into the store")
	}
}

func TestMemoryStoreConcurrentGetOrCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := store.Get(ctx, "same")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if state.Phase != PhaseStart {
				t.Errorf("unexpected phase: %s", state.Phase)
			}
		}()
	}
	wg.Wait()
}
