package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matthewbaird/pageforge/internal/event"
)

type collectingHandler struct {
	mu     sync.Mutex
	events []event.PageEvent
}

func (h *collectingHandler) HandleEvent(_ context.Context, evt event.PageEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return nil
}

func (h *collectingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := New(16)
	a := &collectingHandler{}
	b := &collectingHandler{}
	bus.Subscribe("a", a)
	bus.Subscribe("b", b)

	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)

	for i := 0; i < 5; i++ {
		bus.Publish(ctx, event.NewPageSaved("p", 1, i))
	}

	deadline := time.After(2 * time.Second)
	for a.count() < 5 || b.count() < 5 {
		select {
		case <-deadline:
			t.Fatalf("delivery timeout: a=%d b=%d", a.count(), b.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	bus.Stop()
}

// Buffered events are drained before the consumer goroutine exits.
func TestBus_DrainsOnCancel(t *testing.T) {
	bus := New(16)
	h := &collectingHandler{}
	bus.Subscribe("h", h)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		bus.Publish(ctx, event.NewFieldsCleared("p", "clearBtn", []string{"a"}))
	}

	bus.Start(ctx)
	cancel()
	bus.Stop()

	if h.count() != 10 {
		t.Errorf("drained = %d events, want 10", h.count())
	}
}

// Publish never blocks: overflow beyond the buffer is dropped.
func TestBus_PublishNonBlocking(t *testing.T) {
	bus := New(1)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(ctx, event.NewPageSaved("p", 1, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}
