package eventbus

import (
	"context"
	"log"

	"github.com/matthewbaird/pageforge/internal/event"
)

// LogConsumer logs all page events for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.PageEvent) error {
	log.Printf("event: %s [page=%s] %s components=%v",
		evt.EventType, evt.PageKey, evt.Summary, evt.Components)
	return nil
}
