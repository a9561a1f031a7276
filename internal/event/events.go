// Package event defines the page lifecycle and interaction events the
// dispatcher publishes. Consumers subscribe through the event bus; the
// events are observability signals, not control flow: dropping one never
// changes page behavior.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PageEvent carries the canonical shape of every page event.
type PageEvent struct {
	ID         string
	EventType  string
	OccurredAt time.Time
	PageKey    string
	// Components names the components involved, the originator first.
	Components []string
	Summary    string
	Payload    json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ── Document lifecycle ───────────────────────────────────────────────────────

// NewPageSaved records a whole-document save.
func NewPageSaved(pageKey string, tabs, components int) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "page_saved",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Summary:    fmt.Sprintf("Page %s saved (%d tabs, %d components)", pageKey, tabs, components),
		Payload:    mustJSON(map[string]int{"tabs": tabs, "components": components}),
	}
}

// ── Interaction events ───────────────────────────────────────────────────────

// NewActionSubmitted records a successful button submit.
func NewActionSubmitted(pageKey, buttonName string, fieldCount int) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "action_submitted",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: []string{buttonName},
		Summary:    fmt.Sprintf("Button %s submitted %d fields", buttonName, fieldCount),
		Payload:    mustJSON(map[string]any{"button": buttonName, "fields": fieldCount}),
	}
}

// NewActionFailed records a failed button submit.
func NewActionFailed(pageKey, buttonName, reason string) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "action_failed",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: []string{buttonName},
		Summary:    fmt.Sprintf("Button %s failed: %s", buttonName, reason),
		Payload:    mustJSON(map[string]string{"button": buttonName, "reason": reason}),
	}
}

// NewTableRefreshTriggered records a refresh-token bump on a table.
func NewTableRefreshTriggered(pageKey, buttonName, tableName string, token uint64) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "table_refresh_triggered",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: []string{buttonName, tableName},
		Summary:    fmt.Sprintf("Button %s triggered refresh of table %s", buttonName, tableName),
		Payload:    mustJSON(map[string]any{"button": buttonName, "table": tableName, "token": token}),
	}
}

// NewFieldsCleared records a section reset.
func NewFieldsCleared(pageKey, buttonName string, fields []string) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "fields_cleared",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: append([]string{buttonName}, fields...),
		Summary:    fmt.Sprintf("Button %s cleared %d fields", buttonName, len(fields)),
		Payload:    mustJSON(map[string]any{"button": buttonName, "fields": fields}),
	}
}

// NewLookupResolved records a blur-triggered lookup and how many of its
// field mappings resolved.
func NewLookupResolved(pageKey, fieldName string, resolved, total int) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "lookup_resolved",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: []string{fieldName},
		Summary:    fmt.Sprintf("Lookup on %s populated %d of %d fields", fieldName, resolved, total),
		Payload:    mustJSON(map[string]int{"resolved": resolved, "total": total}),
	}
}

// NewRowSelected records a table row-select that populated form fields.
func NewRowSelected(pageKey, tableName string, fields []string) PageEvent {
	return PageEvent{
		ID:         newID(),
		EventType:  "row_selected",
		OccurredAt: time.Now(),
		PageKey:    pageKey,
		Components: append([]string{tableName}, fields...),
		Summary:    fmt.Sprintf("Row selected on %s populated %d fields", tableName, len(fields)),
		Payload:    mustJSON(map[string]any{"table": tableName, "fields": fields}),
	}
}
