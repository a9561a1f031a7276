// Package wire defines the WebSocket protocol for interactive page
// sessions.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/pageforge/internal/notify"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "render", "set_value", "blur", "button_click", "row_select", "reset_bindings", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// SetValueData is the payload for "set_value" messages.
type SetValueData struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// BlurData is the payload for "blur" messages.
type BlurData struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ButtonClickData is the payload for "button_click" messages.
type ButtonClickData struct {
	Name string `json:"name"`
}

// RowSelectData is the payload for "row_select" messages.
type RowSelectData struct {
	Table  string         `json:"table"`
	Record map[string]any `json:"record"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "page", "notice", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information, sent once after connect.
type SessionData struct {
	SessionID string `json:"session_id"`
	PageKey   string `json:"page_key"`
}

// NoticeData carries one user-facing notification.
type NoticeData struct {
	Level   notify.Level `json:"level"`
	Message string       `json:"message"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
