package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/dispatch"
	"github.com/matthewbaird/pageforge/internal/eventbus"
	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/notify"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// Handler manages WebSocket connections for interactive page sessions.
// One connection owns one session: the document is loaded at connect time
// and every interaction re-renders against the live session state.
type Handler struct {
	store    pagestore.Store
	sessions *render.Manager
	client   apiclient.Caller
	bus      *eventbus.Bus
	ids      *idgen.Generator
}

// NewHandler creates a WebSocket handler with all dependencies.
func NewHandler(store pagestore.Store, sessions *render.Manager, client apiclient.Caller, bus *eventbus.Bus, ids *idgen.Generator) *Handler {
	if ids == nil {
		ids = idgen.New()
	}
	return &Handler{store: store, sessions: sessions, client: client, bus: bus, ids: ids}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The page to
// open comes from the `page` query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pageKey := r.URL.Query().Get("page")
	if pageKey == "" {
		http.Error(w, "page query parameter is required", http.StatusBadRequest)
		return
	}

	doc, err := h.store.Load(r.Context(), pageKey)
	if err != nil {
		http.Error(w, "page not found: "+pageKey, http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create(doc, nil)
	defer h.sessions.Remove(sess.ID)
	ctx := r.Context()

	// Notices raised during dispatch stream to the client as they happen.
	notifier := notify.Func(func(level notify.Level, msg string) {
		h.send(ctx, conn, ServerMessage{
			Type: "notice",
			Data: NoticeData{Level: level, Message: msg},
		})
	})
	d := dispatch.New(h.client, notifier, h.bus, h.ids)

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID, PageKey: pageKey},
	})

	// Initial data pass: api-mode selects and tables load before the first
	// render so the client never sees a page that silently lacks its data.
	h.loadInitialData(sess, notifier)
	h.sendPage(ctx, conn, sess, "")

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "render":
			h.sendPage(ctx, conn, sess, msg.ID)
		case "set_value":
			h.handleSetValue(ctx, conn, sess, msg)
		case "blur":
			h.handleBlur(ctx, conn, sess, d, msg)
		case "button_click":
			h.handleButtonClick(ctx, conn, sess, d, notifier, msg)
		case "row_select":
			h.handleRowSelect(ctx, conn, sess, d, msg)
		case "reset_bindings":
			sess.ResetBindings()
			h.sendPage(ctx, conn, sess, msg.ID)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleSetValue(ctx context.Context, conn *websocket.Conn, sess *render.Session, msg ClientMessage) {
	var data SetValueData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid set_value data")
		return
	}
	sess.SetValue(data.Name, data.Value)
	h.sendPage(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleBlur(ctx context.Context, conn *websocket.Conn, sess *render.Session, d *dispatch.Dispatcher, msg ClientMessage) {
	var data BlurData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid blur data")
		return
	}
	if err := d.FieldBlur(sess, data.Name, data.Value); err != nil {
		h.sendError(ctx, conn, msg.ID, "blur_failed", err.Error())
		return
	}
	h.sendPage(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleButtonClick(ctx context.Context, conn *websocket.Conn, sess *render.Session, d *dispatch.Dispatcher, notifier notify.Notifier, msg ClientMessage) {
	var data ButtonClickData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid button_click data")
		return
	}
	if err := d.ButtonAction(sess, data.Name); err != nil {
		h.sendError(ctx, conn, msg.ID, "action_failed", err.Error())
		return
	}

	// The click may have bumped refresh tokens; refetch whatever went stale
	// before re-rendering.
	for _, name := range sess.StaleTables() {
		if table := sess.Doc.FindComponent(name); table != nil {
			render.FetchTableRows(sess, h.client, notifier, h.ids, table)
		}
	}
	h.sendPage(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleRowSelect(ctx context.Context, conn *websocket.Conn, sess *render.Session, d *dispatch.Dispatcher, msg ClientMessage) {
	var data RowSelectData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid row_select data")
		return
	}
	if err := d.RowAction(sess, data.Table, data.Record); err != nil {
		h.sendError(ctx, conn, msg.ID, "row_select_failed", err.Error())
		return
	}
	h.sendPage(ctx, conn, sess, msg.ID)
}

// loadInitialData fetches every api-mode select's options and every table's
// first data set.
func (h *Handler) loadInitialData(sess *render.Session, notifier notify.Notifier) {
	for i := range sess.Doc.Tabs {
		for j := range sess.Doc.Tabs[i].Sections {
			sec := &sess.Doc.Tabs[i].Sections[j]
			for k := range sec.Components {
				c := &sec.Components[k]
				switch c.Type {
				case schema.TypeSelect:
					render.FetchSelectOptions(sess, h.client, notifier, c)
				case schema.TypeTable:
					render.FetchTableRows(sess, h.client, notifier, h.ids, c)
				}
			}
		}
	}
}

func (h *Handler) sendPage(ctx context.Context, conn *websocket.Conn, sess *render.Session, requestID string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "page",
		RequestID: requestID,
		Data:      render.Render(sess),
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
