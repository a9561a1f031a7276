// Package handler implements the HTTP surface: page CRUD, builder
// mutations, one-shot rendering, and the websocket session endpoint.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/matthewbaird/pageforge/internal/event"
	"github.com/matthewbaird/pageforge/internal/eventbus"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// PageHandler implements HTTP handlers for page documents.
type PageHandler struct {
	store pagestore.Store
	bus   *eventbus.Bus
}

// NewPageHandler creates a new PageHandler. The bus may be nil.
func NewPageHandler(store pagestore.Store, bus *eventbus.Bus) *PageHandler {
	return &PageHandler{store: store, bus: bus}
}

func (h *PageHandler) publish(ctx context.Context, evt event.PageEvent) {
	if h.bus != nil {
		h.bus.Publish(ctx, evt)
	}
}

// SavePage upserts a whole page document. The body is the document itself,
// parsed with the legacy-shape tolerance the loader applies everywhere.
func (h *PageHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	doc, err := schema.ParseDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if issues := schema.ValidateDocument(&doc); len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "document validation failed",
			"code":   "INVALID_DOCUMENT",
			"issues": issues,
		})
		return
	}
	if r.URL.Query().Get("strict") == "1" {
		if err := schema.ValidateDocumentCUE(&doc); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_DOCUMENT", err.Error())
			return
		}
	}
	if err := h.store.Save(r.Context(), &doc); err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	components := 0
	for _, tab := range doc.Tabs {
		for _, sec := range tab.Sections {
			components += len(sec.Components)
		}
	}
	h.publish(r.Context(), event.NewPageSaved(doc.PageKey, len(doc.Tabs), components))
	writeJSON(w, http.StatusOK, map[string]string{"pageKey": doc.PageKey})
}

// GetPage returns the stored document.
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	key, ok := pageKeyParam(w, r)
	if !ok {
		return
	}
	doc, err := h.store.Load(r.Context(), key)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListPages returns summaries of all stored pages.
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.store.List(r.Context())
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if pages == nil {
		pages = []pagestore.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

// DeletePage removes the stored document.
func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	key, ok := pageKeyParam(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), key); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pageKey": key})
}

type renderPageRequest struct {
	Bindings map[string]any `json:"bindings,omitempty"`
}

// RenderPage evaluates the stored document once against the supplied
// bindings and returns the node tree. No session survives the request;
// interactive use goes through the websocket endpoint.
func (h *PageHandler) RenderPage(w http.ResponseWriter, r *http.Request) {
	key, ok := pageKeyParam(w, r)
	if !ok {
		return
	}
	var req renderPageRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
	}
	doc, err := h.store.Load(r.Context(), key)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	sess := render.NewSession(doc, req.Bindings)
	defer sess.Close()
	writeJSON(w, http.StatusOK, render.Render(sess))
}
