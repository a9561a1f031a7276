package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/pageforge/internal/builder"
	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// BuilderHandler implements the composer's mutation endpoints. Each request
// loads the document, applies one edit through the builder engine, and
// saves the result: the store write is the commit point.
type BuilderHandler struct {
	store pagestore.Store
	ids   *idgen.Generator
}

// NewBuilderHandler creates a new BuilderHandler.
func NewBuilderHandler(store pagestore.Store, ids *idgen.Generator) *BuilderHandler {
	if ids == nil {
		ids = idgen.New()
	}
	return &BuilderHandler{store: store, ids: ids}
}

// idParam extracts and parses an int64 path parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// withDocument runs one edit against the stored document and persists the
// result when the edit succeeds.
func (h *BuilderHandler) withDocument(w http.ResponseWriter, r *http.Request, edit func(e *builder.Engine) error) {
	key, ok := pageKeyParam(w, r)
	if !ok {
		return
	}
	doc, err := h.store.Load(r.Context(), key)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	e := builder.New(doc, h.ids)
	if err := edit(e); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "EDIT_REJECTED", err.Error())
		return
	}
	if err := h.store.Save(r.Context(), e.Document()); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Document())
}

type tabRequest struct {
	Title string `json:"title"`
}

func (h *BuilderHandler) AddTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		e.AddTab(req.Title)
		return nil
	})
}

func (h *BuilderHandler) RenameTab(w http.ResponseWriter, r *http.Request) {
	tabID, ok := idParam(w, r, "tabID")
	if !ok {
		return
	}
	var req tabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.RenameTab(tabID, req.Title)
	})
}

func (h *BuilderHandler) RemoveTab(w http.ResponseWriter, r *http.Request) {
	tabID, ok := idParam(w, r, "tabID")
	if !ok {
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.RemoveTab(tabID)
	})
}

type sectionRequest struct {
	TabID   int64  `json:"tabId"`
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Gutter  int    `json:"gutter"`
}

func (h *BuilderHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		_, err := e.AddSection(req.TabID, req.Name, req.Columns)
		return err
	})
}

func (h *BuilderHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	var req sectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.UpdateSection(sectionID, req.Name, schema.SectionLayout{
			Columns: req.Columns,
			Gutter:  req.Gutter,
		})
	})
}

func (h *BuilderHandler) RemoveSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.RemoveSection(sectionID)
	})
}

type addComponentRequest struct {
	Type schema.ComponentType `json:"type"`
}

func (h *BuilderHandler) AddComponent(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	var req addComponentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		_, err := e.AddComponent(sectionID, req.Type)
		return err
	})
}

// SaveComponent applies a full component edit. Validation failures return
// the per-field error set so the composer can display them inline.
func (h *BuilderHandler) SaveComponent(w http.ResponseWriter, r *http.Request) {
	key, ok := pageKeyParam(w, r)
	if !ok {
		return
	}
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	componentID, ok := idParam(w, r, "componentID")
	if !ok {
		return
	}
	var c schema.Component
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	c.ID = componentID

	doc, err := h.store.Load(r.Context(), key)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if result := schema.ValidateComponent(c); !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	e := builder.New(doc, h.ids)
	if err := e.SaveComponent(sectionID, c); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "EDIT_REJECTED", err.Error())
		return
	}
	if err := h.store.Save(r.Context(), e.Document()); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Document())
}

func (h *BuilderHandler) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	componentID, ok := idParam(w, r, "componentID")
	if !ok {
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.RemoveComponent(sectionID, componentID)
	})
}

type moveComponentRequest struct {
	ToIndex int `json:"toIndex"`
}

func (h *BuilderHandler) MoveComponent(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := idParam(w, r, "sectionID")
	if !ok {
		return
	}
	componentID, ok := idParam(w, r, "componentID")
	if !ok {
		return
	}
	var req moveComponentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.withDocument(w, r, func(e *builder.Engine) error {
		return e.MoveComponent(sectionID, componentID, req.ToIndex)
	})
}
