package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/schema"
)

func testRouter(store pagestore.Store) http.Handler {
	r := chi.NewRouter()
	ph := NewPageHandler(store, nil)
	r.Get("/v1/pages", ph.ListPages)
	r.Post("/v1/pages", ph.SavePage)
	r.Get("/v1/pages/{pageKey}", ph.GetPage)
	r.Delete("/v1/pages/{pageKey}", ph.DeletePage)
	r.Post("/v1/pages/{pageKey}/render", ph.RenderPage)

	bh := NewBuilderHandler(store, idgen.New())
	r.Post("/v1/pages/{pageKey}/tabs", bh.AddTab)
	r.Delete("/v1/pages/{pageKey}/tabs/{tabID}", bh.RemoveTab)
	return Recovery(Logging(r))
}

const validPage = `{
	"pageKey": "loan-intake",
	"title": "Loan Intake",
	"tabs": [
		{"id": 1, "title": "Main", "sections": [
			{"id": 10, "name": "Form", "layout": {"columns": 2, "gutter": 16}, "components": [
				{"id": 100, "type": "field", "name": "custNo", "label": "Customer No",
				 "permissionString": "110"}
			]}
		]}
	]
}`

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaveAndGetPage(t *testing.T) {
	h := testRouter(pagestore.NewMemoryStore())

	rec := doRequest(t, h, http.MethodPost, "/v1/pages", validPage)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/v1/pages/loan-intake", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc schema.PageDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Loan Intake", doc.Title)
}

func TestSavePage_RejectsInvalidDocument(t *testing.T) {
	h := testRouter(pagestore.NewMemoryStore())

	rec := doRequest(t, h, http.MethodPost, "/v1/pages", `{"title": "no key", "tabs": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/pages", `{nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPage_NotFound(t *testing.T) {
	h := testRouter(pagestore.NewMemoryStore())
	rec := doRequest(t, h, http.MethodGet, "/v1/pages/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestListAndDeletePages(t *testing.T) {
	store := pagestore.NewMemoryStore()
	h := testRouter(store)
	doRequest(t, h, http.MethodPost, "/v1/pages", validPage)

	rec := doRequest(t, h, http.MethodGet, "/v1/pages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Pages []pagestore.Summary `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Pages, 1)
	assert.Equal(t, "loan-intake", list.Pages[0].PageKey)

	rec = doRequest(t, h, http.MethodDelete, "/v1/pages/loan-intake", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/v1/pages/loan-intake", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderPage(t *testing.T) {
	h := testRouter(pagestore.NewMemoryStore())
	doRequest(t, h, http.MethodPost, "/v1/pages", validPage)

	rec := doRequest(t, h, http.MethodPost, "/v1/pages/loan-intake/render",
		`{"bindings": {"custNo": "42"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		PageKey string `json:"pageKey"`
		Tabs    []struct {
			Sections []struct {
				Groups []struct {
					Nodes []struct {
						Name  string `json:"name"`
						Value any    `json:"value"`
					} `json:"nodes"`
				} `json:"groups"`
			} `json:"sections"`
		} `json:"tabs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "loan-intake", page.PageKey)
	require.NotEmpty(t, page.Tabs)
	node := page.Tabs[0].Sections[0].Groups[0].Nodes[0]
	assert.Equal(t, "custNo", node.Name)
	assert.Equal(t, "42", node.Value)
}

func TestBuilderEndpoints(t *testing.T) {
	store := pagestore.NewMemoryStore()
	h := testRouter(store)
	doRequest(t, h, http.MethodPost, "/v1/pages", validPage)

	rec := doRequest(t, h, http.MethodPost, "/v1/pages/loan-intake/tabs", `{"title": "Extra"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc schema.PageDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Tabs, 2)

	// The mutation persisted.
	stored, err := store.Load(context.Background(), "loan-intake")
	require.NoError(t, err)
	assert.Len(t, stored.Tabs, 2)

	rec = doRequest(t, h, http.MethodDelete, "/v1/pages/loan-intake/tabs/notanumber", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
