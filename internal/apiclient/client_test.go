package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_EnvelopeShape(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data": {"attributes": {"ok": true}}}`))
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL)
	_, err := c.Call(context.Background(), http.MethodPost, "/api/submit", Envelope{
		SubChannelID: "01",
		SubServiceID: "0001",
		TraceNo:      "T123",
		Attributes:   map[string]any{"custNo": "42"},
	})
	require.NoError(t, err)

	// Wire keys are fixed; renaming any of them breaks the upstream contract.
	assert.Equal(t, "01", captured["subChannelId"])
	assert.Equal(t, "0001", captured["subServiceId"])
	assert.Equal(t, "T123", captured["traceNo"])
	assert.Equal(t, map[string]any{"custNo": "42"}, captured["attributes"])
}

func TestCall_NoBodyOnGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL)
	_, err := c.Call(context.Background(), http.MethodGet, "/api/options", Envelope{})
	require.NoError(t, err)
}

func TestCall_NilAttributesSentAsEmptyObject(t *testing.T) {
	var captured map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL)
	_, err := c.Call(context.Background(), http.MethodPost, "/x", Envelope{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(captured["attributes"]))
}

func TestCall_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL)
	_, err := c.Call(context.Background(), http.MethodPost, "/x", Envelope{})
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusBadGateway, transport.StatusCode)
}

func TestCall_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL)
	_, err := c.Call(context.Background(), http.MethodPost, "/x", Envelope{})
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestCall_UnsupportedMethod(t *testing.T) {
	c := NewHTTPCaller("http://example.invalid")
	_, err := c.Call(context.Background(), "TRACE", "/x", Envelope{})
	assert.Error(t, err)
	var transport *TransportError
	assert.False(t, errors.As(err, &transport), "method rejection is not a transport error")
}

func TestResolve(t *testing.T) {
	c := NewHTTPCaller("http://base:8080/")
	assert.Equal(t, "http://base:8080/api/x", c.resolve("/api/x"))
	assert.Equal(t, "http://base:8080/api/x", c.resolve("api/x"))
	assert.Equal(t, "https://other/api", c.resolve("https://other/api"))
}
