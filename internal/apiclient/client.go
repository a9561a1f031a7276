// Package apiclient is the outbound HTTP collaborator. Every core-initiated
// call uses the same request envelope (subChannelId, subServiceId, traceNo,
// attributes) and the response helpers tolerate both the nested
// .data.attributes.* and the flat .data.* success shapes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Envelope is the uniform request body for core-initiated calls.
type Envelope struct {
	SubChannelID string         `json:"subChannelId"`
	SubServiceID string         `json:"subServiceId"`
	TraceNo      string         `json:"traceNo"`
	Attributes   map[string]any `json:"attributes"`
}

// TransportError is a network failure or a non-2xx response. The original
// cause is logged by the caller; the payload is never retried here.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calling %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("calling %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is a success response whose body is missing the
// expected structure. Treated as zero resolved fields, not a hard failure.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Caller issues envelope calls. Implementations must honor context
// cancellation so an unmounted component's in-flight request is abandoned.
type Caller interface {
	Call(ctx context.Context, method, url string, env Envelope) (Response, error)
}

// HTTPCaller implements Caller on net/http.
type HTTPCaller struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCaller creates a caller with a 20s timeout, matching the upstream
// transport configuration.
func NewHTTPCaller(baseURL string) *HTTPCaller {
	return &HTTPCaller{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Call sends the envelope as JSON. GET and DELETE send no body (the
// envelope is still required by the signature for uniformity but has
// nowhere to go on those methods).
func (c *HTTPCaller) Call(ctx context.Context, method, url string, env Envelope) (Response, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodPost
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return Response{}, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	full := c.resolve(url)

	var body io.Reader
	if method != http.MethodGet && method != http.MethodDelete {
		if env.Attributes == nil {
			env.Attributes = map[string]any{}
		}
		data, err := json.Marshal(env)
		if err != nil {
			return Response{}, fmt.Errorf("encoding envelope: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return Response{}, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Response{}, &TransportError{URL: full, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &TransportError{URL: full, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &TransportError{URL: full, Err: err}
	}

	var doc any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Response{}, &MalformedResponseError{URL: full, Err: err}
		}
	}
	return Response{URL: full, Body: doc}, nil
}

func (c *HTTPCaller) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(url, "/")
}
