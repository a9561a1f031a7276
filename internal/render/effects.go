package render

import (
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/notify"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// rowListKeys are checked in order when extracting a row list from a table
// response's attributes.
var rowListKeys = []string{"list", "rows", "records", "items", "data"}

// FetchSelectOptions resolves an api-mode select's option list. The fetch is
// fenced: a response landing after a newer fetch began for the same select is
// discarded. Failures clear the loading flag and leave prior options intact.
func FetchSelectOptions(s *Session, client apiclient.Caller, notifier notify.Notifier, c *schema.Component) {
	if c.Type != schema.TypeSelect || c.DataSource != schema.SourceAPI || c.DataURL == "" {
		return
	}
	fence := s.BeginOptionsFetch(c.Name)
	defer s.EndOptionsFetch(c.Name)

	resp, err := client.Call(s.Context(), http.MethodGet, c.DataURL, apiclient.Envelope{})
	if err != nil {
		log.Printf("render: select %q options fetch failed: %v", c.Name, err)
		notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to load options for %s", displayName(c)))
		return
	}

	opts := extractOptions(resp)
	if !s.ApplyOptions(c.Name, fence, opts) {
		log.Printf("render: select %q options superseded, dropping %d entries", c.Name, len(opts))
	}
}

// FetchTableRows resolves a table's data set. The call is a POST carrying the
// table's envelope triple with empty attributes. The result only applies while
// the table's refresh token still matches the one captured at fetch start.
func FetchTableRows(s *Session, client apiclient.Caller, notifier notify.Notifier, ids *idgen.Generator, c *schema.Component) {
	if c.Type != schema.TypeTable || c.DataURL == "" {
		return
	}
	env := apiclient.Envelope{Attributes: map[string]any{}}
	if c.TableAPICommon != nil {
		env.SubChannelID = c.TableAPICommon.SubChannelID
		env.SubServiceID = c.TableAPICommon.SubServiceID
		env.TraceNo = c.TableAPICommon.TraceNo
	}
	if env.TraceNo == "" && ids != nil {
		env.TraceNo = ids.TraceNo()
	}

	token := s.BeginTableFetch(c.Name)
	defer s.EndTableFetch(c.Name)

	resp, err := client.Call(s.Context(), http.MethodPost, c.DataURL, env)
	if err != nil {
		log.Printf("render: table %q fetch failed: %v", c.Name, err)
		notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to load data for %s", displayName(c)))
		return
	}

	rows := extractRows(resp)
	if !s.ApplyTableRows(c.Name, token, rows) {
		log.Printf("render: table %q rows superseded, dropping %d rows", c.Name, len(rows))
	}
}

func displayName(c *schema.Component) string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// extractOptions pulls a {label, value} list out of the response. The list
// may live directly in the attributes, under one of the well-known list keys,
// or the body may itself be the array.
func extractOptions(resp apiclient.Response) []schema.Option {
	arr := findArray(resp)
	opts := make([]schema.Option, 0, len(arr))
	for _, entry := range arr {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		value, hasValue := m["value"]
		if label == "" || !hasValue || value == nil {
			continue
		}
		opts = append(opts, schema.Option{Label: label, Value: value})
	}
	return opts
}

// extractRows pulls the row list out of a table response. Entries that are
// not objects are dropped.
func extractRows(resp apiclient.Response) []map[string]any {
	arr := findArray(resp)
	rows := make([]map[string]any, 0, len(arr))
	for _, entry := range arr {
		if m, ok := entry.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

// findArray locates the payload array: the body itself, a well-known key in
// the response attributes, or failing that the first array value found under
// the attributes' keys in sorted order.
func findArray(resp apiclient.Response) []any {
	if arr, ok := resp.Body.([]any); ok {
		return arr
	}
	attrs, ok := resp.Attributes()
	if !ok {
		return nil
	}
	for _, key := range rowListKeys {
		if arr, ok := attrs[key].([]any); ok {
			return arr
		}
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if arr, ok := attrs[k].([]any); ok {
			return arr
		}
	}
	return nil
}
