package apiclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respFrom(t *testing.T, raw string) Response {
	t.Helper()
	var body any
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return Response{URL: "test", Body: body}
}

func TestAttributes_NestedShape(t *testing.T) {
	r := respFrom(t, `{"data": {"attributes": {"custName": "Ada", "custAge": 36}}}`)
	attrs, ok := r.Attributes()
	require.True(t, ok)
	assert.Equal(t, "Ada", attrs["custName"])
}

func TestAttributes_FlatShape(t *testing.T) {
	r := respFrom(t, `{"data": {"custName": "Ada"}}`)
	attrs, ok := r.Attributes()
	require.True(t, ok)
	assert.Equal(t, "Ada", attrs["custName"])
}

func TestAttributes_NoData(t *testing.T) {
	r := respFrom(t, `{"result": "ok"}`)
	_, ok := r.Attributes()
	assert.False(t, ok)

	_, ok = respFrom(t, `[1, 2, 3]`).Attributes()
	assert.False(t, ok)
}

func TestFindField_DeepSearch(t *testing.T) {
	r := respFrom(t, `{
		"data": {
			"attributes": {
				"customer": {"custName": "Ada", "address": {"city": "Lagos"}},
				"accounts": [{"accNo": "001"}, {"accNo": "002"}]
			}
		}
	}`)

	v, ok := r.FindField("custName")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	v, ok = r.FindField("city")
	require.True(t, ok)
	assert.Equal(t, "Lagos", v)

	// Arrays are searched in order; the first match wins.
	v, ok = r.FindField("accNo")
	require.True(t, ok)
	assert.Equal(t, "001", v)

	_, ok = r.FindField("missing")
	assert.False(t, ok)
}

// A direct member beats anything found by descending into children.
func TestFindField_ShallowWins(t *testing.T) {
	r := respFrom(t, `{"status": "outer", "data": {"inner": {"status": "inner"}}}`)
	v, ok := r.FindField("status")
	require.True(t, ok)
	assert.Equal(t, "outer", v)
}

// Null values are skipped, so a deeper non-null match is still found.
func TestFindField_NullSkipped(t *testing.T) {
	r := respFrom(t, `{"custName": null, "data": {"custName": "Ada"}}`)
	v, ok := r.FindField("custName")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)
}
