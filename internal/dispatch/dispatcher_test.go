package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/notify"
	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/schema"
)

type fakeCaller struct {
	body  string
	err   error
	calls int
	last  struct {
		method string
		url    string
		env    apiclient.Envelope
	}
}

func (f *fakeCaller) Call(_ context.Context, method, url string, env apiclient.Envelope) (apiclient.Response, error) {
	f.calls++
	f.last.method, f.last.url, f.last.env = method, url, env
	if f.err != nil {
		return apiclient.Response{}, f.err
	}
	body := f.body
	if body == "" {
		body = `{"data": {}}`
	}
	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		panic(err)
	}
	return apiclient.Response{URL: url, Body: decoded}, nil
}

func formDoc() *schema.PageDocument {
	return &schema.PageDocument{
		PageKey: "loan-intake",
		Title:   "Loan Intake",
		Tabs: []schema.Tab{{ID: 1, Title: "Main", Sections: []schema.Section{
			{ID: 10, Name: "Form", Layout: schema.SectionLayout{Columns: 2}, Components: []schema.Component{
				{ID: 100, Type: schema.TypeField, Name: "custNo", Label: "Customer No", Required: true},
				{ID: 101, Type: schema.TypeField, Name: "custName", Label: "Customer Name", Required: true},
				{ID: 102, Type: schema.TypeField, Name: "note", Label: "Note"},
				{ID: 103, Type: schema.TypeButton, Name: "submitBtn", Label: "Submit",
					OnClick:   schema.ClickSubmit,
					API:       &schema.APIConfig{URL: "/api/submit"},
					APICommon: &schema.APICommon{SubChannelID: "01", SubServiceID: "0001", TraceNo: "T1"}},
				{ID: 104, Type: schema.TypeButton, Name: "clearBtn", Label: "Clear", OnClick: schema.ClickReset},
			}},
			{ID: 11, Name: "Data", Components: []schema.Component{
				{ID: 110, Type: schema.TypeTable, Name: "results", Label: "Results",
					DataURL: "/api/list", TriggerButtonName: "submitBtn",
					Columns: []schema.TableColumn{{Label: "Name", DataIndex: "name", Name: "custName"}}},
			}},
		}}},
	}
}

func newTestDispatcher(caller *fakeCaller) (*Dispatcher, *notify.Recorder) {
	rec := &notify.Recorder{}
	return New(caller, rec, nil, nil), rec
}

// Missing required fields abort the whole submission with one aggregate
// error and no outbound call.
func TestButtonAction_SubmitRequiredValidation(t *testing.T) {
	s := render.NewSession(formDoc(), map[string]any{"custNo": "42"})
	defer s.Close()
	caller := &fakeCaller{}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.ButtonAction(s, "submitBtn"))

	assert.Zero(t, caller.calls)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelError, rec.Notices[0].Level)
	assert.Contains(t, rec.Notices[0].Message, "Customer Name is required")
	assert.NotContains(t, rec.Notices[0].Message, "Customer No")

	// Bindings untouched, no table refresh triggered.
	v, _ := s.Value("custNo")
	assert.Equal(t, "42", v)
	assert.Empty(t, s.StaleTables())
}

func TestButtonAction_SubmitSuccess(t *testing.T) {
	s := render.NewSession(formDoc(), map[string]any{"custNo": "42", "custName": "Ada"})
	defer s.Close()
	caller := &fakeCaller{}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.ButtonAction(s, "submitBtn"))

	require.Equal(t, 1, caller.calls)
	assert.Equal(t, "POST", caller.last.method)
	assert.Equal(t, "/api/submit", caller.last.url)
	assert.Equal(t, "01", caller.last.env.SubChannelID)
	assert.Equal(t, map[string]any{"custNo": "42", "custName": "Ada"}, caller.last.env.Attributes)

	require.NotEmpty(t, rec.Notices)
	assert.Equal(t, notify.LevelSuccess, rec.Notices[0].Level)

	// The table naming this button as trigger went stale, even though it
	// lives in another section.
	assert.Equal(t, []string{"results"}, s.StaleTables())
}

func TestButtonAction_SubmitFailure(t *testing.T) {
	s := render.NewSession(formDoc(), map[string]any{"custNo": "42", "custName": "Ada"})
	defer s.Close()
	caller := &fakeCaller{err: &apiclient.TransportError{URL: "/api/submit", StatusCode: 500}}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.ButtonAction(s, "submitBtn"))

	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelError, rec.Notices[0].Level)
	// No refresh signal on failure.
	assert.Empty(t, s.StaleTables())
}

func TestButtonAction_SuccessMessagesAndReset(t *testing.T) {
	doc := formDoc()
	btn := doc.FindComponent("submitBtn")
	btn.API.SuccessMessage = "Saved!"
	btn.API.ResetFormOnSuccess = true

	s := render.NewSession(doc, map[string]any{"custNo": "42", "custName": "Ada"})
	defer s.Close()
	d, rec := newTestDispatcher(&fakeCaller{})

	require.NoError(t, d.ButtonAction(s, "submitBtn"))
	assert.Equal(t, "Saved!", rec.Notices[0].Message)
	_, ok := s.Value("custNo")
	assert.False(t, ok, "resetFormOnSuccess should clear submitted fields")
}

func TestButtonAction_Reset(t *testing.T) {
	s := render.NewSession(formDoc(), map[string]any{"custNo": "42", "note": "keep?"})
	defer s.Close()
	caller := &fakeCaller{}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.ButtonAction(s, "clearBtn"))

	assert.Zero(t, caller.calls)
	_, ok := s.Value("custNo")
	assert.False(t, ok)
	_, ok = s.Value("note")
	assert.False(t, ok)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelInfo, rec.Notices[0].Level)
}

func TestButtonAction_UnknownButton(t *testing.T) {
	s := render.NewSession(formDoc(), nil)
	defer s.Close()
	d, _ := newTestDispatcher(&fakeCaller{})
	assert.Error(t, d.ButtonAction(s, "ghost"))
	assert.Error(t, d.ButtonAction(s, "custNo"), "non-buttons are rejected")
}

func blurDoc() *schema.PageDocument {
	return &schema.PageDocument{
		PageKey: "p", Title: "P",
		Tabs: []schema.Tab{{ID: 1, Sections: []schema.Section{
			{ID: 10, Components: []schema.Component{
				{ID: 1, Type: schema.TypeField, Name: "custNo", Label: "Customer No",
					OnBlurAPI: &schema.OnBlurAPI{
						Enabled:   true,
						URL:       "/api/lookup",
						APICommon: schema.APICommon{SubChannelID: "01", SubServiceID: "0009", TraceNo: "T2"},
						FieldMappings: []schema.FieldMapping{
							{APIResponseField: "custName", TargetFieldName: "custName"},
							{APIResponseField: "custPhone", TargetFieldName: "custPhone"},
							{APIResponseField: "branch", TargetFieldName: "branch"},
						},
					}},
				{ID: 2, Type: schema.TypeField, Name: "custName", Label: "Name"},
				{ID: 3, Type: schema.TypeField, Name: "custPhone", Label: "Phone"},
				// branch is NOT declared: its mapping must be skipped.
			}},
		}}},
	}
}

func TestFieldBlur_LookupPopulatesMappedFields(t *testing.T) {
	s := render.NewSession(blurDoc(), nil)
	defer s.Close()
	caller := &fakeCaller{body: `{"data": {"attributes": {
		"custName": "Ada", "custPhone": "0801", "branch": "LOS"
	}}}`}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.FieldBlur(s, "custNo", "42"))

	v, _ := s.Value("custNo")
	assert.Equal(t, "42", v)
	v, _ = s.Value("custName")
	assert.Equal(t, "Ada", v)
	v, _ = s.Value("custPhone")
	assert.Equal(t, "0801", v)
	_, ok := s.Value("branch")
	assert.False(t, ok, "undeclared target must stay inert")

	assert.Equal(t, map[string]any{"custNo": "42"}, caller.last.env.Attributes)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, "Populated 2 of 3 fields", rec.Notices[0].Message)
}

// Re-running the same lookup produces the same state: mapping application
// is idempotent.
func TestFieldBlur_Idempotent(t *testing.T) {
	s := render.NewSession(blurDoc(), nil)
	defer s.Close()
	caller := &fakeCaller{body: `{"data": {"custName": "Ada"}}`}
	d, _ := newTestDispatcher(caller)

	require.NoError(t, d.FieldBlur(s, "custNo", "42"))
	first := s.Bindings()
	require.NoError(t, d.FieldBlur(s, "custNo", "42"))
	assert.Equal(t, first, s.Bindings())
}

func TestFieldBlur_ZeroResolvedWarns(t *testing.T) {
	s := render.NewSession(blurDoc(), nil)
	defer s.Close()
	caller := &fakeCaller{body: `{"data": {"attributes": {"unrelated": 1}}}`}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.FieldBlur(s, "custNo", "42"))

	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelWarning, rec.Notices[0].Level)
	_, ok := s.Value("custName")
	assert.False(t, ok)
}

func TestFieldBlur_EmptyValueSkipsLookup(t *testing.T) {
	s := render.NewSession(blurDoc(), nil)
	defer s.Close()
	caller := &fakeCaller{}
	d, _ := newTestDispatcher(caller)

	require.NoError(t, d.FieldBlur(s, "custNo", ""))
	assert.Zero(t, caller.calls)
}

func TestFieldBlur_TransportErrorNotifies(t *testing.T) {
	s := render.NewSession(blurDoc(), nil)
	defer s.Close()
	caller := &fakeCaller{err: errors.New("down")}
	d, rec := newTestDispatcher(caller)

	require.NoError(t, d.FieldBlur(s, "custNo", "42"))
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelError, rec.Notices[0].Level)
	// The typed value itself is kept.
	v, _ := s.Value("custNo")
	assert.Equal(t, "42", v)
}

func rowDoc(withNames bool) *schema.PageDocument {
	name := ""
	if withNames {
		name = "custName"
	}
	return &schema.PageDocument{
		PageKey: "p", Title: "P",
		Tabs: []schema.Tab{{ID: 1, Sections: []schema.Section{
			{ID: 10, Components: []schema.Component{
				{ID: 1, Type: schema.TypeField, Name: "custName", Label: "Name"},
				{ID: 2, Type: schema.TypeTable, Name: "results", Label: "Results", DataURL: "/api/list",
					Columns: []schema.TableColumn{
						{Label: "Name", DataIndex: "name", Name: name},
						{Label: "Age", DataIndex: "age"},
					}},
			}},
		}}},
	}
}

func TestRowAction_PopulatesLinkedColumns(t *testing.T) {
	s := render.NewSession(rowDoc(true), nil)
	defer s.Close()
	d, rec := newTestDispatcher(&fakeCaller{})

	require.NoError(t, d.RowAction(s, "results", map[string]any{"name": "Ada", "age": 36}))

	v, _ := s.Value("custName")
	assert.Equal(t, "Ada", v)
	assert.Empty(t, rec.Notices)
}

// A table with no linked columns warns instead of silently doing nothing.
func TestRowAction_NoLinkedColumnsWarns(t *testing.T) {
	s := render.NewSession(rowDoc(false), nil)
	defer s.Close()
	d, rec := newTestDispatcher(&fakeCaller{})

	require.NoError(t, d.RowAction(s, "results", map[string]any{"name": "Ada"}))

	_, ok := s.Value("custName")
	assert.False(t, ok)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, notify.LevelWarning, rec.Notices[0].Level)
}

func TestRowAction_MissingRecordKeySkipped(t *testing.T) {
	s := render.NewSession(rowDoc(true), nil)
	defer s.Close()
	d, _ := newTestDispatcher(&fakeCaller{})

	require.NoError(t, d.RowAction(s, "results", map[string]any{"age": 36}))
	_, ok := s.Value("custName")
	assert.False(t, ok)
}
