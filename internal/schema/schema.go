// Package schema defines the page document model: the JSON shape an
// administrator composes in the builder and the renderer interprets at
// runtime. Tabs contain sections, sections contain an ordered component
// list. Components are a tagged union discriminated by Type.
package schema

import (
	"encoding/json"
	"fmt"
)

// ComponentType discriminates the component union.
type ComponentType string

const (
	TypeField   ComponentType = "field"
	TypeText    ComponentType = "text"
	TypeButton  ComponentType = "button"
	TypeSelect  ComponentType = "select"
	TypeTable   ComponentType = "table"
	TypeCard    ComponentType = "card"
	TypeDivider ComponentType = "divider"
	TypeSpacer  ComponentType = "spacer"
	TypeNewline ComponentType = "newline"
)

// Types lists every component type the builder can place.
var Types = []ComponentType{
	TypeField, TypeText, TypeButton, TypeSelect, TypeTable,
	TypeCard, TypeDivider, TypeSpacer, TypeNewline,
}

// Valid reports whether t is a known component type.
func (t ComponentType) Valid() bool {
	switch t {
	case TypeField, TypeText, TypeButton, TypeSelect, TypeTable,
		TypeCard, TypeDivider, TypeSpacer, TypeNewline:
		return true
	}
	return false
}

// Interactive reports whether components of this type participate in
// bindings (their name keys the binding store).
func (t ComponentType) Interactive() bool {
	switch t {
	case TypeField, TypeSelect, TypeButton, TypeTable:
		return true
	}
	return false
}

// FieldTypes are the input variants a field component may declare.
var FieldTypes = []string{"text", "number", "date", "checkbox", "textarea", "email", "password"}

// ButtonVariants are the presentational button styles.
var ButtonVariants = []string{"primary", "default", "dashed", "text", "link"}

// Button click actions.
const (
	ClickSubmit = "submit"
	ClickReset  = "reset"
	ClickCustom = "custom"
)

// Select data sources.
const (
	SourceManual = "manual"
	SourceAPI    = "api"
)

// PageDocument is the full persisted description of one page.
type PageDocument struct {
	PageKey     string `json:"pageKey"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tabs        []Tab  `json:"tabs"`
}

// Tab groups sections under a named tab strip entry.
type Tab struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is a titled block with a grid layout and an ordered component list.
type Section struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Layout     SectionLayout  `json:"layout"`
	Components []Component    `json:"components"`
}

// SectionLayout governs the section grid: columns is the track count the
// layout grouper packs against, gutter is render-only spacing.
type SectionLayout struct {
	Columns int `json:"columns"`
	Gutter  int `json:"gutter"`
}

// ComponentLayout positions a component inside a grid group. Offset is a
// CSS-grid-style column start (0 means auto-flow), ColSpan defaults to 1.
type ComponentLayout struct {
	Offset  int `json:"offset,omitempty"`
	ColSpan int `json:"colSpan,omitempty"`
}

// APICommon is the common triple every outbound call envelope carries.
type APICommon struct {
	SubChannelID string `json:"subChannelId"`
	SubServiceID string `json:"subServiceId"`
	TraceNo      string `json:"traceNo"`
}

// Complete reports whether all three envelope fields are set.
func (a APICommon) Complete() bool {
	return a.SubChannelID != "" && a.SubServiceID != "" && a.TraceNo != ""
}

// APIConfig is a button's outbound call configuration.
type APIConfig struct {
	URL                string `json:"url"`
	Method             string `json:"method,omitempty"`
	SuccessMessage     string `json:"successMessage,omitempty"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
	ResetFormOnSuccess bool   `json:"resetFormOnSuccess,omitempty"`
}

// FieldMapping maps one key found in a lookup response to a target field.
type FieldMapping struct {
	APIResponseField string `json:"apiResponseField"`
	TargetFieldName  string `json:"targetFieldName"`
}

// OnBlurAPI configures a field's blur-triggered lookup.
type OnBlurAPI struct {
	Enabled       bool           `json:"enabled"`
	URL           string         `json:"url,omitempty"`
	Method        string         `json:"method,omitempty"`
	APICommon     APICommon      `json:"apiCommon,omitempty"`
	FieldMappings []FieldMapping `json:"fieldMappings,omitempty"`
}

// Option is one selectable entry of a manual-mode select.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// TableColumn declares one displayed column. Name, when set, links the
// column to a form field for row-select population.
type TableColumn struct {
	ID        int64  `json:"id,omitempty"`
	Label     string `json:"label"`
	DataIndex string `json:"dataIndex"`
	Name      string `json:"name,omitempty"`
}

// RowActions configures the synthesized leading actions column.
type RowActions struct {
	ShowSelect  bool   `json:"showSelect,omitempty"`
	SelectLabel string `json:"selectLabel,omitempty"`
	ShowDelete  bool   `json:"showDelete,omitempty"`
}

// Enabled reports whether any row action is configured.
func (r RowActions) Enabled() bool { return r.ShowSelect || r.ShowDelete }

// FieldValidation holds optional builder-declared constraints on a field.
type FieldValidation struct {
	Min     *int   `json:"min,omitempty"`
	Max     *int   `json:"max,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Message string `json:"message,omitempty"`
}

// Component is the tagged union over every placeable element. Only the
// attributes matching Type are meaningful; evaluators switch on Type
// exhaustively and never read another variant's fields.
type Component struct {
	ID               int64            `json:"id"`
	Type             ComponentType    `json:"type"`
	Name             string           `json:"name,omitempty"`
	Label            string           `json:"label,omitempty"`
	PermissionString string           `json:"permissionString,omitempty"`
	Layout           *ComponentLayout `json:"layout,omitempty"`

	// field
	FieldType   string           `json:"fieldType,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
	OnBlurAPI   *OnBlurAPI       `json:"onBlurApi,omitempty"`

	// select
	DataSource string   `json:"dataSource,omitempty"`
	Options    []Option `json:"options,omitempty"`

	// button
	Variant   string     `json:"variant,omitempty"`
	OnClick   string     `json:"onClick,omitempty"`
	API       *APIConfig `json:"api,omitempty"`
	APICommon *APICommon `json:"apiCommon,omitempty"`

	// table
	DataURL           string        `json:"dataUrl,omitempty"`
	TableAPICommon    *APICommon    `json:"tableApiCommon,omitempty"`
	Columns           []TableColumn `json:"columns,omitempty"`
	RowActions        *RowActions   `json:"rowActions,omitempty"`
	Pagination        *bool         `json:"pagination,omitempty"`
	TriggerButtonName string        `json:"triggerButtonName,omitempty"`

	// text
	Content    string `json:"content,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"`
	FontWeight int    `json:"fontWeight,omitempty"`
	Color      string `json:"color,omitempty"`

	// card
	Title    string `json:"title,omitempty"`
	Bordered *bool  `json:"bordered,omitempty"`

	// spacer
	Height int `json:"height,omitempty"`
}

// PaginationEnabled reports whether the table paginates client-side.
// Anything but an explicit false enables it, matching the renderer's
// `pagination !== false` check.
func (c Component) PaginationEnabled() bool {
	return c.Pagination == nil || *c.Pagination
}

// Offset returns the grid column start, 0 meaning auto-flow.
func (c Component) Offset() int {
	if c.Layout == nil || c.Layout.Offset < 0 {
		return 0
	}
	return c.Layout.Offset
}

// ColSpan returns the grid span, defaulting to 1.
func (c Component) ColSpan() int {
	if c.Layout == nil || c.Layout.ColSpan < 1 {
		return 1
	}
	return c.Layout.ColSpan
}

// FindTab returns the tab with the given id, or nil.
func (d *PageDocument) FindTab(tabID int64) *Tab {
	for i := range d.Tabs {
		if d.Tabs[i].ID == tabID {
			return &d.Tabs[i]
		}
	}
	return nil
}

// FindSection searches every tab for the section with the given id.
func (d *PageDocument) FindSection(sectionID int64) *Section {
	for i := range d.Tabs {
		for j := range d.Tabs[i].Sections {
			if d.Tabs[i].Sections[j].ID == sectionID {
				return &d.Tabs[i].Sections[j]
			}
		}
	}
	return nil
}

// FindComponent searches the whole document for the named component.
func (d *PageDocument) FindComponent(name string) *Component {
	if name == "" {
		return nil
	}
	for i := range d.Tabs {
		for j := range d.Tabs[i].Sections {
			for k := range d.Tabs[i].Sections[j].Components {
				c := &d.Tabs[i].Sections[j].Components[k]
				if c.Name == name {
					return c
				}
			}
		}
	}
	return nil
}

// TablesTriggeredBy returns every table component, document-wide, whose
// triggerButtonName matches the given button name.
func (d *PageDocument) TablesTriggeredBy(buttonName string) []*Component {
	if buttonName == "" {
		return nil
	}
	var tables []*Component
	for i := range d.Tabs {
		for j := range d.Tabs[i].Sections {
			for k := range d.Tabs[i].Sections[j].Components {
				c := &d.Tabs[i].Sections[j].Components[k]
				if c.Type == TypeTable && c.TriggerButtonName == buttonName {
					tables = append(tables, c)
				}
			}
		}
	}
	return tables
}

// SectionFieldNames returns the names of every field/select component in
// the section, in document order. These are the bindings a section-scoped
// action (submit, reset) operates on.
func (s *Section) SectionFieldNames() []string {
	var names []string
	for _, c := range s.Components {
		if (c.Type == TypeField || c.Type == TypeSelect) && c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// ParseDocument decodes a page document, tolerating the legacy shapes the
// loader has to accept: a document whose `sections` value arrives as a
// JSON-encoded string, and a flat pre-tabs document with top-level sections
// (wrapped into a single default tab).
func ParseDocument(data []byte) (PageDocument, error) {
	var raw struct {
		PageKey     string          `json:"pageKey"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Tabs        []json.RawMessage `json:"tabs"`
		Sections    json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PageDocument{}, fmt.Errorf("parsing page document: %w", err)
	}

	doc := PageDocument{
		PageKey:     raw.PageKey,
		Title:       raw.Title,
		Description: raw.Description,
	}

	for i, rt := range raw.Tabs {
		tab, err := parseTab(rt)
		if err != nil {
			return PageDocument{}, fmt.Errorf("parsing tab %d: %w", i, err)
		}
		doc.Tabs = append(doc.Tabs, tab)
	}

	// Legacy flat document: top-level sections, no tabs.
	if len(doc.Tabs) == 0 && len(raw.Sections) > 0 {
		sections, err := parseSections(raw.Sections)
		if err != nil {
			return PageDocument{}, fmt.Errorf("parsing legacy sections: %w", err)
		}
		doc.Tabs = []Tab{{ID: 1, Title: "Tab 1", Sections: sections}}
	}

	return doc, nil
}

func parseTab(data json.RawMessage) (Tab, error) {
	var raw struct {
		ID       int64           `json:"id"`
		Title    string          `json:"title"`
		Sections json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Tab{}, err
	}
	tab := Tab{ID: raw.ID, Title: raw.Title}
	if len(raw.Sections) > 0 {
		sections, err := parseSections(raw.Sections)
		if err != nil {
			return Tab{}, err
		}
		tab.Sections = sections
	}
	return tab, nil
}

// parseSections accepts either a JSON array or a JSON-encoded string
// containing one (some persisted configs double-encode the section list).
func parseSections(data json.RawMessage) ([]Section, error) {
	var sections []Section
	if err := json.Unmarshal(data, &sections); err == nil {
		return sections, nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("sections is neither array nor string")
	}
	if encoded == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(encoded), &sections); err != nil {
		return nil, fmt.Errorf("decoding string-encoded sections: %w", err)
	}
	return sections, nil
}
