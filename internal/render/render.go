package render

import (
	"github.com/matthewbaird/pageforge/internal/layout"
	"github.com/matthewbaird/pageforge/internal/permission"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// pageSizeOptions are the client-side page sizes a paginated table offers.
var pageSizeOptions = []int{10, 20, 50, 100}

// defaultPageSize is the initial table page size.
const defaultPageSize = 10

// maskedValue replaces a bound value when the component's permission code
// sets the mask flag.
const maskedValue = "••••••"

// Page is the fully evaluated render tree for one document.
type Page struct {
	PageKey     string    `json:"pageKey"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tabs        []TabView `json:"tabs"`
}

// TabView is one evaluated tab.
type TabView struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Sections []SectionView `json:"sections"`
}

// SectionView is one evaluated section: its grid parameters and the
// ordered render groups of its visible components.
type SectionView struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Columns int         `json:"columns"`
	Gutter  int         `json:"gutter"`
	Groups  []GroupView `json:"groups"`
}

// GroupView is one render group with its evaluated nodes.
type GroupView struct {
	Kind  layout.GroupKind `json:"kind"`
	Nodes []Node           `json:"nodes"`
}

// ColumnView is one displayed table column. Actions marks the synthesized
// leading column.
type ColumnView struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	DataIndex   string `json:"dataIndex,omitempty"`
	Actions     bool   `json:"actions,omitempty"`
	ShowSelect  bool   `json:"showSelect,omitempty"`
	SelectLabel string `json:"selectLabel,omitempty"`
	ShowDelete  bool   `json:"showDelete,omitempty"`
}

// Node is one interactive component as presented: what the user sees and
// which events it may emit. Interactive nodes respect Disabled by keeping
// the value visible but rejecting input.
type Node struct {
	ID       int64                `json:"id"`
	Type     schema.ComponentType `json:"type"`
	Name     string               `json:"name,omitempty"`
	Label    string               `json:"label,omitempty"`
	Value    any                  `json:"value,omitempty"`
	Disabled bool                 `json:"disabled,omitempty"`
	Masked   bool                 `json:"masked,omitempty"`
	Required bool                 `json:"required,omitempty"`

	Placement layout.GridPlacement `json:"placement"`

	// field
	FieldType   string `json:"fieldType,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	LookupOnBlur bool  `json:"lookupOnBlur,omitempty"`

	// select
	Options []schema.Option `json:"options,omitempty"`
	Loading bool            `json:"loading,omitempty"`

	// button
	Variant string `json:"variant,omitempty"`
	OnClick string `json:"onClick,omitempty"`

	// table
	Columns         []ColumnView     `json:"columns,omitempty"`
	Rows            []map[string]any `json:"rows,omitempty"`
	Pagination      bool             `json:"pagination,omitempty"`
	PageSize        int              `json:"pageSize,omitempty"`
	PageSizeOptions []int            `json:"pageSizeOptions,omitempty"`
	RefreshToken    uint64           `json:"refreshToken,omitempty"`

	// text
	Content    string `json:"content,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"`
	FontWeight int    `json:"fontWeight,omitempty"`
	Color      string `json:"color,omitempty"`

	// card
	Title    string `json:"title,omitempty"`
	Bordered bool   `json:"bordered,omitempty"`

	// spacer
	Height int `json:"height,omitempty"`
}

// writable reports whether a component currently accepts user input.
// Permissions are re-read on every call; they are never cached.
func writable(c *schema.Component) bool {
	eval := permission.Evaluate(c.PermissionString)
	return eval.Visible && !eval.Disabled
}

// Render evaluates the whole document against the session state.
// Components whose permission code denies reading are omitted before
// grouping, so they occupy no grid slot and register no binding.
func Render(s *Session) *Page {
	page := &Page{
		PageKey:     s.Doc.PageKey,
		Title:       s.Doc.Title,
		Description: s.Doc.Description,
	}
	for i := range s.Doc.Tabs {
		tab := &s.Doc.Tabs[i]
		tv := TabView{ID: tab.ID, Title: tab.Title}
		for j := range tab.Sections {
			tv.Sections = append(tv.Sections, renderSection(s, &tab.Sections[j]))
		}
		page.Tabs = append(page.Tabs, tv)
	}
	return page
}

// RenderSection evaluates a single section.
func RenderSection(s *Session, sectionID int64) (SectionView, bool) {
	sec := s.Doc.FindSection(sectionID)
	if sec == nil {
		return SectionView{}, false
	}
	return renderSection(s, sec), true
}

func renderSection(s *Session, sec *schema.Section) SectionView {
	columns := sec.Layout.Columns
	if columns < 1 {
		columns = 1
	}
	view := SectionView{
		ID:      sec.ID,
		Name:    sec.Name,
		Columns: columns,
		Gutter:  sec.Layout.Gutter,
	}

	visible := make([]schema.Component, 0, len(sec.Components))
	for _, c := range sec.Components {
		if permission.Evaluate(c.PermissionString).Visible {
			visible = append(visible, c)
		}
	}

	for _, group := range layout.Group(visible) {
		gv := GroupView{Kind: group.Kind}
		for i := range group.Components {
			gv.Nodes = append(gv.Nodes, evaluate(s, &group.Components[i], columns))
		}
		view.Groups = append(view.Groups, gv)
	}
	return view
}

// evaluate produces the node for one visible component. Behavior differs
// per variant, matched exhaustively.
func evaluate(s *Session, c *schema.Component, columns int) Node {
	eval := permission.Evaluate(c.PermissionString)
	n := Node{
		ID:        c.ID,
		Type:      c.Type,
		Name:      c.Name,
		Label:     c.Label,
		Disabled:  eval.Disabled,
		Masked:    eval.Permissions.CanMask,
		Placement: layout.Place(*c, columns),
	}

	switch c.Type {
	case schema.TypeField:
		n.FieldType = c.FieldType
		n.Placeholder = c.Placeholder
		n.Required = c.Required
		n.LookupOnBlur = c.OnBlurAPI != nil && c.OnBlurAPI.Enabled && c.OnBlurAPI.URL != ""
		n.Value = boundValue(s, c.Name, n.Masked)

	case schema.TypeSelect:
		n.Required = c.Required
		n.Placeholder = c.Placeholder
		n.Value = boundValue(s, c.Name, n.Masked)
		if c.DataSource == schema.SourceAPI {
			n.Options = s.Options(c.Name)
			n.Loading = s.selectIsLoading(c.Name)
		} else {
			n.Options = FilterOptions(c.Options)
		}

	case schema.TypeButton:
		n.Variant = c.Variant
		n.OnClick = c.OnClick

	case schema.TypeTable:
		n.Columns = tableColumns(c)
		n.Rows = s.TableRows(c.Name)
		n.Loading = s.tableIsLoading(c.Name)
		n.RefreshToken = s.RefreshToken(c.Name)
		if c.PaginationEnabled() {
			n.Pagination = true
			n.PageSize = defaultPageSize
			n.PageSizeOptions = pageSizeOptions
		}

	case schema.TypeText:
		n.Content = c.Content
		n.FontSize = c.FontSize
		n.FontWeight = c.FontWeight
		n.Color = c.Color

	case schema.TypeCard:
		n.Title = c.Title
		n.Bordered = c.Bordered == nil || *c.Bordered

	case schema.TypeSpacer:
		n.Height = c.Height
		if n.Height == 0 {
			n.Height = 16
		}

	case schema.TypeDivider, schema.TypeNewline:
		// layout-only, nothing to evaluate
	}

	return n
}

// boundValue reads a component's own binding. Masked components keep their
// presence visible while hiding the content.
func boundValue(s *Session, name string, masked bool) any {
	v, ok := s.Value(name)
	if !ok {
		return nil
	}
	if masked {
		return maskedValue
	}
	return v
}

// FilterOptions drops manual-mode entries missing either label or value
// before render.
func FilterOptions(opts []schema.Option) []schema.Option {
	out := make([]schema.Option, 0, len(opts))
	for _, o := range opts {
		if o.Label == "" || o.Value == nil {
			continue
		}
		out = append(out, o)
	}
	return out
}

// tableColumns builds the displayed columns: a synthesized leading Actions
// column when any row action is configured, then the declared columns.
func tableColumns(c *schema.Component) []ColumnView {
	var cols []ColumnView
	if c.RowActions != nil && c.RowActions.Enabled() {
		label := c.RowActions.SelectLabel
		if label == "" {
			label = "Select"
		}
		cols = append(cols, ColumnView{
			Key:         "actions",
			Title:       "Actions",
			Actions:     true,
			ShowSelect:  c.RowActions.ShowSelect,
			SelectLabel: label,
			ShowDelete:  c.RowActions.ShowDelete,
		})
	}
	for _, col := range c.Columns {
		cols = append(cols, ColumnView{
			Key:       col.DataIndex,
			Title:     col.Label,
			DataIndex: col.DataIndex,
		})
	}
	return cols
}
