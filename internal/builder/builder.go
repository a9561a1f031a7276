// Package builder mutates page documents the way the admin composer does:
// tab and section management, component placement, and validate-then-save
// component edits. Every mutation is all-or-nothing; a failed validation
// leaves the document untouched.
package builder

import (
	"fmt"

	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// Engine edits one page document. It is not safe for concurrent use; the
// caller serializes access per document.
type Engine struct {
	doc *schema.PageDocument
	ids *idgen.Generator
}

// New creates an engine over an existing document.
func New(doc *schema.PageDocument, ids *idgen.Generator) *Engine {
	if ids == nil {
		ids = idgen.New()
	}
	return &Engine{doc: doc, ids: ids}
}

// NewDocument creates an engine over a fresh document with one default tab.
func NewDocument(pageKey, title string, ids *idgen.Generator) *Engine {
	e := New(&schema.PageDocument{PageKey: pageKey, Title: title}, ids)
	e.doc.Tabs = []schema.Tab{{ID: e.ids.NextID(), Title: "Tab 1"}}
	return e
}

// Document returns the document being edited.
func (e *Engine) Document() *schema.PageDocument { return e.doc }

// SetDocument replaces the document wholesale after structural validation.
func (e *Engine) SetDocument(doc *schema.PageDocument) error {
	if issues := schema.ValidateDocument(doc); len(issues) > 0 {
		return fmt.Errorf("document invalid: %s", issues[0].Message)
	}
	e.doc = doc
	return nil
}

// AddTab appends a new empty tab and returns it.
func (e *Engine) AddTab(title string) *schema.Tab {
	if title == "" {
		title = fmt.Sprintf("Tab %d", len(e.doc.Tabs)+1)
	}
	e.doc.Tabs = append(e.doc.Tabs, schema.Tab{ID: e.ids.NextID(), Title: title})
	return &e.doc.Tabs[len(e.doc.Tabs)-1]
}

// RenameTab changes a tab's title.
func (e *Engine) RenameTab(tabID int64, title string) error {
	tab := e.doc.FindTab(tabID)
	if tab == nil {
		return fmt.Errorf("tab %d not found", tabID)
	}
	if title == "" {
		return fmt.Errorf("tab title must not be empty")
	}
	tab.Title = title
	return nil
}

// RemoveTab deletes a tab and everything in it. The last tab cannot be
// removed; a document always renders at least one tab strip entry.
func (e *Engine) RemoveTab(tabID int64) error {
	if len(e.doc.Tabs) <= 1 {
		return fmt.Errorf("cannot remove the last tab")
	}
	for i := range e.doc.Tabs {
		if e.doc.Tabs[i].ID == tabID {
			e.doc.Tabs = append(e.doc.Tabs[:i], e.doc.Tabs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("tab %d not found", tabID)
}

// AddSection appends a section to a tab and returns it. Columns below 1
// default to 2, the composer's usual grid.
func (e *Engine) AddSection(tabID int64, name string, columns int) (*schema.Section, error) {
	tab := e.doc.FindTab(tabID)
	if tab == nil {
		return nil, fmt.Errorf("tab %d not found", tabID)
	}
	if columns < 1 {
		columns = 2
	}
	tab.Sections = append(tab.Sections, schema.Section{
		ID:     e.ids.NextID(),
		Name:   name,
		Layout: schema.SectionLayout{Columns: columns, Gutter: 16},
	})
	return &tab.Sections[len(tab.Sections)-1], nil
}

// UpdateSection changes a section's name and grid parameters.
func (e *Engine) UpdateSection(sectionID int64, name string, layout schema.SectionLayout) error {
	sec := e.doc.FindSection(sectionID)
	if sec == nil {
		return fmt.Errorf("section %d not found", sectionID)
	}
	if layout.Columns < 1 {
		return fmt.Errorf("section columns must be at least 1")
	}
	sec.Name = name
	sec.Layout = layout
	return nil
}

// RemoveSection deletes a section from whichever tab holds it.
func (e *Engine) RemoveSection(sectionID int64) error {
	for i := range e.doc.Tabs {
		tab := &e.doc.Tabs[i]
		for j := range tab.Sections {
			if tab.Sections[j].ID == sectionID {
				tab.Sections = append(tab.Sections[:j], tab.Sections[j+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("section %d not found", sectionID)
}

// AddComponent appends a new component of the given type to a section and
// returns it. The component starts unnamed; SaveComponent applies the
// configured attributes once they validate.
func (e *Engine) AddComponent(sectionID int64, t schema.ComponentType) (*schema.Component, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown component type %q", t)
	}
	sec := e.doc.FindSection(sectionID)
	if sec == nil {
		return nil, fmt.Errorf("section %d not found", sectionID)
	}
	sec.Components = append(sec.Components, schema.Component{ID: e.ids.NextID(), Type: t})
	return &sec.Components[len(sec.Components)-1], nil
}

// SaveComponent validates the edited component and, only when it passes,
// replaces the stored one. Interactive names must stay unique document-wide.
func (e *Engine) SaveComponent(sectionID int64, c schema.Component) error {
	sec := e.doc.FindSection(sectionID)
	if sec == nil {
		return fmt.Errorf("section %d not found", sectionID)
	}
	idx := -1
	for i := range sec.Components {
		if sec.Components[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("component %d not found in section %d", c.ID, sectionID)
	}

	result := schema.ValidateComponent(c)
	if !result.Valid {
		return fmt.Errorf("component invalid: %s", result.First())
	}
	if c.Type.Interactive() && c.Name != "" {
		if other := e.doc.FindComponent(c.Name); other != nil && other.ID != c.ID {
			return fmt.Errorf("component name %q already in use", c.Name)
		}
	}

	sec.Components[idx] = c
	return nil
}

// RemoveComponent deletes a component from its section.
func (e *Engine) RemoveComponent(sectionID, componentID int64) error {
	sec := e.doc.FindSection(sectionID)
	if sec == nil {
		return fmt.Errorf("section %d not found", sectionID)
	}
	for i := range sec.Components {
		if sec.Components[i].ID == componentID {
			sec.Components = append(sec.Components[:i], sec.Components[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("component %d not found in section %d", componentID, sectionID)
}

// MoveComponent repositions a component inside its section. The target
// index is clamped to the component list bounds.
func (e *Engine) MoveComponent(sectionID, componentID int64, toIndex int) error {
	sec := e.doc.FindSection(sectionID)
	if sec == nil {
		return fmt.Errorf("section %d not found", sectionID)
	}
	from := -1
	for i := range sec.Components {
		if sec.Components[i].ID == componentID {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("component %d not found in section %d", componentID, sectionID)
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(sec.Components) {
		toIndex = len(sec.Components) - 1
	}
	if toIndex == from {
		return nil
	}
	c := sec.Components[from]
	sec.Components = append(sec.Components[:from], sec.Components[from+1:]...)
	rest := append([]schema.Component{}, sec.Components[toIndex:]...)
	sec.Components = append(append(sec.Components[:toIndex], c), rest...)
	return nil
}
