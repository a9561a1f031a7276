// Package layout partitions a section's flat component list into rendering
// groups: full-width singletons, button clusters, and grid-packed runs.
// Grouping is a single left-to-right scan and must reproduce document order
// exactly: no reordering, no lookahead beyond the contiguous run.
package layout

import "github.com/matthewbaird/pageforge/internal/schema"

// GroupKind classifies one render group.
type GroupKind string

const (
	// GroupFullWidth holds exactly one divider, table, or newline.
	GroupFullWidth GroupKind = "full_width"
	// GroupButtons holds a maximal consecutive run of buttons.
	GroupButtons GroupKind = "buttons"
	// GroupGrid holds a maximal consecutive run of everything else,
	// packed against the section's column track count.
	GroupGrid GroupKind = "grid"
)

// RenderGroup is one ordered partition of a section's component list.
type RenderGroup struct {
	Kind       GroupKind          `json:"kind"`
	Components []schema.Component `json:"components"`
}

// classify maps a component type to the group kind it belongs to.
func classify(t schema.ComponentType) GroupKind {
	switch t {
	case schema.TypeDivider, schema.TypeTable, schema.TypeNewline:
		return GroupFullWidth
	case schema.TypeButton:
		return GroupButtons
	default:
		return GroupGrid
	}
}

// Group partitions components preserving order. A new group starts whenever
// the current component's classification differs from the previous one's;
// full-width components always stand alone, button and grid groups absorb
// all immediately-following components of the same classification.
func Group(components []schema.Component) []RenderGroup {
	var groups []RenderGroup
	for _, c := range components {
		kind := classify(c.Type)
		if kind == GroupFullWidth {
			groups = append(groups, RenderGroup{Kind: kind, Components: []schema.Component{c}})
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].Kind == kind {
			groups[n-1].Components = append(groups[n-1].Components, c)
			continue
		}
		groups = append(groups, RenderGroup{Kind: kind, Components: []schema.Component{c}})
	}
	return groups
}

// Flatten concatenates group contents back into a single ordered list.
// For any input, Flatten(Group(in)) must equal in.
func Flatten(groups []RenderGroup) []schema.Component {
	var out []schema.Component
	for _, g := range groups {
		out = append(out, g.Components...)
	}
	return out
}

// GridPlacement positions one component against a section's track count.
type GridPlacement struct {
	// ColumnStart is the 1-based grid column start; 0 means auto-flow.
	ColumnStart int `json:"columnStart,omitempty"`
	ColSpan     int `json:"colSpan"`
	FullWidth   bool `json:"fullWidth,omitempty"`
}

// Place computes the grid placement for a component inside a grid group.
// Offset is CSS-grid style: offset 0 auto-flows, offset n starts at column
// n+1. Spans are clamped to the section's column count.
func Place(c schema.Component, columns int) GridPlacement {
	if columns < 1 {
		columns = 1
	}
	if classify(c.Type) == GroupFullWidth {
		return GridPlacement{ColSpan: columns, FullWidth: true}
	}
	span := c.ColSpan()
	if span > columns {
		span = columns
	}
	p := GridPlacement{ColSpan: span}
	if off := c.Offset(); off > 0 && off < columns {
		p.ColumnStart = off + 1
		if p.ColumnStart+span-1 > columns {
			p.ColSpan = columns - off
		}
	}
	return p
}
