package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pageforge/internal/schema"
)

func comp(id int64, t schema.ComponentType) schema.Component {
	return schema.Component{ID: id, Type: t}
}

func kinds(groups []RenderGroup) []GroupKind {
	out := make([]GroupKind, len(groups))
	for i, g := range groups {
		out[i] = g.Kind
	}
	return out
}

func TestGroup_Partitioning(t *testing.T) {
	in := []schema.Component{
		comp(1, schema.TypeField),
		comp(2, schema.TypeField),
		comp(3, schema.TypeDivider),
		comp(4, schema.TypeSelect),
		comp(5, schema.TypeButton),
		comp(6, schema.TypeButton),
		comp(7, schema.TypeTable),
		comp(8, schema.TypeText),
	}
	groups := Group(in)

	require.Len(t, groups, 6)
	assert.Equal(t, []GroupKind{
		GroupGrid, GroupFullWidth, GroupGrid, GroupButtons, GroupFullWidth, GroupGrid,
	}, kinds(groups))
	assert.Len(t, groups[0].Components, 2)
	assert.Len(t, groups[3].Components, 2)
}

func TestGroup_FullWidthAlwaysAlone(t *testing.T) {
	in := []schema.Component{
		comp(1, schema.TypeTable),
		comp(2, schema.TypeTable),
		comp(3, schema.TypeNewline),
	}
	groups := Group(in)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Equal(t, GroupFullWidth, g.Kind)
		assert.Len(t, g.Components, 1)
	}
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, Group(nil))
	assert.Empty(t, Group([]schema.Component{}))
}

// Grouping must preserve order and lose nothing: flattening the groups
// reproduces the input exactly.
func TestFlatten_Identity(t *testing.T) {
	inputs := [][]schema.Component{
		nil,
		{comp(1, schema.TypeField)},
		{comp(1, schema.TypeButton), comp(2, schema.TypeButton)},
		{
			comp(1, schema.TypeDivider),
			comp(2, schema.TypeField),
			comp(3, schema.TypeSelect),
			comp(4, schema.TypeNewline),
			comp(5, schema.TypeButton),
			comp(6, schema.TypeCard),
			comp(7, schema.TypeTable),
			comp(8, schema.TypeSpacer),
		},
	}
	for _, in := range inputs {
		assert.Equal(t, in, Flatten(Group(in)))
	}
}

func TestPlace(t *testing.T) {
	withLayout := func(t schema.ComponentType, offset, span int) schema.Component {
		return schema.Component{Type: t, Layout: &schema.ComponentLayout{Offset: offset, ColSpan: span}}
	}

	tests := []struct {
		name    string
		c       schema.Component
		columns int
		want    GridPlacement
	}{
		{"default span auto-flow", comp(1, schema.TypeField), 3, GridPlacement{ColSpan: 1}},
		{"explicit span", withLayout(schema.TypeField, 0, 2), 3, GridPlacement{ColSpan: 2}},
		{"span clamped to columns", withLayout(schema.TypeField, 0, 5), 3, GridPlacement{ColSpan: 3}},
		{"offset shifts start", withLayout(schema.TypeField, 1, 1), 3, GridPlacement{ColumnStart: 2, ColSpan: 1}},
		{"offset beyond columns ignored", withLayout(schema.TypeField, 4, 1), 3, GridPlacement{ColSpan: 1}},
		{"offset plus span clipped", withLayout(schema.TypeField, 2, 3), 4, GridPlacement{ColumnStart: 3, ColSpan: 2}},
		{"full width table spans all", comp(1, schema.TypeTable), 3, GridPlacement{ColSpan: 3, FullWidth: true}},
		{"zero columns treated as one", comp(1, schema.TypeField), 0, GridPlacement{ColSpan: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Place(tt.c, tt.columns))
		})
	}
}
