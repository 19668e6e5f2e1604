package react

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type props map[string]any

func (p props) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		left  any
		right any
		want  bool
	}{
		{"eq numeric across types", OpEq, 3, 3.0, true},
		{"eq string", OpEq, "Gold", "Gold", true},
		{"eq nil", OpEq, nil, nil, true},
		{"eq nil vs value", OpEq, nil, 0, false},
		{"neq", OpNeq, 2, 3, true},
		{"gt", OpGt, 5, 3, true},
		{"gt equal", OpGt, 3, 3, false},
		{"gte equal", OpGte, 3, 3, true},
		{"lt", OpLt, "2", 3, true},
		{"lte", OpLte, 4, 3, false},
		{"gt non numeric", OpGt, "abc", 1, false},
		{"contains slice", OpContains, []string{"Knight", "Human"}, "Knight", true},
		{"contains any slice", OpContains, []any{"a", 2}, 2, true},
		{"contains string", OpContains, "Sentinel", "nti", true},
		{"contains miss", OpContains, []string{"Human"}, "Elf", false},
		{"unknown op", Operator("between"), 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.op, tt.left, tt.right))
		})
	}
}

func TestLookupDottedPath(t *testing.T) {
	root := props{
		"power": 4,
		"slot":  props{"modifier": 2},
		"meta":  map[string]any{"tags": []string{"x"}},
	}

	assert.Equal(t, 4, Lookup(root, "power"))
	assert.Equal(t, 2, Lookup(root, "slot.modifier"))
	assert.Equal(t, []string{"x"}, Lookup(root, "meta.tags"))
	assert.Nil(t, Lookup(root, "missing.deeper"))
	assert.Nil(t, Lookup(nil, "power"))
	assert.Nil(t, Lookup(root, "power.value"))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 3, ToInt(3.7))
	assert.Equal(t, 2, ToInt("2"))
	assert.Equal(t, 0, ToInt("x"))
	assert.Equal(t, 1, ToInt(true))
}

func TestSelectionBounds(t *testing.T) {
	min, max := SelectionConfig{Strategy: SelectPlayer}.Bounds()
	assert.Equal(t, 1, min)
	assert.Equal(t, 1, max)

	min, max = SelectionConfig{Min: 2}.Bounds()
	assert.Equal(t, 2, min)
	assert.Equal(t, 2, max)
}
