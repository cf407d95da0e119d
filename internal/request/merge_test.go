package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFilters(t *testing.T) {
	tests := []struct {
		name string
		a, b Values
		want Values
	}{
		{
			name: "disjoint keys are copied",
			a:    Values{"name": "x"},
			b:    Values{"seq": 1},
			want: Values{"name": "x", "seq": 1},
		},
		{
			name: "lists intersect",
			a:    Values{"status": []any{1, 2, 3}},
			b:    Values{"status": []any{3, 2, 9}},
			want: Values{"status": []any{3, 2}},
		},
		{
			name: "single survivor is unboxed",
			a:    Values{"status": []any{1, 2}},
			b:    Values{"status": []any{2, 5}},
			want: Values{"status": 2},
		},
		{
			name: "empty intersection is nil",
			a:    Values{"status": "a"},
			b:    Values{"status": []any{"b"}},
			want: Values{"status": nil},
		},
		{
			name: "right nil unboxes left",
			a:    Values{"status": []any{"a"}},
			b:    Values{"status": nil},
			want: Values{"status": "a"},
		},
		{
			name: "falsy left takes right",
			a:    Values{"status": ""},
			b:    Values{"status": []any{"a", "b"}},
			want: Values{"status": []any{"a", "b"}},
		},
		{
			name: "types compare strictly",
			a:    Values{"status": []any{1}},
			b:    Values{"status": []any{"1"}},
			want: Values{"status": nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeFilters(tt.a, tt.b))
		})
	}
}
