package sink_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/sink"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	node := fields.Node{"a": 1}
	rec := sink.NewRecorder()

	rec.CreateNodeField(fields.ResolvedField{Node: node, Name: "x", Value: 1})
	rec.CreateNodeField(fields.ResolvedField{Node: node, Name: "x", Value: 2})

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].Value)
	assert.Equal(t, 2, calls[1].Value)

	// Calls returns a copy.
	calls[0].Name = "changed"
	assert.Equal(t, "x", rec.Calls()[0].Name)

	rec.Reset()
	assert.Zero(t, rec.Len())
}

func TestMerger_Apply(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		node  fields.Node
		opts  []sink.MergerOpt
		calls []fields.ResolvedField
		want  fields.Node
	}{
		"no fields": {
			node: fields.Node{"a": 1},
			want: fields.Node{"a": 1},
		},
		"last write wins": {
			node: fields.Node{"a": 1},
			calls: []fields.ResolvedField{
				{Name: "slug", Value: "/one"},
				{Name: "slug", Value: "/two"},
			},
			want: fields.Node{"a": 1, "fields": map[string]any{"slug": "/two"}},
		},
		"keeps existing namespace": {
			node: fields.Node{"fields": map[string]any{"old": true}},
			calls: []fields.ResolvedField{
				{Name: "new", Value: false},
			},
			want: fields.Node{"fields": map[string]any{"old": true, "new": false}},
		},
		"custom namespace": {
			node:  fields.Node{},
			opts:  []sink.MergerOpt{sink.WithNamespace("derived")},
			calls: []fields.ResolvedField{{Name: "n", Value: 1}},
			want:  fields.Node{"derived": map[string]any{"n": 1}},
		},
		"nil node": {
			calls: []fields.ResolvedField{{Name: "n", Value: 1}},
			want:  fields.Node{"fields": map[string]any{"n": 1}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := sink.NewMerger(tc.opts...)
			for _, c := range tc.calls {
				m.CreateNodeField(c)
			}

			before := fields.Node{}
			for k, v := range tc.node {
				before[k] = v
			}

			got := m.Apply(tc.node)
			assert.Equal(t, tc.want, got)

			if tc.node != nil {
				assert.Equal(t, before, tc.node, "input node must not change")
			}
		})
	}
}
