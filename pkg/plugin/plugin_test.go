package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/plugin"
	"github.com/macropower/nodefields/pkg/sink"
)

func always(fields.Node, fields.Context) (bool, error) { return true, nil }

func actions(rec *sink.Recorder) *plugin.Actions {
	return &plugin.Actions{CreateNodeField: rec.CreateNodeField}
}

func TestOnCreateNode(t *testing.T) {
	t.Parallel()

	descriptors := []*fields.Descriptor{
		{Predicate: always, Fields: []*fields.Rule{{Name: "title"}}},
	}
	node := fields.Node{"title": "Hello"}

	tcs := map[string]struct {
		env         func(current, legacy *sink.Recorder) plugin.NodeEnvelope
		descriptors []*fields.Descriptor
		wantErr     error
		wantCurrent int
		wantLegacy  int
	}{
		"actions": {
			env: func(current, _ *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node, Actions: actions(current)}
			},
			descriptors: descriptors,
			wantCurrent: 1,
		},
		"bound action creators": {
			env: func(_, legacy *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node, BoundActionCreators: actions(legacy)}
			},
			descriptors: descriptors,
			wantLegacy:  1,
		},
		"actions take precedence": {
			env: func(current, legacy *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node, Actions: actions(current), BoundActionCreators: actions(legacy)}
			},
			descriptors: descriptors,
			wantCurrent: 1,
		},
		"empty actions fall back": {
			env: func(_, legacy *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node, Actions: &plugin.Actions{}, BoundActionCreators: actions(legacy)}
			},
			descriptors: descriptors,
			wantLegacy:  1,
		},
		"no descriptors is a no-op": {
			env: func(_, _ *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node}
			},
		},
		"empty descriptors is a no-op": {
			env: func(_, _ *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node}
			},
			descriptors: []*fields.Descriptor{},
		},
		"no sink": {
			env: func(_, _ *sink.Recorder) plugin.NodeEnvelope {
				return plugin.NodeEnvelope{Node: node}
			},
			descriptors: descriptors,
			wantErr:     plugin.ErrNoSink,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			current, legacy := sink.NewRecorder(), sink.NewRecorder()

			err := plugin.OnCreateNode(tc.env(current, legacy), plugin.Options{Descriptors: tc.descriptors})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tc.wantCurrent, current.Len())
			assert.Equal(t, tc.wantLegacy, legacy.Len())
		})
	}
}

func TestOnCreateNode_Attacher(t *testing.T) {
	t.Parallel()

	rec := sink.NewRecorder()

	err := plugin.OnCreateNode(
		plugin.NodeEnvelope{Node: fields.Node{"strict": true}, Actions: actions(rec)},
		plugin.Options{
			Descriptors: []*fields.Descriptor{{Predicate: always, Fields: []*fields.Rule{{Name: "title"}}}},
			Attacher:    fields.NewAttacher(fields.WithRequiredKey("strict")),
		},
	)

	var requiredErr *fields.RequiredFieldError
	require.ErrorAs(t, err, &requiredErr)
	assert.Zero(t, rec.Len())
}

func TestOnCreateNode_Context(t *testing.T) {
	t.Parallel()

	rec := sink.NewRecorder()
	getter := func(_ fields.Node, ctx fields.Context) (any, error) { return ctx["site"], nil }

	err := plugin.OnCreateNode(
		plugin.NodeEnvelope{Node: fields.Node{}, Actions: actions(rec)},
		plugin.Options{
			Context:     fields.Context{"site": "example.com"},
			Descriptors: []*fields.Descriptor{{Predicate: always, Fields: []*fields.Rule{{Name: "site", Getter: getter}}}},
		},
	)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "example.com", rec.Calls()[0].Value)
}
