// Package plugin is the per-node entry point called by a host build pipeline.
package plugin

import (
	"errors"

	"github.com/macropower/nodefields/pkg/fields"
)

// ErrNoSink is returned when a [NodeEnvelope] carries no field-creation action.
var ErrNoSink = errors.New("node envelope has no createNodeField action")

// Actions are the host capabilities handed to the plugin for one node.
type Actions struct {
	CreateNodeField fields.SinkFunc
}

// NodeEnvelope is what the host passes for each created node.
type NodeEnvelope struct {
	Node    fields.Node
	Actions *Actions
	// BoundActionCreators is the older host name for Actions. It is only
	// used when Actions is nil.
	BoundActionCreators *Actions
}

// Sink returns the sink to deliver fields to, or nil if the envelope has none.
func (e NodeEnvelope) Sink() fields.Sink {
	for _, a := range []*Actions{e.Actions, e.BoundActionCreators} {
		if a != nil && a.CreateNodeField != nil {
			return a.CreateNodeField
		}
	}

	return nil
}

// Options are the plugin options configured by the host.
type Options struct {
	Context     fields.Context
	Descriptors []*fields.Descriptor
	// Attacher runs the pipeline. Defaults to [fields.NewAttacher].
	Attacher *fields.Attacher
}

// OnCreateNode attaches the configured fields to a newly created node.
// It does nothing when the descriptor list is nil or empty, even without a sink.
func OnCreateNode(env NodeEnvelope, opts Options) error {
	if len(opts.Descriptors) == 0 {
		return nil
	}

	sink := env.Sink()
	if sink == nil {
		return ErrNoSink
	}

	attacher := opts.Attacher
	if attacher == nil {
		attacher = fields.NewAttacher()
	}

	return attacher.Attach(env.Node, sink, opts.Descriptors, opts.Context) //nolint:wrapcheck // Errors carry the library prefix.
}
