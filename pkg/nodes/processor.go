package nodes

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/log"
	"github.com/macropower/nodefields/pkg/plugin"
	"github.com/macropower/nodefields/pkg/sink"
)

const tracerName = "github.com/macropower/nodefields/pkg/nodes"

// Result is the outcome of processing one node.
type Result struct {
	// Input is the node as decoded. It is never modified.
	Input fields.Node
	// Output is a copy of Input with the attached fields merged in.
	Output fields.Node
	// Calls are the sink calls, in delivery order.
	Calls []fields.ResolvedField
}

// Processor attaches fields to nodes through [plugin.OnCreateNode].
type Processor struct {
	tracer      trace.Tracer
	attacher    *fields.Attacher
	context     fields.Context
	namespace   string
	descriptors []*fields.Descriptor
}

// ProcessorOpt configures a [Processor].
type ProcessorOpt func(*Processor)

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) ProcessorOpt {
	return func(p *Processor) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// WithAttacher sets the [fields.Attacher] used for every node.
func WithAttacher(a *fields.Attacher) ProcessorOpt {
	return func(p *Processor) {
		p.attacher = a
	}
}

// WithContext sets the invocation context passed to every hook.
func WithContext(c fields.Context) ProcessorOpt {
	return func(p *Processor) {
		p.context = c
	}
}

// WithNamespace sets the key attached fields are merged under.
// Defaults to [sink.DefaultNamespace].
func WithNamespace(ns string) ProcessorOpt {
	return func(p *Processor) {
		p.namespace = ns
	}
}

// NewProcessor creates a [Processor] for descriptors.
func NewProcessor(descriptors []*fields.Descriptor, opts ...ProcessorOpt) *Processor {
	p := &Processor{
		descriptors: descriptors,
		namespace:   sink.DefaultNamespace,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	if p.attacher == nil {
		p.attacher = fields.NewAttacher()
	}

	return p
}

// Process attaches fields to a single node.
func (p *Processor) Process(ctx context.Context, node fields.Node) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "process node")
	defer span.End()

	rec := sink.NewRecorder()
	merger := sink.NewMerger(sink.WithNamespace(p.namespace))

	env := plugin.NodeEnvelope{
		Node: node,
		Actions: &plugin.Actions{
			CreateNodeField: func(f fields.ResolvedField) {
				rec.CreateNodeField(f)
				merger.CreateNodeField(f)
			},
		},
	}

	err := plugin.OnCreateNode(env, plugin.Options{
		Context:     p.context,
		Descriptors: p.descriptors,
		Attacher:    p.attacher,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attach fields")

		return nil, err //nolint:wrapcheck // Wrapped by the caller with the node index.
	}

	span.SetAttributes(attribute.Int("fields", rec.Len()))
	log.WithContext(ctx).DebugContext(ctx, "processed node", slog.Int("fields", rec.Len()))

	return &Result{
		Input:  node,
		Output: merger.Apply(node),
		Calls:  rec.Calls(),
	}, nil
}

// ProcessAll processes nodes in order and stops at the first error.
func (p *Processor) ProcessAll(ctx context.Context, nodes []fields.Node) ([]*Result, error) {
	ctx, span := p.tracer.Start(ctx, "process nodes", trace.WithAttributes(
		attribute.Int("nodes", len(nodes)),
		attribute.Int("descriptors", len(p.descriptors)),
	))
	defer span.End()

	results := make([]*Result, 0, len(nodes))
	for i, n := range nodes {
		res, err := p.Process(ctx, n)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "process nodes")

			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		results = append(results, res)
	}

	return results, nil
}
