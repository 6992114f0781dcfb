package fields

import (
	"fmt"
	"log/slog"
)

// Attacher attaches fields to nodes. It holds no per-call state, so a single
// Attacher can be reused for every node of a build.
type Attacher struct {
	validator Validator
	logger    *slog.Logger
	resolver  Resolver
}

// AttacherOpt is a functional option for configuring an [Attacher].
type AttacherOpt func(*Attacher)

// WithValidator sets the [Validator] run before matching.
// A nil Validator disables validation.
func WithValidator(v Validator) AttacherOpt {
	return func(a *Attacher) {
		a.validator = v
	}
}

// WithRequiredKey enables the required-field policy for nodes whose key
// property is true.
func WithRequiredKey(key string) AttacherOpt {
	return func(a *Attacher) {
		a.resolver.RequiredKey = key
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) AttacherOpt {
	return func(a *Attacher) {
		a.logger = logger
	}
}

// NewAttacher creates a new [Attacher]. By default it validates descriptors
// with [StructuralValidator] and logs to [slog.Default].
func NewAttacher(opts ...AttacherOpt) *Attacher {
	a := &Attacher{
		validator: StructuralValidator{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Attach validates descriptors, selects those matching node, and delivers
// every field of every match to sink, in descriptor order and then field
// order. It stops at the first error; nothing is delivered after it.
func (a *Attacher) Attach(node Node, sink Sink, descriptors []*Descriptor, ctx Context) error {
	if sink == nil {
		return ErrNilSink
	}

	if a.validator != nil {
		err := a.validator.Validate(descriptors)
		if err != nil {
			return err //nolint:wrapcheck // Validation errors carry their own path.
		}
	}

	if ctx == nil {
		ctx = Context{}
	}

	applicable, err := selectApplicable(node, ctx, descriptors)
	if err != nil {
		return err
	}
	if len(applicable) == 0 {
		a.logger.Debug("no applicable descriptors", slog.Int("descriptors", len(descriptors)))

		return nil
	}

	a.logger.Debug("attaching fields",
		slog.Int("descriptors", len(descriptors)),
		slog.Int("applicable", len(applicable)),
	)

	for _, i := range applicable {
		for _, r := range descriptors[i].Fields {
			err := a.attachField(node, sink, ctx, r)
			if err != nil {
				return fmt.Errorf("descriptor %d: %w", i, err)
			}
		}
	}

	return nil
}

func (a *Attacher) attachField(node Node, sink Sink, ctx Context, r *Rule) error {
	value, err := a.resolver.Resolve(node, ctx, r)
	if err != nil {
		return err
	}

	if r.Setter != nil {
		a.logger.Debug("delivering field via setter", slog.String("field", r.label()))

		err := r.Setter(value, node, ctx, sink)
		if err != nil {
			return hookError(r, "setter", err)
		}

		return nil
	}

	a.logger.Debug("delivering field", slog.String("field", r.Name))

	sink.CreateNodeField(ResolvedField{
		Node:  node,
		Name:  r.Name,
		Value: value,
	})

	return nil
}

// Attach attaches fields to node using an [Attacher] with default options.
func Attach(node Node, sink Sink, descriptors []*Descriptor, ctx Context) error {
	return NewAttacher().Attach(node, sink, descriptors, ctx)
}
