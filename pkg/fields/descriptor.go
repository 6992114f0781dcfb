package fields

type (
	// Node is a content node supplied by the build pipeline.
	// The engine only reads it.
	Node map[string]any

	// Context is read-only auxiliary data passed to every hook during a
	// single invocation.
	Context map[string]any
)

// Get returns the property stored under name, and whether it is present.
// A property holding nil is reported as absent.
func (n Node) Get(name string) (any, bool) {
	if name == "" {
		return nil, false
	}

	v, ok := n[name]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

type (
	// PredicateFunc reports whether a [Descriptor] applies to a node.
	PredicateFunc func(node Node, ctx Context) (bool, error)

	// GetterFunc computes the raw value of a field.
	GetterFunc func(node Node, ctx Context) (any, error)

	// DefaultFunc computes the value of a field when its raw value is absent.
	DefaultFunc func(node Node, ctx Context) (any, error)

	// ValidatorFunc accepts or rejects a field value.
	ValidatorFunc func(value any, node Node, ctx Context) (bool, error)

	// TransformerFunc maps a field value to its final value.
	TransformerFunc func(value any, node Node, ctx Context) (any, error)

	// SetterFunc takes over delivery of a field value. It may call the sink
	// any number of times, under any names.
	SetterFunc func(value any, node Node, ctx Context, sink Sink) error
)

// Descriptor selects nodes with Predicate and attaches Fields to them.
type Descriptor struct {
	// Predicate decides whether the descriptor applies. Required.
	Predicate PredicateFunc
	// Fields are resolved in order. Required, but may be empty.
	Fields []*Rule
}

// Rule describes how to compute a single field. Every member is optional,
// but a rule needs a Name or a Setter to be deliverable.
type Rule struct {
	// Default is used literally when the raw value is absent.
	// Mutually exclusive with DefaultFunc.
	Default any

	// Getter replaces the node property lookup.
	Getter GetterFunc
	// DefaultFunc is called when the raw value is absent.
	DefaultFunc DefaultFunc
	// Validator rejects values by returning false.
	Validator ValidatorFunc
	// Transformer computes the final value.
	Transformer TransformerFunc
	// Setter delivers the final value instead of the sink.
	Setter SetterFunc

	// Name is the node property to read and the field name to attach.
	Name string
}

// ResolvedField is a single value delivered to a [Sink].
type ResolvedField struct {
	Value any
	Node  Node
	Name  string
}

// Sink receives resolved fields. Implementations typically merge Value under
// Name into the node's derived-field namespace.
type Sink interface {
	CreateNodeField(field ResolvedField)
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(field ResolvedField)

// CreateNodeField calls f(field).
func (f SinkFunc) CreateNodeField(field ResolvedField) {
	f(field)
}

// label returns a printable identifier for the rule.
func (r *Rule) label() string {
	if r.Name != "" {
		return r.Name
	}

	return "<setter>"
}
