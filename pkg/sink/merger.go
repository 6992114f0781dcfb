package sink

import (
	"maps"

	"github.com/macropower/nodefields/pkg/fields"
)

// DefaultNamespace is the node key that [Merger.Apply] writes fields under.
const DefaultNamespace = "fields"

// Merger merges delivered fields by name, the way a host build tool stores
// derived fields on a node. Later values overwrite earlier ones.
//
// A Merger is meant to collect the fields of a single node. It never
// modifies the nodes it receives; use [Merger.Apply] to get a copy of a node
// with the merged fields attached.
type Merger struct {
	fields    map[string]any
	namespace string
}

// MergerOpt is a functional option for configuring a [Merger].
type MergerOpt func(*Merger)

// WithNamespace sets the node key used by [Merger.Apply].
func WithNamespace(ns string) MergerOpt {
	return func(m *Merger) {
		m.namespace = ns
	}
}

// NewMerger creates a new [Merger].
func NewMerger(opts ...MergerOpt) *Merger {
	m := &Merger{
		namespace: DefaultNamespace,
		fields:    map[string]any{},
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CreateNodeField implements [fields.Sink].
func (m *Merger) CreateNodeField(field fields.ResolvedField) {
	m.fields[field.Name] = field.Value
}

// Fields returns a copy of the merged fields.
func (m *Merger) Fields() map[string]any {
	return maps.Clone(m.fields)
}

// Apply returns a shallow copy of node with the merged fields stored under
// the namespace key. Fields already present in the namespace are kept unless
// overwritten.
func (m *Merger) Apply(node fields.Node) fields.Node {
	out := maps.Clone(node)
	if out == nil {
		out = fields.Node{}
	}

	ns := map[string]any{}
	if existing, ok := node[m.namespace].(map[string]any); ok {
		maps.Copy(ns, existing)
	}

	maps.Copy(ns, m.fields)

	if len(ns) > 0 {
		out[m.namespace] = ns
	}

	return out
}
