// Package sink provides [fields.Sink] implementations.
package sink

import "github.com/macropower/nodefields/pkg/fields"

// Recorder captures every delivered field, in order.
type Recorder struct {
	calls []fields.ResolvedField
}

// NewRecorder creates a new, empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{}
}

// CreateNodeField implements [fields.Sink].
func (r *Recorder) CreateNodeField(field fields.ResolvedField) {
	r.calls = append(r.calls, field)
}

// Calls returns a copy of the recorded fields.
func (r *Recorder) Calls() []fields.ResolvedField {
	calls := make([]fields.ResolvedField, len(r.calls))
	copy(calls, r.calls)

	return calls
}

// Len returns the number of recorded fields.
func (r *Recorder) Len() int {
	return len(r.calls)
}

// Reset discards all recorded fields.
func (r *Recorder) Reset() {
	r.calls = nil
}
