package yaml

import (
	"io"

	"github.com/goccy/go-yaml"
)

// Encoder writes YAML documents using two-space indentation, with sequences
// indented under their parent key. Consecutive documents are separated by
// "---".
type Encoder struct {
	e *yaml.Encoder
}

// NewEncoder returns an [Encoder] writing to w. Call [Encoder.Close] once
// all documents are written.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		e: yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true)),
	}
}

// Encode writes v as the next document.
func (e *Encoder) Encode(v any) error {
	return e.e.Encode(v) //nolint:wrapcheck // Return the original error.
}

// Close flushes any buffered output.
func (e *Encoder) Close() error {
	return e.e.Close() //nolint:wrapcheck // Return the original error.
}
