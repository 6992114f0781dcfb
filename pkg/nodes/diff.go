package nodes

import (
	"fmt"

	"github.com/aymanbagabas/go-udiff"

	"github.com/macropower/nodefields/api"
)

// Diff returns a unified diff between the YAML encodings of the result's
// input and output. It is empty when no fields were attached.
func (r *Result) Diff(label string) (string, error) {
	before, err := api.MarshalYAML(map[string]any(r.Input))
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}

	after, err := api.MarshalYAML(map[string]any(r.Output))
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}

	return udiff.Unified(label, label+" (fields)", string(before), string(after)), nil
}
