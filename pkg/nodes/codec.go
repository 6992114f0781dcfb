package nodes

import (
	"errors"
	"fmt"
	"io"

	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/yaml"
)

// ErrNotMapping is returned for node documents that are not YAML mappings.
var ErrNotMapping = errors.New("node document is not a mapping")

// Decode reads a stream of YAML documents, one node per document. Empty
// and comment-only documents are skipped.
func Decode(r io.Reader) ([]fields.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}

	docs, err := yaml.DecodeDocuments(data)
	if err != nil {
		return nil, err //nolint:wrapcheck // Errors carry their document and token.
	}

	nodes := []fields.Node{}
	for i, doc := range docs {
		if doc == nil {
			continue
		}

		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("document %d: %w: got %T", i, ErrNotMapping, doc)
		}

		nodes = append(nodes, fields.Node(m))
	}

	return nodes, nil
}

// Encode writes nodes as a stream of YAML documents.
func Encode(w io.Writer, nodes []fields.Node) error {
	enc := yaml.NewEncoder(w)

	for i, n := range nodes {
		err := enc.Encode(map[string]any(n))
		if err != nil {
			return fmt.Errorf("encode node %d: %w", i, err)
		}
	}

	err := enc.Close()
	if err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}

	return nil
}
