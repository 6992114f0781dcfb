package yaml

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// Decoder reads YAML values from a stream. Duplicate mapping keys are
// accepted and the last occurrence wins.
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder returns a [Decoder] reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.AllowDuplicateMapKey()),
	}
}

// Decode decodes the next document into v. It returns [io.EOF] once the
// stream is exhausted, and may also return it for an empty document, so
// use [DecodeDocuments] for multi-document input.
func (d *Decoder) Decode(v any) error {
	return wrapError(d.d.Decode(v))
}

// DecodeDocuments parses every document in data and returns one value per
// document, in order. Documents without content (e.g. an empty document
// between two separators, or one holding only comments) decode to nil.
func DecodeDocuments(data []byte) ([]any, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, wrapError(err)
	}

	docs := make([]any, 0, len(file.Docs))
	for i, doc := range file.Docs {
		if isEmptyBody(doc.Body) {
			docs = append(docs, nil)
			continue
		}

		var v any

		err := yaml.NodeToValue(doc.Body, &v, yaml.AllowDuplicateMapKey())
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, wrapError(err))
		}

		docs = append(docs, v)
	}

	return docs, nil
}

func isEmptyBody(n ast.Node) bool {
	switch n.(type) {
	case nil, *ast.CommentNode, *ast.CommentGroupNode:
		return true
	}

	return false
}

// wrapError converts a goccy [yaml.Error] into an [*Error] carrying its
// token, so that callers can render a source excerpt.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}
