package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator generates JSON schemas from Go types.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	reflector *jsonschema.Reflector
	v         any
}

// NewSchemaGenerator creates a [SchemaGenerator] for the type of v. Only
// fields tagged `jsonschema:"required"` are required, and unknown properties
// are rejected.
func NewSchemaGenerator(v any) *SchemaGenerator {
	return &SchemaGenerator{
		v: v,
		reflector: &jsonschema.Reflector{
			ExpandedStruct:             true,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		},
	}
}

// Reflect returns the schema for the generator's type.
func (g *SchemaGenerator) Reflect() *jsonschema.Schema {
	return g.reflector.Reflect(g.v)
}

// Generate returns the indented JSON encoding of the schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	data, err := json.MarshalIndent(g.Reflect(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
