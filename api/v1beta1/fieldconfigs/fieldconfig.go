// Package fieldconfigs provides the FieldConfiguration configuration type.
package fieldconfigs

import (
	"fmt"

	_ "embed"

	"github.com/invopop/jsonschema"

	"github.com/macropower/nodefields/api"
	"github.com/macropower/nodefields/api/v1beta1"
	"github.com/macropower/nodefields/pkg/rule"
	"github.com/macropower/nodefields/pkg/yaml"
)

// Kind is the kind of [FieldConfiguration] documents.
const Kind = "FieldConfiguration"

// SchemaURL identifies the generated schema resource.
const SchemaURL = "https://nodefields.jacobcolvin.com/schemas/fieldconfigs.v1beta1.json"

var (
	// Example is a starter configuration.
	//
	//go:embed example.yaml
	Example []byte

	// FileNames contains the file names searched for when no configuration
	// path is given.
	FileNames = []string{
		".nodefields.yaml",
		"nodefields.yaml",
	}

	// ValidKinds contains the valid kind values.
	ValidKinds = []string{Kind}

	// SchemaJSON is the JSON schema for [FieldConfiguration].
	SchemaJSON = mustGenerateSchema()

	// DefaultValidator validates field configurations against [SchemaJSON].
	DefaultValidator = yaml.MustNewValidator(SchemaURL, SchemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*FieldConfiguration)(nil)
)

// FieldConfiguration declares the descriptors applied to every node.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type FieldConfiguration struct {
	// Context is passed to every expression as `context`.
	Context map[string]any `json:"context,omitempty" jsonschema:"title=Context"`
	// Required names a node property. Nodes where it is true must resolve a
	// value for every field.
	Required string `json:"required,omitempty" jsonschema:"title=Required Key"`
	// Descriptors are applied in order.
	Descriptors      []*rule.Descriptor `json:"descriptors" jsonschema:"required,title=Descriptors"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new, empty [FieldConfiguration].
func New() *FieldConfiguration {
	return &FieldConfiguration{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
		Descriptors: []*rule.Descriptor{},
	}
}

// EnsureDefaults initializes nil fields to their default values.
func (c *FieldConfiguration) EnsureDefaults() {
	if c.Context == nil {
		c.Context = map[string]any{}
	}
	if c.Descriptors == nil {
		c.Descriptors = []*rule.Descriptor{}
	}

	for _, d := range c.Descriptors {
		if d != nil && d.Fields == nil {
			d.Fields = []*rule.Field{}
		}
	}
}

func (c FieldConfiguration) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// Find searches for a configuration file starting from targetPath and
// walking up the directory tree. It returns an empty string if none exists.
func Find(targetPath string) (string, error) {
	path, err := api.FindConfigFile(targetPath, FileNames)
	if err != nil {
		return "", fmt.Errorf("find config file: %w", err)
	}

	return path, nil
}

func mustGenerateSchema() []byte {
	data, err := yaml.NewSchemaGenerator(New()).Generate()
	if err != nil {
		panic(err)
	}

	return data
}
