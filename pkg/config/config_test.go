package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
	"github.com/macropower/nodefields/pkg/config"
	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/sink"
	"github.com/macropower/nodefields/pkg/yaml"
)

const header = `apiVersion: nodefields.jacobcolvin.com/v1beta1
kind: FieldConfiguration
`

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(fieldconfigs.Example)
	require.NoError(t, err)
	require.Len(t, cfg.Descriptors(), 2)
	assert.Equal(t, fields.Context{"siteUrl": "https://example.com"}, cfg.Context())
	assert.Empty(t, cfg.AttacherOpts())

	node := fields.Node{
		"internal": map[string]any{"type": "MarkdownRemark"},
		"frontmatter": map[string]any{
			"title": "Hello World",
			"date":  "2024-03-01",
		},
	}

	rec := sink.NewRecorder()
	require.NoError(t, cfg.NewAttacher().Attach(node, rec, cfg.Descriptors(), cfg.Context()))

	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "slug", calls[0].Name)
	assert.Equal(t, "/hello-world", calls[0].Value)
	assert.Equal(t, "draft", calls[1].Name)
	assert.Equal(t, false, calls[1].Value)
	assert.Equal(t, "year", calls[2].Name)
	assert.Equal(t, "2024", calls[2].Value)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input      string
		wantPath   string
		wantSchema bool
	}{
		"syntax error": {
			input: header + "descriptors: [\n",
		},
		"schema violation": {
			input: header + `descriptors:
  - match: "true"
    fields:
      - default: 1
`,
			wantSchema: true,
			wantPath:   "$.descriptors[0].fields[0]",
		},
		"match does not compile": {
			input: header + `descriptors:
  - match: node.invalidFunction()
    fields: []
`,
			wantSchema: true,
			wantPath:   "$.descriptors[0].match",
		},
		"field expression does not compile": {
			input: header + `descriptors:
  - match: "true"
    fields: []
  - match: "true"
    fields:
      - name: a
      - name: b
        transform: value +
`,
			wantSchema: true,
			wantPath:   "$.descriptors[1].fields[1].transform",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Load([]byte(tc.input))
			require.Error(t, err)
			assert.Nil(t, cfg)

			var schemaErr *fields.SchemaValidationError
			if !tc.wantSchema {
				assert.False(t, errors.As(err, &schemaErr))

				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)

				return
			}

			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tc.wantPath, schemaErr.Path)
			assert.Contains(t, err.Error(), "[nodefields] Schema Validation Error: "+tc.wantPath)

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			assert.NotEmpty(t, yamlErr.Source)
		})
	}
}

func TestLoad_RequiredKey(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load([]byte(header + `required: isRequired
descriptors:
  - match: "true"
    fields:
      - name: title
`))
	require.NoError(t, err)
	require.Len(t, cfg.AttacherOpts(), 1)

	rec := sink.NewRecorder()
	err = cfg.NewAttacher().Attach(fields.Node{"isRequired": true}, rec, cfg.Descriptors(), cfg.Context())

	var requiredErr *fields.RequiredFieldError
	require.ErrorAs(t, err, &requiredErr)
	assert.Equal(t, "title", requiredErr.Field)
	assert.Zero(t, rec.Len())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nodefields.yaml")
	require.NoError(t, os.WriteFile(path, fieldconfigs.Example, 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.File.Descriptors, 2)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	t.Parallel()

	// Without schema validation an unknown kind decodes fine.
	l := config.NewLoaderFromBytes([]byte("apiVersion: v1\nkind: Other\ndescriptors: []\n"),
		fieldconfigs.New, fieldconfigs.DefaultValidator, config.WithValidator(nil))
	require.NoError(t, l.Validate())

	got, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "Other", got.GetKind())
	assert.NotNil(t, got.Context)
}
