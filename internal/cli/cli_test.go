package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
	"github.com/macropower/nodefields/internal/cli"
	"github.com/macropower/nodefields/pkg/fields"
)

const nodesYAML = `internal:
  type: MarkdownRemark
frontmatter:
  title: Hello World
  date: "2024-03-01"
---
internal:
  type: File
size: 2048
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return stdout.String(), err
}

func TestAttachCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := writeFile(t, dir, "nodefields.yaml", string(fieldconfigs.Example))
	nodesPath := writeFile(t, dir, "nodes.yaml", nodesYAML)

	tcs := map[string]struct {
		stdin string
		args  []string
		want  []string
	}{
		"nodes from file": {
			args: []string{"attach", "-c", configPath, nodesPath},
			want: []string{
				"slug: /hello-world",
				"draft: false",
				"year:",
				"size: 2.0 kB",
				"---",
			},
		},
		"nodes from stdin": {
			stdin: nodesYAML,
			args:  []string{"attach", "-c", configPath, "-"},
			want:  []string{"slug: /hello-world", "size: 2.0 kB"},
		},
		"custom namespace": {
			args: []string{"attach", "-c", configPath, "--namespace", "derived", nodesPath},
			want: []string{"derived:", "slug: /hello-world"},
		},
		"calls": {
			args: []string{"attach", "-c", configPath, "--calls", nodesPath},
			want: []string{"name: slug", "value: /hello-world", "name: size", "node: 1"},
		},
		"diff": {
			args: []string{"attach", "-c", configPath, "--diff", nodesPath},
			want: []string{"--- node 0", "+++ node 0", "+  slug: /hello-world"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, tc.stdin, tc.args...)
			require.NoError(t, err)

			for _, want := range tc.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestAttachCmd_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := writeFile(t, dir, "nodefields.yaml", string(fieldconfigs.Example))
	nodesPath := writeFile(t, dir, "nodes.yaml", "internal:\n  type: MarkdownRemark\nfrontmatter:\n  title: \"!!!\"\n  date: \"2024\"\n")
	badConfigPath := writeFile(t, dir, "bad.yaml", `apiVersion: nodefields.jacobcolvin.com/v1beta1
kind: FieldConfiguration
descriptors:
  - match: "true"
    fields:
      - name: a
        get: node.
`)

	t.Run("invalid field", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "", "attach", "-c", configPath, nodesPath)

		var invalid *fields.InvalidFieldError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "slug", invalid.Field)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "", "attach", "-c", badConfigPath, nodesPath)

		var schemaErr *fields.SchemaValidationError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "$.descriptors[0].fields[0].get", schemaErr.Path)
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "", "attach", "-c", configPath, filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("diff and calls are exclusive", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "", "attach", "-c", configPath, "--diff", "--calls", nodesPath)
		require.Error(t, err)
	})
}

func TestValidateCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := writeFile(t, dir, "nodefields.yaml", string(fieldconfigs.Example))

	out, err := run(t, "", "validate", "-c", configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath+": 2 descriptors ok\n", out)

	badPath := writeFile(t, dir, "bad.yaml", "apiVersion: nodefields.jacobcolvin.com/v1beta1\nkind: Other\n")

	_, err = run(t, "", "validate", "-c", badPath)

	var schemaErr *fields.SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
}

func TestSchemaCmd(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "schema")
	require.NoError(t, err)
	assert.JSONEq(t, string(fieldconfigs.SchemaJSON), out)

	path := filepath.Join(t.TempDir(), "schema.json")

	_, err = run(t, "", "schema", "-o", path)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fieldconfigs.SchemaJSON, got)
}

func TestInitCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".nodefields.yaml")

	out, err := run(t, "", "init", "-o", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fieldconfigs.Example, got)

	// An existing file is kept.
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o600))

	_, err = run(t, "", "init", "-o", path)
	require.NoError(t, err)

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(got))

	// With force, it is replaced and backed up.
	_, err = run(t, "", "init", "-o", path, "--force")
	require.NoError(t, err)

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fieldconfigs.Example, got)

	matches, err := filepath.Glob(filepath.Join(dir, ".nodefields.yaml.*.old"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
