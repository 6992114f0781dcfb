package mcp_test

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
	"github.com/macropower/nodefields/pkg/mcp"
)

const nodesYAML = `internal:
  type: MarkdownRemark
frontmatter:
  title: Hello World
  date: "2024-03-01"
`

func connect(t *testing.T, opts ...mcp.ServerOpt) *sdk.ClientSession {
	t.Helper()

	ctx := t.Context()
	srv := mcp.NewServer(append([]mcp.ServerOpt{mcp.WithLogOutput(io.Discard)}, opts...)...)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ss, err := srv.Server().Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "v0.0.0"}, nil)

	cs, err := client.Connect(ctx, clientTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callTool[T any](t *testing.T, cs *sdk.ClientSession, name string, args map[string]any) (*sdk.CallToolResult, T) {
	t.Helper()

	res, err := cs.CallTool(t.Context(), &sdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	var out T

	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))

	return res, out
}

func textContent(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])

	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t)

	res, err := cs.ListTools(t.Context(), &sdk.ListToolsParams{})
	require.NoError(t, err)

	names := []string{}
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{"validate_config", "attach_fields"}, names)
}

func TestServer_ValidateConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "nodefields.yaml")
	require.NoError(t, os.WriteFile(configPath, fieldconfigs.Example, 0o600))

	tcs := map[string]struct {
		opts      []mcp.ServerOpt
		args      map[string]any
		wantPath  string
		wantCount int
		wantValid bool
	}{
		"inline config": {
			args:      map[string]any{"config": string(fieldconfigs.Example)},
			wantValid: true,
			wantCount: 2,
		},
		"config path": {
			args:      map[string]any{"configPath": configPath},
			wantValid: true,
			wantCount: 2,
		},
		"server default": {
			opts:      []mcp.ServerOpt{mcp.WithConfigPath(configPath)},
			args:      map[string]any{},
			wantValid: true,
			wantCount: 2,
		},
		"no config": {
			args: map[string]any{},
		},
		"expression error": {
			args: map[string]any{"config": `apiVersion: nodefields.jacobcolvin.com/v1beta1
kind: FieldConfiguration
descriptors:
  - match: node.invalidFunction()
    fields: []
`},
			wantPath: "$.descriptors[0].match",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cs := connect(t, tc.opts...)

			res, got := callTool[mcp.ValidateConfigResult](t, cs, "validate_config", tc.args)
			assert.Equal(t, tc.wantValid, got.Valid)
			assert.Equal(t, !tc.wantValid, res.IsError)
			assert.Equal(t, tc.wantCount, got.DescriptorCount)
			assert.Equal(t, tc.wantPath, got.Path)

			if !tc.wantValid {
				assert.NotEmpty(t, got.Error)
				assert.Contains(t, textContent(t, res), "INVALID CONFIGURATION")
			}
		})
	}
}

func TestServer_AttachFields(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cs := connect(t, mcp.WithTracerProvider(tp))

	res, got := callTool[mcp.AttachFieldsResult](t, cs, "attach_fields", map[string]any{
		"config":    string(fieldconfigs.Example),
		"nodes":     nodesYAML,
		"namespace": "derived",
	})
	require.False(t, res.IsError, textContent(t, res))

	assert.Equal(t, 1, got.NodeCount)
	assert.Equal(t, []mcp.Call{
		{Node: 0, Name: "slug", Value: "/hello-world"},
		{Node: 0, Name: "draft", Value: false},
		{Node: 0, Name: "year", Value: "2024"},
	}, got.Calls)
	assert.Contains(t, got.Nodes, "derived:")
	assert.Equal(t, "Attached 3 fields to 1 nodes.", textContent(t, res))

	spans := []string{}
	for _, s := range recorder.Ended() {
		spans = append(spans, s.Name())
	}

	assert.Contains(t, spans, "attach_fields")
	assert.Contains(t, spans, "process nodes")
}

func TestServer_AttachFieldsErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args    map[string]any
		wantErr string
	}{
		"invalid field": {
			args: map[string]any{
				"config": string(fieldconfigs.Example),
				"nodes":  "internal:\n  type: MarkdownRemark\nfrontmatter:\n  title: '!!!'\n  date: '2024'\n",
			},
			wantErr: "Invalid Field Error",
		},
		"node is not a mapping": {
			args: map[string]any{
				"config": string(fieldconfigs.Example),
				"nodes":  "- a\n- b\n",
			},
			wantErr: "not a mapping",
		},
		"missing config": {
			args:    map[string]any{"nodes": nodesYAML},
			wantErr: "no configuration",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cs := connect(t)

			res, got := callTool[mcp.AttachFieldsResult](t, cs, "attach_fields", tc.args)
			assert.True(t, res.IsError)
			assert.Contains(t, got.Error, tc.wantErr)
			assert.Contains(t, textContent(t, res), tc.wantErr)
		})
	}
}
