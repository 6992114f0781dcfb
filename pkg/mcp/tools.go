package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/nodefields/pkg/config"
	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/log"
	"github.com/macropower/nodefields/pkg/nodes"
	"github.com/macropower/nodefields/pkg/sink"
)

// ErrNoConfig is returned when a tool call names no configuration and the
// server has no default.
var ErrNoConfig = errors.New("no configuration: set config or configPath")

// ConfigParams selects the field configuration for a tool call.
type ConfigParams struct {
	ConfigPath string `json:"configPath,omitempty"`
	Config     string `json:"config,omitempty"`
}

// ValidateConfigParams defines parameters for the validate_config tool.
type ValidateConfigParams struct {
	ConfigParams
}

// ValidateConfigResult contains the result of validating a configuration.
type ValidateConfigResult struct {
	Error           string `json:"error,omitempty"`
	Path            string `json:"path,omitempty"`
	DescriptorCount int    `json:"descriptorCount"`
	Valid           bool   `json:"valid"`
}

// AttachFieldsParams defines parameters for the attach_fields tool.
type AttachFieldsParams struct {
	Nodes     string `json:"nodes"`
	Namespace string `json:"namespace,omitempty"`
	ConfigParams
}

// Call is one field delivered to the sink.
type Call struct {
	Value any    `json:"value"`
	Name  string `json:"name"`
	Node  int    `json:"node"`
}

// AttachFieldsResult contains the result of attaching fields to nodes.
type AttachFieldsResult struct {
	Error     string `json:"error,omitempty"`
	Path      string `json:"path,omitempty"`
	Nodes     string `json:"nodes,omitempty"`
	Calls     []Call `json:"calls"`
	NodeCount int    `json:"nodeCount"`
}

func (s *Server) loadConfig(p ConfigParams) (*config.Config, error) {
	if p.Config != "" {
		return config.Load([]byte(p.Config)) //nolint:wrapcheck // Already wrapped.
	}

	path := p.ConfigPath
	if path == "" {
		path = s.configPath
	}
	if path == "" {
		return nil, ErrNoConfig
	}

	return config.LoadFile(path) //nolint:wrapcheck // Already wrapped with the path.
}

// handleValidateConfig handles the validate_config tool call.
func (s *Server) handleValidateConfig(
	_ context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ValidateConfigParams],
) (*mcp.CallToolResultFor[ValidateConfigResult], error) {
	result := ValidateConfigResult{}

	cfg, err := s.loadConfig(params.Arguments.ConfigParams)
	if err != nil {
		result.Error, result.Path = describeError(err)

		return &mcp.CallToolResultFor[ValidateConfigResult]{
			Content:           []mcp.Content{&mcp.TextContent{Text: "INVALID CONFIGURATION: " + result.Error}},
			StructuredContent: result,
			IsError:           true,
		}, nil
	}

	result.Valid = true
	result.DescriptorCount = len(cfg.Descriptors())

	return &mcp.CallToolResultFor[ValidateConfigResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Configuration is valid with %d descriptors.", result.DescriptorCount)},
		},
		StructuredContent: result,
	}, nil
}

// handleAttachFields handles the attach_fields tool call.
func (s *Server) handleAttachFields(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[AttachFieldsParams],
) (*mcp.CallToolResultFor[AttachFieldsResult], error) {
	result, err := s.attachFields(ctx, params.Arguments)
	if err != nil {
		result.Error, result.Path = describeError(err)

		return &mcp.CallToolResultFor[AttachFieldsResult]{
			Content:           []mcp.Content{&mcp.TextContent{Text: "ERROR: " + result.Error}},
			StructuredContent: result,
			IsError:           true,
		}, nil
	}

	return &mcp.CallToolResultFor[AttachFieldsResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Attached %d fields to %d nodes.", len(result.Calls), result.NodeCount)},
			&mcp.TextContent{Text: result.Nodes},
		},
		StructuredContent: result,
	}, nil
}

func (s *Server) attachFields(ctx context.Context, args AttachFieldsParams) (AttachFieldsResult, error) {
	result := AttachFieldsResult{Calls: []Call{}}

	cfg, err := s.loadConfig(args.ConfigParams)
	if err != nil {
		return result, err
	}

	input, err := nodes.Decode(strings.NewReader(args.Nodes))
	if err != nil {
		return result, fmt.Errorf("decode nodes: %w", err)
	}

	namespace := args.Namespace
	if namespace == "" {
		namespace = sink.DefaultNamespace
	}

	p := nodes.NewProcessor(cfg.Descriptors(),
		nodes.WithTracerProvider(s.tracerProvider),
		nodes.WithAttacher(cfg.NewAttacher(fields.WithLogger(log.WithContext(ctx)))),
		nodes.WithContext(cfg.Context()),
		nodes.WithNamespace(namespace),
	)

	results, err := p.ProcessAll(ctx, input)
	if err != nil {
		return result, fmt.Errorf("attach fields: %w", err)
	}

	out := make([]fields.Node, 0, len(results))
	for i, r := range results {
		out = append(out, r.Output)
		for _, c := range r.Calls {
			result.Calls = append(result.Calls, Call{Node: i, Name: c.Name, Value: c.Value})
		}
	}

	var buf bytes.Buffer

	err = nodes.Encode(&buf, out)
	if err != nil {
		return result, fmt.Errorf("encode nodes: %w", err)
	}

	result.NodeCount = len(results)
	result.Nodes = truncateString(buf.String(), maxOutputLength)

	return result, nil
}

// describeError returns the message of err and, for schema errors, the
// location in the configuration.
func describeError(err error) (string, string) {
	var schemaErr *fields.SchemaValidationError
	if errors.As(err, &schemaErr) {
		return err.Error(), schemaErr.Path
	}

	return err.Error(), ""
}
