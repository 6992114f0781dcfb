// Package mcp serves field attachment over the Model Context Protocol.
package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name         = "nodefields"
	instructions = `MCP Server 'nodefields' attaches derived fields to content nodes using a declarative field configuration.

When to use these tools:
- Checking that a field configuration is valid and all of its expressions compile
- Previewing which fields a configuration attaches to a set of nodes
- Debugging why a node is missing a field or fails validation

Workflow:
1. Use 'validate_config' with either a configuration path or inline configuration YAML.
2. Use 'attach_fields' with the same configuration and a YAML stream of nodes, one node per document.
3. READ the returned calls: they are the fields in the order they were created.
`

	maxOutputLength = 64 * 1024
)

func configProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"configPath": {
			Type:        "string",
			Description: "Path to a field configuration file. Ignored when config is set.",
		},
		"config": {
			Type:        "string",
			Description: "Inline field configuration YAML.",
		},
	}
}

func newValidateConfigSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: configProperties(),
	}
}

func newAttachFieldsSchema() *jsonschema.Schema {
	props := configProperties()
	props["nodes"] = &jsonschema.Schema{
		Type:        "string",
		Description: "YAML stream of nodes, one mapping per document.",
	}
	props["namespace"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Node key the attached fields are merged under. Defaults to 'fields'.",
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"nodes"},
	}
}

// truncateString truncates a string to maxLen characters if needed.
func truncateString(str string, maxLen int) string {
	if len(str) > maxLen {
		return str[:maxLen] + "\n[OUTPUT TRUNCATED]"
	}

	return str
}
