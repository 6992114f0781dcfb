// Package expr provides CEL (Common Expression Language) functionality for
// evaluating descriptor expressions against content nodes.
//
// Expressions have access to variables:
//   - `node` (map<string, dyn>): The node being processed
//   - `context` (map<string, dyn>): Invocation context
//   - `value` (dyn): The current field value, or null outside field hooks
//
// It adds custom functions for:
//   - File path operations (pathBase, pathDir, pathExt)
//   - YAML content extraction (yamlPath)
//   - Slugs and human-readable sizes (slug, humanBytes)
package expr
