// Package config loads declarative field configurations.
//
// A configuration file is validated against the generated JSON schema,
// decoded, and compiled into [fields.Descriptor] values. Schema violations
// and expressions that fail to compile are reported as
// [*fields.SchemaValidationError], annotated with the offending YAML source.
package config
