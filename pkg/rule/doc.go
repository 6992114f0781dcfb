// Package rule compiles declarative descriptors, written as CEL (Common
// Expression Language) expressions, into [fields.Descriptor] values.
//
// The expressions have access to the node, the invocation context and, for
// field hooks, the current value. See [expr] for the available functions.
package rule
