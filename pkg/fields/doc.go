// Package fields attaches derived fields to content nodes.
//
// A [Descriptor] pairs a predicate with an ordered list of [Rule]s. For each
// node, an [Attacher] validates the descriptors, selects the ones whose
// predicate matches, resolves every rule of every match in declaration order,
// and delivers each result to a [Sink] as a [ResolvedField].
//
// Resolving a rule follows a fixed precedence:
//
//  1. The getter, or the node property named by the rule.
//  2. The default, when the value is absent (missing or nil).
//  3. The required-field policy, when configured.
//  4. The validator.
//  5. The transformer.
//
// The result is delivered by the rule's setter when present, and directly to
// the sink otherwise. Any failure aborts the whole invocation for the node.
package fields
