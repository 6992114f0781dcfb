// Package nodes runs field attachment over streams of YAML node documents.
//
// It is the batch counterpart of [plugin.OnCreateNode]: every decoded node
// goes through the plugin entry point with a sink that both records the
// ordered calls and merges the attached fields into a copy of the node.
package nodes
