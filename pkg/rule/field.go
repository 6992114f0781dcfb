package rule

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/cel-go/cel"
	"github.com/invopop/jsonschema"

	"github.com/macropower/nodefields/pkg/expr"
	"github.com/macropower/nodefields/pkg/fields"
)

// Field describes one field using CEL expressions. Every expression is
// optional; a missing expression behaves like a missing hook.
//
// Get and DefaultExpr have access to `node` and `context`. Validate,
// Transform and Set also have access to `value`, the field value at that
// stage.
type Field struct {
	getProgram       cel.Program
	defaultProgram   cel.Program
	validateProgram  cel.Program
	transformProgram cel.Program
	setProgram       cel.Program

	// Default is used when the value is absent. Mutually exclusive with DefaultExpr.
	Default any `json:"default,omitempty" jsonschema:"title=Default Value"`

	// Name is the node property to read and the field name to attach.
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
	// Get is a CEL expression computing the raw value, replacing the property lookup.
	Get string `json:"get,omitempty" jsonschema:"title=Getter"`
	// DefaultExpr is a CEL expression computing the value when it is absent.
	DefaultExpr string `json:"defaultExpr,omitempty" jsonschema:"title=Default Expression"`
	// Validate is a CEL expression that must return true for the value to be accepted.
	Validate string `json:"validate,omitempty" jsonschema:"title=Validator"`
	// Transform is a CEL expression computing the final value.
	Transform string `json:"transform,omitempty" jsonschema:"title=Transformer"`
	// Set is a CEL expression returning a map of field names to values. Each
	// entry is attached in key order, replacing the default delivery under Name.
	Set string `json:"set,omitempty" jsonschema:"title=Setter"`
}

// JSONSchemaExtend requires at least one of name or set, and forbids
// combining default with defaultExpr.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
func (Field) JSONSchemaExtend(jss *jsonschema.Schema) {
	jss.AnyOf = []*jsonschema.Schema{
		{Required: []string{"name"}},
		{Required: []string{"set"}},
	}
	jss.Not = &jsonschema.Schema{
		Required: []string{"default", "defaultExpr"},
	}
}

// Compile compiles every expression that is set.
// Compiling an already compiled field is a no-op.
func (f *Field) Compile(env *expr.Environment) error {
	for _, c := range []struct {
		program *cel.Program
		key     string
		src     string
	}{
		{&f.getProgram, "get", f.Get},
		{&f.defaultProgram, "defaultExpr", f.DefaultExpr},
		{&f.validateProgram, "validate", f.Validate},
		{&f.transformProgram, "transform", f.Transform},
		{&f.setProgram, "set", f.Set},
	} {
		if c.src == "" || *c.program != nil {
			continue
		}

		program, err := env.Compile(c.src)
		if err != nil {
			return &CompileError{Key: c.key, Field: -1, Err: err}
		}

		*c.program = program
	}

	return nil
}

func (f *Field) compiled() bool {
	for _, c := range []struct {
		program cel.Program
		src     string
	}{
		{f.getProgram, f.Get},
		{f.defaultProgram, f.DefaultExpr},
		{f.validateProgram, f.Validate},
		{f.transformProgram, f.Transform},
		{f.setProgram, f.Set},
	} {
		if c.src != "" && c.program == nil {
			return false
		}
	}

	return true
}

// Rule returns the [fields.Rule] for f. Hooks are only set for the
// expressions that are present.
func (f *Field) Rule() (*fields.Rule, error) {
	if !f.compiled() {
		return nil, ErrNotCompiled
	}

	r := &fields.Rule{
		Name:    f.Name,
		Default: f.Default,
	}

	if f.getProgram != nil {
		r.Getter = func(node fields.Node, ctx fields.Context) (any, error) {
			return expr.Eval(f.getProgram, expr.Vars(node, ctx, nil))
		}
	}

	if f.defaultProgram != nil {
		r.DefaultFunc = func(node fields.Node, ctx fields.Context) (any, error) {
			return expr.Eval(f.defaultProgram, expr.Vars(node, ctx, nil))
		}
	}

	if f.validateProgram != nil {
		r.Validator = func(value any, node fields.Node, ctx fields.Context) (bool, error) {
			return expr.EvalBool(f.validateProgram, expr.Vars(node, ctx, value))
		}
	}

	if f.transformProgram != nil {
		r.Transformer = func(value any, node fields.Node, ctx fields.Context) (any, error) {
			return expr.Eval(f.transformProgram, expr.Vars(node, ctx, value))
		}
	}

	if f.setProgram != nil {
		r.Setter = f.set
	}

	return r, nil
}

func (f *Field) set(value any, node fields.Node, ctx fields.Context, sink fields.Sink) error {
	result, err := expr.Eval(f.setProgram, expr.Vars(node, ctx, value))
	if err != nil {
		return err //nolint:wrapcheck // Wrapped by the attacher.
	}

	if result == nil {
		return nil
	}

	values, ok := result.(map[string]any)
	if !ok {
		return fmt.Errorf("set %q: expected a map, got %T", f.Set, result)
	}

	for _, name := range slices.Sorted(maps.Keys(values)) {
		sink.CreateNodeField(fields.ResolvedField{
			Node:  node,
			Name:  name,
			Value: values[name],
		})
	}

	return nil
}
