package rule

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/macropower/nodefields/pkg/expr"
	"github.com/macropower/nodefields/pkg/fields"
)

// ErrNotCompiled is returned when a [Descriptor] is used before [Descriptor.Compile].
var ErrNotCompiled = errors.New("descriptor is not compiled")

// Descriptor uses a CEL matcher to determine if its fields should be attached
// to a node.
//
// CEL expressions have access to variables:
//   - `node` (map<string, dyn>): The node being processed
//   - `context` (map<string, dyn>): Invocation context
//
// Match expressions must return a boolean value:
//   - node.internal.type == "MarkdownRemark" - only markdown nodes
//   - pathExt(node.fileAbsolutePath) in [".md", ".mdx"] - markdown or MDX files
//   - has(node.frontmatter) && !node.frontmatter.draft - published pages only
//   - true - every node
//
// A match expression that evaluates to a non-boolean value is an error.
type Descriptor struct {
	matchProgram cel.Program

	// Match is a CEL expression that selects nodes.
	Match string `json:"match" jsonschema:"required,minLength=1,title=Match Expression"`
	// Fields are the fields to attach to matching nodes, in order.
	Fields []*Field `json:"fields" jsonschema:"required,title=Fields"`
}

// New creates a new compiled [Descriptor].
func New(match string, fieldRules ...*Field) (*Descriptor, error) {
	if fieldRules == nil {
		fieldRules = []*Field{}
	}

	d := &Descriptor{
		Match:  match,
		Fields: fieldRules,
	}

	err := d.Compile(expr.MustNewEnvironment())
	if err != nil {
		return nil, fmt.Errorf("descriptor %q: %w", match, err)
	}

	return d, nil
}

// MustNew creates a new [Descriptor] and panics if there's an error.
func MustNew(match string, fieldRules ...*Field) *Descriptor {
	d, err := New(match, fieldRules...)
	if err != nil {
		panic(err)
	}

	return d
}

// Compile compiles the match expression and all field expressions.
// Compiling an already compiled descriptor is a no-op.
func (d *Descriptor) Compile(env *expr.Environment) error {
	if d.matchProgram == nil {
		program, err := env.Compile(d.Match)
		if err != nil {
			return &CompileError{Key: "match", Field: -1, Err: err}
		}

		d.matchProgram = program
	}

	for i, f := range d.Fields {
		if f == nil {
			continue
		}

		err := f.Compile(env)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				ce.Field = i
				return ce
			}

			return fmt.Errorf("fields[%d]: %w", i, err)
		}
	}

	return nil
}

// Matches evaluates the match expression against a node.
func (d *Descriptor) Matches(node fields.Node, ctx fields.Context) (bool, error) {
	if d.matchProgram == nil {
		return false, ErrNotCompiled
	}

	ok, err := expr.EvalBool(d.matchProgram, expr.Vars(node, ctx, nil))
	if err != nil {
		return false, fmt.Errorf("match %q: %w", d.Match, err)
	}

	return ok, nil
}

// Descriptor returns the [fields.Descriptor] for d. It fails if d or any of
// its fields has not been compiled.
func (d *Descriptor) Descriptor() (*fields.Descriptor, error) {
	if d.matchProgram == nil {
		return nil, ErrNotCompiled
	}

	rules := make([]*fields.Rule, 0, len(d.Fields))
	for i, f := range d.Fields {
		if f == nil {
			rules = append(rules, nil)
			continue
		}

		r, err := f.Rule()
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}

		rules = append(rules, r)
	}

	return &fields.Descriptor{
		Predicate: d.Matches,
		Fields:    rules,
	}, nil
}

// Descriptors converts compiled descriptors into [fields.Descriptor] values.
func Descriptors(ds []*Descriptor) ([]*fields.Descriptor, error) {
	out := make([]*fields.Descriptor, 0, len(ds))
	for i, d := range ds {
		if d == nil {
			out = append(out, nil)
			continue
		}

		fd, err := d.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("descriptors[%d]: %w", i, err)
		}

		out = append(out, fd)
	}

	return out, nil
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%d fields)", d.Match, len(d.Fields))
}

// CompileError reports an expression that failed to compile.
type CompileError struct {
	Err   error
	Key   string // Key holding the expression, e.g. "match" or "transform".
	Field int    // Index of the field holding Key, or -1 for the descriptor itself.
}

// Path returns the location of the expression relative to its descriptor.
func (e *CompileError) Path() string {
	if e.Field < 0 {
		return e.Key
	}

	return fmt.Sprintf("fields[%d].%s", e.Field, e.Key)
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path(), e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
