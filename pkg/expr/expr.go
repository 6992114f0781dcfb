package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Names of the variables available to every expression.
const (
	VarNode    = "node"
	VarContext = "context"
	VarValue   = "value"
)

// ErrNotBool is returned by [EvalBool] when an expression does not evaluate
// to a boolean.
var ErrNotBool = errors.New("expression did not return a boolean")

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment] with the node, context and value
// variables declared.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := createEnvironment(opts...)
	if err != nil {
		return nil, err
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// createEnvironment creates the [*cel.Env] using the global mutex.
func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(opts,
		cel.Variable(VarNode, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarContext, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarValue, cel.DynType),
		cel.Lib(&lib{}),
	)

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// Vars builds the activation for a program from native Go values.
func Vars(node, context map[string]any, value any) map[string]any {
	if node == nil {
		node = map[string]any{}
	}
	if context == nil {
		context = map[string]any{}
	}

	return map[string]any{
		VarNode:    ConvertToCELValue(node),
		VarContext: ConvertToCELValue(context),
		VarValue:   ConvertToCELValue(value),
	}
}

// Eval evaluates a program and converts the result to a native Go value.
func Eval(program cel.Program, vars map[string]any) (any, error) {
	result, _, err := program.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}

	return ConvertToNative(result), nil
}

// EvalBool evaluates a program that must return a boolean.
func EvalBool(program cel.Program, vars map[string]any) (bool, error) {
	result, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	b, ok := result.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w: got %s", ErrNotBool, result.Type().TypeName())
	}

	return bool(b), nil
}
