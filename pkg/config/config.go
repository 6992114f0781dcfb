package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
	"github.com/macropower/nodefields/pkg/expr"
	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/rule"
	"github.com/macropower/nodefields/pkg/yaml"
)

// Config is a validated and compiled [fieldconfigs.FieldConfiguration].
type Config struct {
	File        *fieldconfigs.FieldConfiguration
	descriptors []*fields.Descriptor
}

// Load validates, decodes and compiles a configuration from data.
func Load(data []byte, opts ...LoaderOpt) (*Config, error) {
	return load(NewLoaderFromBytes(data, fieldconfigs.New, fieldconfigs.DefaultValidator, opts...))
}

// LoadFile validates, decodes and compiles the configuration file at path.
func LoadFile(path string, opts ...LoaderOpt) (*Config, error) {
	l, err := NewLoaderFromFile(path, fieldconfigs.New, fieldconfigs.DefaultValidator, opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	slog.Debug("loading config", slog.String("path", path))

	cfg, err := load(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func load(l *Loader[*fieldconfigs.FieldConfiguration]) (*Config, error) {
	err := l.Validate()
	if err != nil {
		return nil, schemaError(err)
	}

	file, err := l.Load()
	if err != nil {
		return nil, schemaError(err)
	}

	env, err := expr.NewEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create expression environment: %w", err)
	}

	for i, d := range file.Descriptors {
		if d == nil {
			continue
		}

		err := d.Compile(env)
		if err != nil {
			return nil, compileError(l, i, err)
		}
	}

	descriptors, err := rule.Descriptors(file.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("convert descriptors: %w", err)
	}

	return &Config{
		File:        file,
		descriptors: descriptors,
	}, nil
}

// Descriptors returns the compiled descriptors, in file order.
func (c *Config) Descriptors() []*fields.Descriptor {
	return c.descriptors
}

// Context returns the configured invocation context.
func (c *Config) Context() fields.Context {
	return c.File.Context
}

// AttacherOpts returns the [fields.AttacherOpt]s implied by the file.
func (c *Config) AttacherOpts() []fields.AttacherOpt {
	var opts []fields.AttacherOpt
	if c.File.Required != "" {
		opts = append(opts, fields.WithRequiredKey(c.File.Required))
	}

	return opts
}

// NewAttacher creates a [fields.Attacher] configured by the file. Additional
// options are applied afterwards.
func (c *Config) NewAttacher(opts ...fields.AttacherOpt) *fields.Attacher {
	return fields.NewAttacher(append(c.AttacherOpts(), opts...)...)
}

// schemaError converts schema violations into [*fields.SchemaValidationError].
// Other errors, such as YAML syntax errors, are wrapped unchanged.
func schemaError(err error) error {
	var validationErr *yaml.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("decode config: %w", err)
	}

	path := ""

	var yamlErr *yaml.Error
	if errors.As(err, &yamlErr) {
		path = yamlErr.PathString()
	}

	return &fields.SchemaValidationError{
		Err:    err,
		Path:   path,
		Detail: validationErr.Message,
	}
}

func compileError(l *Loader[*fieldconfigs.FieldConfiguration], index int, err error) error {
	var ce *rule.CompileError
	if !errors.As(err, &ce) {
		return fmt.Errorf("descriptors[%d]: %w", index, err)
	}

	pathStr := fmt.Sprintf("$.descriptors[%d].%s", index, ce.Path())
	detail := "invalid expression: " + ce.Err.Error()

	path, pathErr := yaml.PathString(pathStr)
	if pathErr != nil {
		return fields.NewSchemaValidationError(pathStr, detail)
	}

	return &fields.SchemaValidationError{
		Err:    l.WrapError(yaml.NewError(ce, yaml.WithPath(path))),
		Path:   pathStr,
		Detail: detail,
	}
}
