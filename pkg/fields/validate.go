package fields

import "fmt"

// Validator checks a descriptor list before it is used.
// Implementations must not modify the descriptors.
type Validator interface {
	Validate(descriptors []*Descriptor) error
}

// StructuralValidator is the default [Validator]. It rejects descriptor lists
// that cannot be evaluated, returning a [*SchemaValidationError] that names
// the offending descriptor index, field index and key.
type StructuralValidator struct{}

// Validate implements [Validator].
func (StructuralValidator) Validate(descriptors []*Descriptor) error {
	for i, d := range descriptors {
		path := fmt.Sprintf("[%d]", i)

		if d == nil {
			return NewSchemaValidationError(path, "descriptor must be an object")
		}
		if d.Predicate == nil {
			return NewSchemaValidationError(path+".predicate", "required")
		}
		if d.Fields == nil {
			return NewSchemaValidationError(path+".fields", "required")
		}

		for j, r := range d.Fields {
			err := validateRule(fmt.Sprintf("%s.fields[%d]", path, j), r)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func validateRule(path string, r *Rule) error {
	if r == nil {
		return NewSchemaValidationError(path, "field must be an object")
	}
	if r.Name == "" && r.Setter == nil {
		return NewSchemaValidationError(path, `must contain at least one of "name" or "setter"`)
	}
	if r.Default != nil && r.DefaultFunc != nil {
		return NewSchemaValidationError(path+".default", `conflicts with "defaultFunc"`)
	}

	return nil
}
