package fields

// Resolver computes the final value of a [Rule] for a node.
// The zero value is ready to use and has no required-field policy.
type Resolver struct {
	// RequiredKey names a node property. When that property is true, every
	// field of the node must resolve to a non-nil value.
	RequiredKey string
}

// Resolve runs the rule's value pipeline and returns the final value.
// It does not deliver the value; see [Attacher].
func (rs *Resolver) Resolve(node Node, ctx Context, r *Rule) (any, error) {
	value, err := rawValue(node, ctx, r)
	if err != nil {
		return nil, err
	}

	if value == nil {
		value, err = defaultValue(node, ctx, r)
		if err != nil {
			return nil, err
		}
	}

	if value == nil && rs.requiresValues(node) {
		return nil, &RequiredFieldError{Field: r.label()}
	}

	if r.Validator != nil {
		ok, err := r.Validator(value, node, ctx)
		if err != nil {
			return nil, hookError(r, "validator", err)
		}
		if !ok {
			return nil, &InvalidFieldError{Field: r.label(), Value: value}
		}
	}

	if r.Transformer != nil {
		value, err = r.Transformer(value, node, ctx)
		if err != nil {
			return nil, hookError(r, "transformer", err)
		}
	}

	return value, nil
}

func (rs *Resolver) requiresValues(node Node) bool {
	if rs.RequiredKey == "" {
		return false
	}

	required, ok := node[rs.RequiredKey].(bool)

	return ok && required
}

func rawValue(node Node, ctx Context, r *Rule) (any, error) {
	if r.Getter == nil {
		v, _ := node.Get(r.Name)
		return v, nil
	}

	v, err := r.Getter(node, ctx)
	if err != nil {
		return nil, hookError(r, "getter", err)
	}

	return v, nil
}

func defaultValue(node Node, ctx Context, r *Rule) (any, error) {
	if r.DefaultFunc == nil {
		return r.Default, nil
	}

	v, err := r.DefaultFunc(node, ctx)
	if err != nil {
		return nil, hookError(r, "default", err)
	}

	return v, nil
}
