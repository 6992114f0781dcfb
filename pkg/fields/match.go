package fields

import "fmt"

// SelectApplicable returns the descriptors whose predicate matches the node,
// in their original order. The first predicate error aborts selection.
func SelectApplicable(node Node, ctx Context, descriptors []*Descriptor) ([]*Descriptor, error) {
	idx, err := selectApplicable(node, ctx, descriptors)
	if err != nil {
		return nil, err
	}

	applicable := make([]*Descriptor, 0, len(idx))
	for _, i := range idx {
		applicable = append(applicable, descriptors[i])
	}

	return applicable, nil
}

// selectApplicable returns the indexes of the matching descriptors.
func selectApplicable(node Node, ctx Context, descriptors []*Descriptor) ([]int, error) {
	var idx []int

	for i, d := range descriptors {
		ok, err := d.Predicate(node, ctx)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w predicate: %w", i, ErrHook, err)
		}
		if ok {
			idx = append(idx, i)
		}
	}

	return idx, nil
}
