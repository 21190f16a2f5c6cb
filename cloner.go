// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package fib

// Cloner is implemented by value types V that need a deep copy when
// a Table is cloned or mutated persistently. If V does not implement
// Cloner, values are copied by plain assignment.
type Cloner[V any] interface {
	Clone() V
}

// cloneFunc clones a single value of type V. It is nil when V does
// not implement Cloner, in which case callers fall back to copying
// values by assignment.
type cloneFunc[V any] func(V) V

// cloneFnFactory returns a cloneFunc for V if V implements Cloner,
// or nil otherwise.
func cloneFnFactory[V any]() cloneFunc[V] {
	var zero V
	if _, ok := any(zero).(Cloner[V]); ok {
		return cloneValue[V]
	}
	return nil
}

// cloneValue returns a deep copy of val if it implements Cloner,
// otherwise val unchanged.
func cloneValue[V any](val V) V {
	c, ok := any(val).(Cloner[V])
	if !ok {
		return val
	}
	return c.Clone()
}

// cloneFlat returns a shallow copy of n: the prefixes/children arrays
// are copied (new backing slices), but child nodes are not recursed
// into, and values are deep-cloned via cloneFn when non-nil.
func (n *node[V]) cloneFlat(cloneFn cloneFunc[V]) *node[V] {
	if n == nil {
		return nil
	}

	c := new(node[V])
	c.prefixes = *n.prefixes.Copy()
	c.children = *n.children.Copy()

	if cloneFn != nil {
		for i, val := range c.prefixes.Items {
			c.prefixes.Items[i] = cloneFn(val)
		}
	}

	// leaf/fringe children must also be cloned, they are reachable
	// value holders, not interior nodes.
	for i, item := range c.children.Items {
		switch kid := item.(type) {
		case *leafNode[V]:
			val := kid.value
			if cloneFn != nil {
				val = cloneFn(val)
			}
			c.children.Items[i] = &leafNode[V]{prefix: kid.prefix, value: val}
		case *fringeNode[V]:
			val := kid.value
			if cloneFn != nil {
				val = cloneFn(val)
			}
			c.children.Items[i] = &fringeNode[V]{value: val}
		}
	}

	return c
}

// cloneRec returns a full, deep, recursive copy of n: every
// descendant interior node is cloned as well.
func (n *node[V]) cloneRec(cloneFn cloneFunc[V]) *node[V] {
	if n == nil {
		return nil
	}

	c := n.cloneFlat(cloneFn)

	for i, item := range c.children.Items {
		if kid, ok := item.(*node[V]); ok {
			c.children.Items[i] = kid.cloneRec(cloneFn)
		}
	}

	return c
}
