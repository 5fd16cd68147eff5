package core

import "reflect"

// Identical reports whether a and b are the same value for change detection.
//
// Comparable values compare with ==. Slices and maps are identical when they
// share the same backing storage (and, for slices, length). Functions and
// other incomparable values are never identical, so a fresh closure always
// counts as a change.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	default:
		return false
	}
}

// comparableEqual compares with ==, treating a runtime comparison panic
// (an interface field holding an incomparable value) as "different".
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// SameDirective reports whether two directives are interchangeable at one
// part without destroying and recreating the binding.
func SameDirective(a, b Directive) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(interface{ Equal(Directive) bool }); ok {
		return eq.Equal(b)
	}
	return Identical(a, b)
}

// depsChanged reports whether a dependency list differs from the previous
// one. A nil list on either side always counts as changed, so nil deps
// recompute on every render and empty deps compute once.
func depsChanged(prev, next []any) bool {
	if next == nil || prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if !Identical(prev[i], next[i]) {
			return true
		}
	}
	return false
}
