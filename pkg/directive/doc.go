// Package directive provides the sequence directives: List, KeyedList and
// Repeat.
//
// A sequence renders each of its values into its own child range inside the
// container and reconciles the children on every update with package
// reconcile. Keyed sequences move children whose keys survive; unkeyed ones
// match children by position.
//
//	directive.KeyedList([]string{"a", "b"}, []any{rowA, rowB})
//
//	directive.Repeat(slices.Values(todos), directive.RepeatOptions[Todo]{
//	    Key:   func(t Todo, _ int) any { return t.ID },
//	    Value: func(t Todo, _ int) any { return core.Render(TodoRow, t) },
//	})
package directive
