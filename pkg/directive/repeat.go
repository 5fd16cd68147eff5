package directive

import (
	"iter"

	"github.com/vango-dev/weft/pkg/core"
)

// RepeatOptions selects the key and rendered value of each item.
type RepeatOptions[T any] struct {
	// Key returns the reconciliation key of an item. Without it items are
	// matched by position.
	Key func(item T, index int) any

	// Value returns what to render for an item. Without it the item itself
	// is rendered.
	Value func(item T, index int) any
}

// Repeat renders every item of source. The sequence is consumed once, when
// Repeat is called.
func Repeat[T any](source iter.Seq[T], opts RepeatOptions[T]) core.Bindable {
	var v seqValue
	if opts.Key != nil {
		v.keys = []any{}
	}
	i := 0
	for item := range source {
		if opts.Key != nil {
			v.keys = append(v.keys, opts.Key(item, i))
		}
		if opts.Value != nil {
			v.values = append(v.values, opts.Value(item, i))
		} else {
			v.values = append(v.values, item)
		}
		i++
	}
	return core.Direct(repeatDirective, v)
}
