package reconcile

import "fmt"

// Item is one element of a reconciled sequence.
//
// Shape is a tag (typically a directive) that must match for an item to be
// reused; shapes are compared with Selector.SameShape, or == when that is nil.
type Item[K comparable, V any] struct {
	Shape any
	Key   K
	Value V
}

// OpKind is the type of a reconciliation operation.
type OpKind uint8

const (
	OpInsert OpKind = iota + 1 // new item placed before Ref
	OpMove                     // reused item moved before Ref
	OpUpdate                   // reused item left in place
	OpRemove                   // old item dropped
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "Insert"
	case OpMove:
		return "Move"
	case OpUpdate:
		return "Update"
	case OpRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Op is a single reconciliation step.
type Op[K comparable, V any] struct {
	Kind OpKind

	// Item is the item being inserted, moved, updated or removed.
	Item *Item[K, V]

	// Ref is the item to place Item before. Nil means the end of the range.
	// Only set for OpInsert and OpMove.
	Ref *Item[K, V]

	// Index is Item's position in the new sequence, or -1 for OpRemove.
	Index int
}

// String formats the op for debugging.
func (op Op[K, V]) String() string {
	switch op.Kind {
	case OpInsert, OpMove:
		if op.Ref == nil {
			return fmt.Sprintf("%s(%v@%d, end)", op.Kind, op.Item.Key, op.Index)
		}
		return fmt.Sprintf("%s(%v@%d, before %v)", op.Kind, op.Item.Key, op.Index, op.Ref.Key)
	case OpUpdate:
		return fmt.Sprintf("Update(%v@%d)", op.Item.Key, op.Index)
	default:
		return fmt.Sprintf("%s(%v)", op.Kind, op.Item.Key)
	}
}

// Selector maps positions of the new sequence to keys and shapes.
type Selector[K comparable] struct {
	// Key returns the key of the i-th new element. Nil selects indexed mode.
	Key func(i int) K

	// Shape returns the shape tag of the i-th new element. Nil means all
	// elements share one shape.
	Shape func(i int) any

	// SameShape compares two shape tags. Nil compares with ==.
	SameShape func(a, b any) bool
}

// Result is the outcome of a reconciliation.
type Result[K comparable, V any] struct {
	// Items is the new sequence. Reused items keep their pointer identity;
	// inserted items have a zero Value for the caller to fill in.
	Items []*Item[K, V]

	// Ops lists the operations in the order they must be applied.
	Ops []Op[K, V]

	Inserts int
	Moves   int
	Updates int
	Removes int
}

// Reconcile diffs old (which may contain nil holes for already-removed
// positions) against a new sequence of n elements described by sel.
// The old slice is not modified.
func Reconcile[K comparable, V any](old []*Item[K, V], n int, sel Selector[K]) *Result[K, V] {
	r := &reconciler[K, V]{
		sel: sel,
		res: &Result[K, V]{Items: make([]*Item[K, V], n)},
	}
	if sel.Key == nil || countLive(old) == 0 {
		r.indexed(old, n)
	} else {
		r.keyed(old, n)
	}
	return r.res
}

type reconciler[K comparable, V any] struct {
	sel Selector[K]
	res *Result[K, V]
}

func (r *reconciler[K, V]) shape(i int) any {
	if r.sel.Shape == nil {
		return nil
	}
	return r.sel.Shape(i)
}

func (r *reconciler[K, V]) key(i int) K {
	var zero K
	if r.sel.Key == nil {
		return zero
	}
	return r.sel.Key(i)
}

func (r *reconciler[K, V]) sameShape(a, b any) bool {
	if r.sel.SameShape != nil {
		return r.sel.SameShape(a, b)
	}
	return a == b
}

func (r *reconciler[K, V]) matches(item *Item[K, V], i int) bool {
	return item.Key == r.sel.Key(i) && r.sameShape(item.Shape, r.shape(i))
}

// refAt returns the already placed item at new index i, or nil past the end.
func (r *reconciler[K, V]) refAt(i int) *Item[K, V] {
	if i >= len(r.res.Items) {
		return nil
	}
	return r.res.Items[i]
}

func (r *reconciler[K, V]) insert(i int, ref *Item[K, V]) {
	item := &Item[K, V]{Shape: r.shape(i), Key: r.key(i)}
	r.res.Items[i] = item
	r.res.Ops = append(r.res.Ops, Op[K, V]{Kind: OpInsert, Item: item, Ref: ref, Index: i})
	r.res.Inserts++
}

func (r *reconciler[K, V]) move(item *Item[K, V], i int, ref *Item[K, V]) {
	r.res.Items[i] = item
	r.res.Ops = append(r.res.Ops, Op[K, V]{Kind: OpMove, Item: item, Ref: ref, Index: i})
	r.res.Moves++
}

func (r *reconciler[K, V]) update(item *Item[K, V], i int) {
	r.res.Items[i] = item
	r.res.Ops = append(r.res.Ops, Op[K, V]{Kind: OpUpdate, Item: item, Index: i})
	r.res.Updates++
}

func (r *reconciler[K, V]) remove(item *Item[K, V]) {
	r.res.Ops = append(r.res.Ops, Op[K, V]{Kind: OpRemove, Item: item, Index: -1})
	r.res.Removes++
}

// keyed runs the head/tail four-way scan.
func (r *reconciler[K, V]) keyed(prev []*Item[K, V], n int) {
	old := make([]*Item[K, V], len(prev))
	copy(old, prev)

	oldHead, oldTail := 0, len(old)-1
	newHead, newTail := 0, n-1

	// keyIndex maps a key to the first old index holding it within the
	// unsettled range at the time it was built.
	var keyIndex map[K]int

	for oldHead <= oldTail && newHead <= newTail {
		switch {
		case old[oldHead] == nil:
			oldHead++
		case old[oldTail] == nil:
			oldTail--
		case r.matches(old[oldHead], newHead):
			r.update(old[oldHead], newHead)
			oldHead++
			newHead++
		case r.matches(old[oldTail], newTail):
			r.update(old[oldTail], newTail)
			oldTail--
			newTail--
		case r.matches(old[oldHead], newTail):
			r.move(old[oldHead], newTail, r.refAt(newTail+1))
			oldHead++
			newTail--
		case r.matches(old[oldTail], newHead):
			r.move(old[oldTail], newHead, old[oldHead])
			oldTail--
			newHead++
		default:
			if keyIndex == nil {
				keyIndex = make(map[K]int, oldTail-oldHead+1)
				for i := oldHead; i <= oldTail; i++ {
					if old[i] == nil {
						continue
					}
					if _, dup := keyIndex[old[i].Key]; !dup {
						keyIndex[old[i].Key] = i
					}
				}
			}
			key := r.sel.Key(newHead)
			i, ok := keyIndex[key]
			if ok && i > oldHead && i <= oldTail && old[i] != nil && r.sameShape(old[i].Shape, r.shape(newHead)) {
				delete(keyIndex, key)
				r.move(old[i], newHead, old[oldHead])
				old[i] = nil
			} else {
				r.insert(newHead, old[oldHead])
			}
			newHead++
		}
	}

	if newHead > newTail {
		for i := oldHead; i <= oldTail; i++ {
			if old[i] != nil {
				r.remove(old[i])
			}
		}
		return
	}

	ref := r.refAt(newTail + 1)
	for i := newHead; i <= newTail; i++ {
		r.insert(i, ref)
	}
}

// indexed matches items purely by position.
func (r *reconciler[K, V]) indexed(prev []*Item[K, V], n int) {
	old := make([]*Item[K, V], 0, len(prev))
	for _, item := range prev {
		if item != nil {
			old = append(old, item)
		}
	}

	for i := 0; i < n; i++ {
		if i >= len(old) {
			r.insert(i, nil)
			continue
		}
		item := old[i]
		if r.sameShape(item.Shape, r.shape(i)) {
			item.Key = r.key(i)
			r.update(item, i)
			continue
		}
		r.insert(i, item)
		r.remove(item)
	}
	for i := n; i < len(old); i++ {
		r.remove(old[i])
	}
}

func countLive[K comparable, V any](items []*Item[K, V]) int {
	n := 0
	for _, item := range items {
		if item != nil {
			n++
		}
	}
	return n
}
