package reconcile

import "fmt"

// Apply replays ops against list and returns the resulting order.
// It is the reference apply phase: a backend that performs the same
// placements on real nodes ends up with the same order.
func Apply[K comparable, V any](list []*Item[K, V], ops []Op[K, V]) ([]*Item[K, V], error) {
	out := make([]*Item[K, V], 0, len(list))
	for _, item := range list {
		if item != nil {
			out = append(out, item)
		}
	}

	indexOf := func(item *Item[K, V]) int {
		for i, it := range out {
			if it == item {
				return i
			}
		}
		return -1
	}
	place := func(item, ref *Item[K, V]) error {
		at := len(out)
		if ref != nil {
			at = indexOf(ref)
			if at < 0 {
				return fmt.Errorf("reconcile: reference %v is not placed", ref.Key)
			}
		}
		out = append(out, nil)
		copy(out[at+1:], out[at:])
		out[at] = item
		return nil
	}

	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			if indexOf(op.Item) >= 0 {
				return nil, fmt.Errorf("reconcile: insert of already placed item %v", op.Item.Key)
			}
			if err := place(op.Item, op.Ref); err != nil {
				return nil, err
			}
		case OpMove:
			if op.Item == op.Ref {
				return nil, fmt.Errorf("reconcile: item %v moved before itself", op.Item.Key)
			}
			at := indexOf(op.Item)
			if at < 0 {
				return nil, fmt.Errorf("reconcile: move of unplaced item %v", op.Item.Key)
			}
			out = append(out[:at], out[at+1:]...)
			if err := place(op.Item, op.Ref); err != nil {
				return nil, err
			}
		case OpUpdate:
			if indexOf(op.Item) < 0 {
				return nil, fmt.Errorf("reconcile: update of unplaced item %v", op.Item.Key)
			}
		case OpRemove:
			at := indexOf(op.Item)
			if at < 0 {
				return nil, fmt.Errorf("reconcile: remove of unplaced item %v", op.Item.Key)
			}
			out = append(out[:at], out[at+1:]...)
		default:
			return nil, fmt.Errorf("reconcile: unknown op %d", op.Kind)
		}
	}
	return out, nil
}
