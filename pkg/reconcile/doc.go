// Package reconcile computes the operations that turn one ordered, keyed
// sequence of items into another.
//
// Reconcile is a pure function: it never touches a host tree. It returns the
// new item list plus an ordered list of Insert, Move, Update and Remove
// operations. Applying the operations in order to a list that starts as the
// old sequence yields the new sequence. Every Insert and Move names a
// reference item to place before; the reference is always either already at
// its final position or the first unsettled old item, so an apply phase can
// position items relative to the current physical order.
//
// # Modes
//
// Keyed mode runs a head/tail four-way scan with a lazily built key map as a
// fallback. Items are reusable when both their shape and their key match.
// Duplicate keys resolve first-match-wins; later duplicates become inserts.
//
// Indexed mode updates, replaces, inserts and removes strictly by position.
// It is used when no key selector is given or when there are no old items.
//
//	res := reconcile.Reconcile(old, len(values), reconcile.Selector[string]{
//	    Key: func(i int) string { return values[i].ID },
//	})
//	for _, op := range res.Ops {
//	    switch op.Kind {
//	    case reconcile.OpInsert: // create op.Item.Value, place before op.Ref
//	    case reconcile.OpMove:   // update op.Item.Value, move before op.Ref
//	    case reconcile.OpUpdate: // update op.Item.Value in place
//	    case reconcile.OpRemove: // tear down op.Item.Value
//	    }
//	}
package reconcile
