package directive

import (
	"reflect"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/part"
	"github.com/vango-dev/weft/pkg/reconcile"
)

// seqDirective is shared by List and Repeat. Instances are compared by
// pointer.
type seqDirective struct {
	name string
}

var (
	listDirective   = &seqDirective{name: "List"}
	repeatDirective = &seqDirective{name: "Repeat"}
)

// seqValue is the payload of a sequence. A nil keys slice selects positional
// reconciliation.
type seqValue struct {
	keys   []any
	values []any
}

// List renders values in order, matching children by position.
func List(values ...any) core.Bindable {
	return core.Direct(listDirective, seqValue{values: values})
}

// KeyedList renders values in order, matching children by keys[i]. keys and
// values must have the same length.
func KeyedList[K comparable](keys []K, values []any) core.Bindable {
	ks := make([]any, len(keys))
	for i, k := range keys {
		ks[i] = k
	}
	return core.Direct(listDirective, seqValue{keys: ks, values: values})
}

func (d *seqDirective) Name() string { return d.name }

func (d *seqDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	cr, ok := p.(part.ChildRange)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindChildRange, p)
	}
	v, ok := toSeqValue(value)
	if !ok {
		return nil, werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("%s cannot render %T", d.name, value)
	}
	return &seqBinding{d: d, part: cr, value: v}, nil
}

type child struct {
	part   part.ChildRange
	slot   *core.Slot
	placed bool
}

type seqItem = reconcile.Item[any, *child]

// seqBinding keeps one slot per value. Reconciliation ops accumulate across
// renders until the next commit applies them to the tree.
type seqBinding struct {
	d     *seqDirective
	part  part.ChildRange
	value seqValue
	tree  core.Tree

	items []*seqItem // pending order
	live  []*seqItem // committed order
	ops   []reconcile.Op[any, *child]

	dirty     bool
	committed bool
}

func (b *seqBinding) Directive() core.Directive { return b.d }
func (b *seqBinding) Value() any                { return b.value }
func (b *seqBinding) Part() part.Part           { return b.part }

// toSeqValue accepts a sequence payload or a plain []any, which renders as
// an unkeyed list.
func toSeqValue(value any) (seqValue, bool) {
	switch v := value.(type) {
	case seqValue:
		return v, true
	case []any:
		return seqValue{values: v}, true
	default:
		return seqValue{}, false
	}
}

func (b *seqBinding) ShouldBind(value any) bool {
	v, ok := toSeqValue(value)
	if !ok {
		return true
	}
	return !sameValues(v.keys, b.value.keys) || !sameValues(v.values, b.value.values)
}

func (b *seqBinding) Bind(value any) {
	if v, ok := toSeqValue(value); ok {
		b.value = v
	}
}

func sameValues(a, b []any) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !core.Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}

// StartNode returns the first node of the first committed child.
func (b *seqBinding) StartNode() part.Node {
	for _, it := range b.live {
		if it.Value.placed {
			return it.Value.slot.StartNode()
		}
	}
	return nil
}

func (b *seqBinding) Connect(ctx *core.UpdateContext) error {
	b.tree = ctx.Tree()
	keys, values := b.value.keys, b.value.values
	if keys != nil && len(keys) != len(values) {
		return werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("%s has %d keys for %d values", b.d.name, len(keys), len(values)).
			WithUnit(ctx.OwnerName())
	}
	for i, k := range keys {
		if k != nil && !reflect.ValueOf(k).Comparable() {
			return werrors.New(werrors.CodeUnresolvedValue).
				WithDetailf("%s item %d has key of type %T, which is not comparable", b.d.name, i, k).
				WithUnit(ctx.OwnerName()).
				WithSuggestion("Use a string, number or other comparable value as the key")
		}
	}

	shapes := make([]core.Directive, len(values))
	for i, v := range values {
		d, _, err := ctx.ResolveDirective(v, b.part)
		if err != nil {
			return err
		}
		shapes[i] = d
	}

	sel := reconcile.Selector[any]{
		Shape: func(i int) any { return shapes[i] },
		SameShape: func(x, y any) bool {
			dx, _ := x.(core.Directive)
			dy, _ := y.(core.Directive)
			return core.SameDirective(dx, dy)
		},
	}
	if keys != nil {
		sel.Key = func(i int) any { return keys[i] }
	}
	res := reconcile.Reconcile(b.items, len(values), sel)

	for _, op := range res.Ops {
		if op.Kind == reconcile.OpRemove {
			op.Item.Value.slot.Disconnect(ctx)
		}
	}
	for i, it := range res.Items {
		if it.Value == nil {
			cr := ctx.CreateChildRange(b.part)
			s, err := ctx.ResolveSlot(values[i], cr)
			if err != nil {
				return err
			}
			it.Value = &child{part: cr, slot: s}
			continue
		}
		if _, err := it.Value.slot.Reconcile(values[i], ctx); err != nil {
			return err
		}
	}

	b.items = res.Items
	b.ops = append(b.ops, res.Ops...)
	b.dirty = true
	return nil
}

func (b *seqBinding) Disconnect(ctx *core.UpdateContext) {
	for _, it := range b.items {
		it.Value.slot.Disconnect(ctx)
	}
}

// Detach implements core.Detacher; every item keeps its state.
func (b *seqBinding) Detach(ctx *core.UpdateContext) {
	for _, it := range b.items {
		it.Value.slot.Detach(ctx)
	}
}

func (b *seqBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	for _, op := range b.ops {
		b.apply(op)
	}
	b.ops = nil
	b.live = b.items
	b.committed = true
}

func (b *seqBinding) apply(op reconcile.Op[any, *child]) {
	c := op.Item.Value
	switch op.Kind {
	case reconcile.OpInsert:
		b.tree.InsertRange(c.part.Anchor, c.part.Anchor, b.refNode(op.Ref))
		c.placed = true
		c.slot.Commit()
	case reconcile.OpMove:
		c.slot.Commit()
		b.tree.InsertRange(c.slot.StartNode(), c.part.Anchor, b.refNode(op.Ref))
	case reconcile.OpUpdate:
		c.slot.Commit()
	case reconcile.OpRemove:
		c.slot.Rollback()
		if c.placed {
			b.tree.RemoveRange(c.part.Anchor, c.part.Anchor)
			c.placed = false
		}
	}
}

// refNode returns the node a child is placed before.
func (b *seqBinding) refNode(ref *seqItem) part.Node {
	if ref == nil || ref.Value == nil {
		return b.part.Anchor
	}
	return ref.Value.slot.StartNode()
}

func (b *seqBinding) Rollback() {
	if !b.committed {
		return
	}
	b.committed = false
	for _, it := range b.live {
		c := it.Value
		c.slot.Rollback()
		if c.placed {
			b.tree.RemoveRange(c.part.Anchor, c.part.Anchor)
			c.placed = false
		}
	}
	b.live = nil
	b.items = nil
	b.ops = nil
	b.dirty = false
}
