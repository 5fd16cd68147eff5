package vtest

import (
	"fmt"
	"maps"
	"slices"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/directive"
	"github.com/vango-dev/weft/pkg/part"
)

// Text

type textDirective struct{ b *Backend }

func (d *textDirective) Name() string { return "Text" }

func (d *textDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	cr, ok := p.(part.ChildRange)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindChildRange, p)
	}
	return &textBinding{d: d, part: cr, value: value}, nil
}

type textBinding struct {
	d     *textDirective
	part  part.ChildRange
	value any
	text  string
	node  *Node
	dirty bool
}

func (b *textBinding) Directive() core.Directive      { return b.d }
func (b *textBinding) Value() any                     { return b.value }
func (b *textBinding) Part() part.Part                { return b.part }
func (b *textBinding) ShouldBind(v any) bool          { return !core.Identical(v, b.value) }
func (b *textBinding) Bind(v any)                     { b.value = v }
func (b *textBinding) Disconnect(*core.UpdateContext) {}

func (b *textBinding) StartNode() part.Node {
	if b.node == nil {
		return nil
	}
	return b.node
}

func (b *textBinding) Connect(ctx *core.UpdateContext) error {
	s, ok := textOf(b.value)
	if !ok {
		return werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("Text cannot render %T", b.value).
			WithUnit(ctx.OwnerName())
	}
	b.text = s
	b.dirty = true
	return nil
}

func (b *textBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	if b.node == nil {
		b.node = b.d.b.newNode(TextNode, "", b.text)
		b.d.b.InsertRange(b.node, b.node, b.part.Anchor)
		return
	}
	if b.node.Data != b.text {
		b.node.Data = b.text
		b.d.b.record(OpText, b.node, "")
	}
}

func (b *textBinding) Rollback() {
	if b.node == nil {
		return
	}
	b.d.b.RemoveRange(b.node, b.node)
	b.node = nil
}

// Empty

type emptyDirective struct{}

func (d *emptyDirective) Name() string { return "Empty" }

func (d *emptyDirective) ResolveBinding(value any, p part.Part, _ *core.UpdateContext) (core.Binding, error) {
	return &emptyBinding{d: d, part: p}, nil
}

type emptyBinding struct {
	d    *emptyDirective
	part part.Part
}

func (b *emptyBinding) Directive() core.Directive         { return b.d }
func (b *emptyBinding) Value() any                        { return nil }
func (b *emptyBinding) Part() part.Part                   { return b.part }
func (b *emptyBinding) ShouldBind(any) bool               { return false }
func (b *emptyBinding) Bind(any)                          {}
func (b *emptyBinding) Connect(*core.UpdateContext) error { return nil }
func (b *emptyBinding) Disconnect(*core.UpdateContext)    {}
func (b *emptyBinding) Commit()                           {}
func (b *emptyBinding) Rollback()                         {}

// Attribute

type attributeDirective struct{ b *Backend }

func (d *attributeDirective) Name() string { return "Attribute" }

func (d *attributeDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	ap, ok := p.(part.Attribute)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindAttribute, p)
	}
	return &attributeBinding{d: d, part: ap, value: value}, nil
}

type attributeBinding struct {
	d       *attributeDirective
	part    part.Attribute
	value   any
	pending string
	present bool
	applied bool
	dirty   bool
}

func (b *attributeBinding) Directive() core.Directive      { return b.d }
func (b *attributeBinding) Value() any                     { return b.value }
func (b *attributeBinding) Part() part.Part                { return b.part }
func (b *attributeBinding) ShouldBind(v any) bool          { return !core.Identical(v, b.value) }
func (b *attributeBinding) Bind(v any)                     { b.value = v }
func (b *attributeBinding) Disconnect(*core.UpdateContext) {}

func (b *attributeBinding) Connect(*core.UpdateContext) error {
	switch v := b.value.(type) {
	case nil:
		b.pending, b.present = "", false
	case bool:
		b.pending, b.present = "", v
	case string:
		b.pending, b.present = v, true
	default:
		b.pending, b.present = fmt.Sprint(v), true
	}
	b.dirty = true
	return nil
}

func (b *attributeBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	n := asNode(b.part.Target)
	if !b.present {
		b.Rollback()
		return
	}
	if cur, ok := n.Attrs[b.part.Name]; ok && cur == b.pending && b.applied {
		return
	}
	n.Attrs[b.part.Name] = b.pending
	b.applied = true
	b.d.b.record(OpSetAttr, n, b.part.Name+"="+b.pending)
}

func (b *attributeBinding) Rollback() {
	if !b.applied {
		return
	}
	b.applied = false
	n := asNode(b.part.Target)
	delete(n.Attrs, b.part.Name)
	b.d.b.record(OpRemoveAttr, n, b.part.Name)
}

// Property

type propertyDirective struct{ b *Backend }

func (d *propertyDirective) Name() string { return "Property" }

func (d *propertyDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	pp, ok := p.(part.Property)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindProperty, p)
	}
	return &propertyBinding{d: d, part: pp, value: value}, nil
}

type propertyBinding struct {
	d       *propertyDirective
	part    part.Property
	value   any
	applied bool
	dirty   bool
}

func (b *propertyBinding) Directive() core.Directive         { return b.d }
func (b *propertyBinding) Value() any                        { return b.value }
func (b *propertyBinding) Part() part.Part                   { return b.part }
func (b *propertyBinding) ShouldBind(v any) bool             { return !core.Identical(v, b.value) }
func (b *propertyBinding) Bind(v any)                        { b.value = v }
func (b *propertyBinding) Connect(*core.UpdateContext) error { b.dirty = true; return nil }
func (b *propertyBinding) Disconnect(*core.UpdateContext)    {}

func (b *propertyBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	n := asNode(b.part.Target)
	n.Props[b.part.Name] = b.value
	b.applied = true
	b.d.b.record(OpSetProp, n, fmt.Sprintf("%s=%v", b.part.Name, b.value))
}

func (b *propertyBinding) Rollback() {
	if !b.applied {
		return
	}
	b.applied = false
	n := asNode(b.part.Target)
	if b.part.DefaultValue == nil {
		delete(n.Props, b.part.Name)
	} else {
		n.Props[b.part.Name] = b.part.DefaultValue
	}
	b.d.b.record(OpSetProp, n, fmt.Sprintf("%s=%v", b.part.Name, b.part.DefaultValue))
}

// Event

type eventDirective struct{ b *Backend }

func (d *eventDirective) Name() string { return "Event" }

func (d *eventDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	ep, ok := p.(part.Event)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindEvent, p)
	}
	return &eventBinding{d: d, part: ep, value: value}, nil
}

type eventBinding struct {
	d       *eventDirective
	part    part.Event
	value   any
	handler func(any)
	applied bool
	dirty   bool
}

func (b *eventBinding) Directive() core.Directive      { return b.d }
func (b *eventBinding) Value() any                     { return b.value }
func (b *eventBinding) Part() part.Part                { return b.part }
func (b *eventBinding) ShouldBind(v any) bool          { return !core.Identical(v, b.value) }
func (b *eventBinding) Bind(v any)                     { b.value = v }
func (b *eventBinding) Disconnect(*core.UpdateContext) {}

func (b *eventBinding) Connect(ctx *core.UpdateContext) error {
	switch h := b.value.(type) {
	case nil:
		b.handler = nil
	case func(any):
		b.handler = h
	case func():
		b.handler = func(any) { h() }
	default:
		return werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("%s listener must be a func(any) or func(), got %T", b.part.Name, b.value).
			WithUnit(ctx.OwnerName())
	}
	b.dirty = true
	return nil
}

func (b *eventBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	if b.handler == nil {
		b.Rollback()
		return
	}
	n := asNode(b.part.Target)
	_, had := n.Events[b.part.Name]
	n.Events[b.part.Name] = b.handler
	b.applied = true
	if !had {
		b.d.b.record(OpSetEvent, n, b.part.Name)
	}
}

func (b *eventBinding) Rollback() {
	if !b.applied {
		return
	}
	b.applied = false
	n := asNode(b.part.Target)
	delete(n.Events, b.part.Name)
	b.d.b.record(OpRemoveEvent, n, b.part.Name)
}

// Spread

type spreadDirective struct{ b *Backend }

func (d *spreadDirective) Name() string { return "Spread" }

func (d *spreadDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	ep, ok := p.(part.Element)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindElement, p)
	}
	return &spreadBinding{d: d, part: ep, value: value}, nil
}

type spreadBinding struct {
	d       *spreadDirective
	part    part.Element
	value   any
	pending Spread
	applied Spread
	dirty   bool
}

func (b *spreadBinding) Directive() core.Directive      { return b.d }
func (b *spreadBinding) Value() any                     { return b.value }
func (b *spreadBinding) Part() part.Part                { return b.part }
func (b *spreadBinding) ShouldBind(v any) bool          { return !core.Identical(v, b.value) }
func (b *spreadBinding) Bind(v any)                     { b.value = v }
func (b *spreadBinding) Disconnect(*core.UpdateContext) {}

func (b *spreadBinding) Connect(ctx *core.UpdateContext) error {
	switch v := b.value.(type) {
	case nil:
		b.pending = nil
	case Spread:
		b.pending = v
	case map[string]string:
		b.pending = v
	default:
		return werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("Spread cannot render %T", b.value).
			WithUnit(ctx.OwnerName())
	}
	b.dirty = true
	return nil
}

func (b *spreadBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	n := asNode(b.part.Target)
	for _, name := range slices.Sorted(maps.Keys(b.applied)) {
		if _, keep := b.pending[name]; !keep {
			delete(n.Attrs, name)
			b.d.b.record(OpRemoveAttr, n, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(b.pending)) {
		v := b.pending[name]
		if cur, ok := b.applied[name]; ok && cur == v {
			continue
		}
		n.Attrs[name] = v
		b.d.b.record(OpSetAttr, n, name+"="+v)
	}
	b.applied = maps.Clone(b.pending)
}

func (b *spreadBinding) Rollback() {
	if len(b.applied) == 0 {
		return
	}
	n := asNode(b.part.Target)
	for _, name := range slices.Sorted(maps.Keys(b.applied)) {
		delete(n.Attrs, name)
		b.d.b.record(OpRemoveAttr, n, name)
	}
	b.applied = nil
}

// Element

type namedSlot struct {
	name string
	slot *core.Slot
}

type entry struct {
	name  string
	value any
	def   any
}

// elementBinding owns an element node, one slot per attribute, property and
// listener, an optional spread slot and a list slot for the children.
type elementBinding struct {
	d     elementDirective
	b     *Backend
	part  part.ChildRange
	value *Element

	node  *Node
	inner part.ChildRange

	attrs    []namedSlot
	props    []namedSlot
	events   []namedSlot
	spread   *core.Slot
	children *core.Slot
	dropped  []*core.Slot

	dirty  bool
	placed bool
}

func (b *elementBinding) Directive() core.Directive { return b.d }
func (b *elementBinding) Value() any                { return b.value }
func (b *elementBinding) Part() part.Part           { return b.part }
func (b *elementBinding) ShouldBind(v any) bool     { return !core.Identical(v, b.value) }

func (b *elementBinding) Bind(v any) {
	if el, ok := v.(*Element); ok {
		b.value = el
	}
}

// Node returns the element node, or nil before the first Connect.
func (b *elementBinding) Node() *Node { return b.node }

func (b *elementBinding) StartNode() part.Node {
	if !b.placed {
		return nil
	}
	return b.node
}

func (b *elementBinding) Connect(ctx *core.UpdateContext) error {
	if b.node == nil {
		b.node = b.b.newNode(ElementNode, b.d.tag, "")
		anchor := b.b.newNode(CommentNode, "", "children")
		anchor.Parent = b.node
		b.node.Children = []*Node{anchor}
		b.inner = part.ChildRange{Anchor: anchor}
	}
	el := b.value

	attrs := make([]entry, len(el.Attrs))
	for i, a := range el.Attrs {
		attrs[i] = entry{name: a.Name, value: a.Value}
	}
	props := make([]entry, len(el.Props))
	for i, p := range el.Props {
		props[i] = entry{name: p.Name, value: p.Value, def: p.Default}
	}
	events := make([]entry, len(el.Events))
	for i, l := range el.Events {
		events[i] = entry{name: l.Name, value: l.Handler}
	}

	var err error
	if b.attrs, err = b.sync(ctx, b.attrs, attrs, func(e entry) part.Part {
		return part.Attribute{Target: b.node, Name: e.name}
	}); err != nil {
		return err
	}
	if b.props, err = b.sync(ctx, b.props, props, func(e entry) part.Part {
		return part.Property{Target: b.node, Name: e.name, DefaultValue: e.def}
	}); err != nil {
		return err
	}
	if b.events, err = b.sync(ctx, b.events, events, func(e entry) part.Part {
		return part.Event{Target: b.node, Name: e.name}
	}); err != nil {
		return err
	}

	if el.Spread != nil || b.spread != nil {
		if b.spread == nil {
			if b.spread, err = ctx.ResolveSlot(el.Spread, part.Element{Target: b.node}); err != nil {
				return err
			}
		} else if _, err := b.spread.Reconcile(el.Spread, ctx); err != nil {
			return err
		}
	}

	children := directive.List(el.Children...)
	if b.children == nil {
		if b.children, err = ctx.ResolveSlot(children, b.inner); err != nil {
			return err
		}
	} else if _, err := b.children.Reconcile(children, ctx); err != nil {
		return err
	}

	b.dirty = true
	return nil
}

// sync reconciles the named slots in cur against want. Slots whose name is
// gone are disconnected and rolled back at the next commit.
func (b *elementBinding) sync(ctx *core.UpdateContext, cur []namedSlot, want []entry, mk func(entry) part.Part) ([]namedSlot, error) {
	used := make([]bool, len(cur))
	next := make([]namedSlot, 0, len(want))
	for _, e := range want {
		i := slices.IndexFunc(cur, func(n namedSlot) bool { return n.name == e.name })
		if i >= 0 && !used[i] {
			used[i] = true
			if _, err := cur[i].slot.Reconcile(e.value, ctx); err != nil {
				return cur, err
			}
			next = append(next, cur[i])
			continue
		}
		s, err := ctx.ResolveSlot(e.value, mk(e))
		if err != nil {
			return cur, err
		}
		next = append(next, namedSlot{name: e.name, slot: s})
	}
	for i, n := range cur {
		if !used[i] {
			n.slot.Disconnect(ctx)
			b.dropped = append(b.dropped, n.slot)
		}
	}
	return next, nil
}

func (b *elementBinding) slots() []*core.Slot {
	var out []*core.Slot
	for _, group := range [][]namedSlot{b.attrs, b.props, b.events} {
		for _, n := range group {
			out = append(out, n.slot)
		}
	}
	if b.spread != nil {
		out = append(out, b.spread)
	}
	if b.children != nil {
		out = append(out, b.children)
	}
	return out
}

func (b *elementBinding) Disconnect(ctx *core.UpdateContext) {
	for _, s := range b.slots() {
		s.Disconnect(ctx)
	}
}

// Detach implements core.Detacher.
func (b *elementBinding) Detach(ctx *core.UpdateContext) {
	for _, s := range b.slots() {
		s.Detach(ctx)
	}
}

func (b *elementBinding) Commit() {
	if !b.dirty {
		return
	}
	b.dirty = false
	for _, s := range b.dropped {
		s.Rollback()
	}
	b.dropped = nil
	for _, s := range b.slots() {
		s.Commit()
	}
	if !b.placed {
		b.b.InsertRange(b.node, b.node, b.part.Anchor)
		b.placed = true
	}
}

// Rollback detaches the element. Its contents stay intact for a later
// reinsert.
func (b *elementBinding) Rollback() {
	if !b.placed {
		return
	}
	b.placed = false
	b.b.RemoveRange(b.node, b.node)
}
