package core

import (
	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/part"
)

// maxSlotCache bounds how many previous bindings a loose slot retains.
const maxSlotCache = 4

// SlotOp reports what a Slot did with a new value.
type SlotOp uint8

const (
	SlotNone   SlotOp = iota // value unchanged, nothing to commit
	SlotUpdate               // same directive, binding rebound
	SlotInsert               // new directive, fresh binding
	SlotMove                 // new directive, binding reused from the cache
)

// String returns the string representation of the SlotOp.
func (op SlotOp) String() string {
	switch op {
	case SlotUpdate:
		return "update"
	case SlotInsert:
		return "insert"
	case SlotMove:
		return "move"
	default:
		return "none"
	}
}

// Slot owns the live binding at one part and decides what happens when the
// directive of the bound value changes.
type Slot struct {
	part   part.Part
	policy SlotPolicy

	binding   Binding   // current, possibly pending
	committed Binding   // binding whose mutation is in the tree
	retired   []Binding // replaced bindings, rolled back on the next commit
	cache     []Binding // loose slots only

	dirty bool
	live  bool
}

// NewSlot wraps an unconnected binding.
func NewSlot(b Binding, policy SlotPolicy) *Slot {
	return &Slot{part: b.Part(), policy: policy, binding: b}
}

// ResolveSlot resolves value at p, wraps the binding in a slot using the
// backend's policy for p and connects it.
func (c *UpdateContext) ResolveSlot(value any, p part.Part) (*Slot, error) {
	d, v, err := c.resolveDirective(value, p)
	if err != nil {
		return nil, err
	}
	b, err := c.resolveBinding(d, v, p)
	if err != nil {
		return nil, err
	}
	s := NewSlot(b, c.rt.backend.SlotPolicy(p))
	if err := s.Connect(c); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *UpdateContext) resolveBinding(d Directive, v any, p part.Part) (Binding, error) {
	b, err := d.ResolveBinding(v, p, c)
	if err != nil {
		return nil, unitError(err, c.OwnerName())
	}
	if !Identical(b.Part(), p) {
		return nil, werrors.New(werrors.CodePartMismatch).
			WithDetailf("%s resolved a binding for %s, want %s", d.Name(), part.Describe(b.Part()), part.Describe(p)).
			WithUnit(c.OwnerName())
	}
	return b, nil
}

// Part returns the slot's part.
func (s *Slot) Part() part.Part { return s.part }

// Policy returns the slot's policy.
func (s *Slot) Policy() SlotPolicy { return s.policy }

// Binding returns the current binding.
func (s *Slot) Binding() Binding { return s.binding }

// StartNode returns the first node of the committed extent, or the part's
// node when nothing is committed.
func (s *Slot) StartNode() part.Node {
	if s.committed == nil {
		return s.part.Node()
	}
	return StartNode(s.committed)
}

// Connect connects the current binding.
func (s *Slot) Connect(ctx *UpdateContext) error {
	if err := s.binding.Connect(ctx); err != nil {
		return err
	}
	s.dirty = true
	s.live = true
	return nil
}

// Reconcile binds value to the slot.
func (s *Slot) Reconcile(value any, ctx *UpdateContext) (SlotOp, error) {
	d, v, err := ctx.resolveDirective(value, s.part)
	if err != nil {
		return SlotNone, err
	}

	if SameDirective(d, s.binding.Directive()) {
		if s.live && !s.binding.ShouldBind(v) {
			return SlotNone, nil
		}
		s.binding.Bind(v)
		if err := s.Connect(ctx); err != nil {
			return SlotNone, err
		}
		return SlotUpdate, nil
	}

	if s.policy == SlotStrict {
		return SlotNone, werrors.New(werrors.CodeStrictSlotMismatch).
			WithDetailf("expected %q, got %q at %s", directiveName(s.binding.Directive()), directiveName(d), part.Describe(s.part)).
			WithUnit(ctx.OwnerName()).
			WithSuggestion("Keep the same kind of value at this position, or render it in element content")
	}

	old := s.binding
	detach(old, ctx)
	if !containsBinding(s.retired, old) {
		s.retired = append(s.retired, old)
	}
	s.remember(old, ctx)

	if b := s.takeCached(d); b != nil {
		// Still in the tree if it was swapped out during this frame.
		s.retired = removeBinding(s.retired, b)
		s.binding = b
		b.Bind(v)
		if err := s.Connect(ctx); err != nil {
			return SlotNone, err
		}
		return SlotMove, nil
	}

	b, err := ctx.resolveBinding(d, v, s.part)
	if err != nil {
		return SlotNone, err
	}
	s.binding = b
	if err := s.Connect(ctx); err != nil {
		return SlotNone, err
	}
	return SlotInsert, nil
}

// Disconnect disconnects the current binding and releases the cache.
func (s *Slot) Disconnect(ctx *UpdateContext) {
	s.binding.Disconnect(ctx)
	for _, b := range s.cache {
		if b != s.binding {
			b.Disconnect(ctx)
		}
	}
	s.cache = nil
	s.live = false
}

// Detach detaches the current binding, keeping its state and the cache for
// a later Reconcile.
func (s *Slot) Detach(ctx *UpdateContext) {
	detach(s.binding, ctx)
	s.live = false
}

func detach(b Binding, ctx *UpdateContext) {
	if d, ok := b.(Detacher); ok {
		d.Detach(ctx)
		return
	}
	b.Disconnect(ctx)
}

// Commit rolls back retired bindings, then commits the current one.
func (s *Slot) Commit() {
	for _, b := range s.retired {
		b.Rollback()
	}
	s.retired = nil
	if !s.dirty {
		return
	}
	s.dirty = false
	s.binding.Commit()
	s.committed = s.binding
}

// Rollback reverses every committed binding of the slot.
func (s *Slot) Rollback() {
	for _, b := range s.retired {
		b.Rollback()
	}
	s.retired = nil
	s.binding.Rollback()
	s.committed = nil
	s.dirty = false
	s.live = false
}

func (s *Slot) remember(b Binding, ctx *UpdateContext) {
	for i, c := range s.cache {
		if SameDirective(c.Directive(), b.Directive()) {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			if c != b {
				c.Disconnect(ctx)
			}
			break
		}
	}
	s.cache = append(s.cache, b)
	if len(s.cache) > maxSlotCache {
		s.cache[0].Disconnect(ctx)
		s.cache = s.cache[1:]
	}
}

func (s *Slot) takeCached(d Directive) Binding {
	for i, c := range s.cache {
		if SameDirective(c.Directive(), d) {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			return c
		}
	}
	return nil
}

func containsBinding(list []Binding, b Binding) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

func removeBinding(list []Binding, b Binding) []Binding {
	for i, x := range list {
		if x == b {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
