package vtest

import (
	"fmt"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/directive"
	"github.com/vango-dev/weft/pkg/part"
)

// Op names a recorded host mutation.
type Op string

const (
	OpInsert      Op = "insert"
	OpRemove      Op = "remove"
	OpText        Op = "text"
	OpSetAttr     Op = "set-attr"
	OpRemoveAttr  Op = "remove-attr"
	OpSetProp     Op = "set-prop"
	OpSetEvent    Op = "set-event"
	OpRemoveEvent Op = "remove-event"
)

// Record is one host mutation in the backend's log.
type Record struct {
	Seq    int
	Phase  core.Phase // zero outside CommitEffects
	Op     Op
	Node   string
	Detail string
}

func (r Record) String() string {
	if r.Detail == "" {
		return fmt.Sprintf("%s %s", r.Op, r.Node)
	}
	return fmt.Sprintf("%s %s %s", r.Op, r.Node, r.Detail)
}

// PhaseCommit is one CommitEffects call.
type PhaseCommit struct {
	Phase   core.Phase
	Effects int
}

// Backend is an in-memory core.Backend. Child ranges render before comment
// anchors; every mutation is appended to a log.
type Backend struct {
	root      *Node
	container part.ChildRange
	seq       int

	phase       core.Phase
	records     []Record
	commits     []PhaseCommit
	transitions int

	text      *textDirective
	empty     *emptyDirective
	attribute *attributeDirective
	property  *propertyDirective
	event     *eventDirective
	spread    *spreadDirective
}

var _ core.Backend = (*Backend)(nil)

// New creates a backend with an empty root element.
func New() *Backend {
	b := &Backend{}
	b.root = b.newNode(ElementNode, "#root", "")
	anchor := b.newNode(CommentNode, "", "root")
	anchor.Parent = b.root
	b.root.Children = []*Node{anchor}
	b.container = part.ChildRange{Anchor: anchor}

	b.text = &textDirective{b: b}
	b.empty = &emptyDirective{}
	b.attribute = &attributeDirective{b: b}
	b.property = &propertyDirective{b: b}
	b.event = &eventDirective{b: b}
	b.spread = &spreadDirective{b: b}
	return b
}

func (b *Backend) newNode(kind NodeKind, tag, data string) *Node {
	b.seq++
	n := &Node{Kind: kind, Tag: tag, Data: data, id: b.seq}
	if kind == ElementNode {
		n.Attrs = make(map[string]string)
		n.Props = make(map[string]any)
		n.Events = make(map[string]func(any))
	}
	return n
}

// Root returns the root element. Its children are what was rendered into
// Container.
func (b *Backend) Root() *Node { return b.root }

// Container returns the child range to mount a runtime root at.
func (b *Backend) Container() part.ChildRange { return b.container }

// HTML serializes the rendered tree.
func (b *Backend) HTML() string { return b.root.HTML() }

// Find returns the first rendered element with the given tag.
func (b *Backend) Find(tag string) *Node { return b.root.Find(tag) }

// FindAll returns the rendered elements with the given tag.
func (b *Backend) FindAll(tag string) []*Node { return b.root.FindAll(tag) }

// Records returns the mutation log.
func (b *Backend) Records() []Record { return b.records }

// Commits returns every CommitEffects call in order.
func (b *Backend) Commits() []PhaseCommit { return b.commits }

// Transitions returns how many view transitions were started.
func (b *Backend) Transitions() int { return b.transitions }

// Reset clears the mutation log and commit history.
func (b *Backend) Reset() {
	b.records = nil
	b.commits = nil
	b.transitions = 0
}

// Dispatch calls the listener registered for event on n and reports whether
// one was found.
func (b *Backend) Dispatch(n *Node, event string, payload any) bool {
	if n == nil {
		return false
	}
	h := n.Events[event]
	if h == nil {
		return false
	}
	h(payload)
	return true
}

func (b *Backend) record(op Op, n *Node, detail string) {
	b.records = append(b.records, Record{
		Seq:    len(b.records) + 1,
		Phase:  b.phase,
		Op:     op,
		Node:   n.String(),
		Detail: detail,
	})
}

// CreateChildRange implements core.Tree.
func (b *Backend) CreateChildRange(container part.ChildRange) part.ChildRange {
	return part.ChildRange{Anchor: b.newNode(CommentNode, "", "item")}
}

// InsertRange implements core.Tree.
func (b *Backend) InsertRange(start, end, before part.Node) {
	s, e, ref := asNode(start), asNode(end), asNode(before)
	run := detachRun(s, e)
	insertBefore(run, ref)
	b.record(OpInsert, s, "before "+ref.String())
}

// RemoveRange implements core.Tree.
func (b *Backend) RemoveRange(start, end part.Node) {
	s := asNode(start)
	detachRun(s, asNode(end))
	b.record(OpRemove, s, "")
}

func asNode(n part.Node) *Node {
	node, ok := n.(*Node)
	if !ok || node == nil {
		panic(fmt.Sprintf("vtest: %T is not a vtest node", n))
	}
	return node
}

// ResolveDirective implements core.Backend. Child ranges accept nil, text
// values and slices; named parts take the matching host directive.
func (b *Backend) ResolveDirective(value any, p part.Part) (core.Directive, error) {
	switch p.Kind() {
	case part.KindChildRange:
		switch v := value.(type) {
		case nil:
			return b.empty, nil
		case []any:
			bv := directive.List(v...)
			return bv.Directive(), nil
		}
		if _, ok := textOf(value); ok {
			return b.text, nil
		}
	case part.KindAttribute:
		return b.attribute, nil
	case part.KindProperty:
		return b.property, nil
	case part.KindEvent:
		return b.event, nil
	case part.KindElement:
		return b.spread, nil
	}
	return nil, werrors.New(werrors.CodeUnresolvedValue).
		WithDetailf("vtest cannot render %T at %s", value, part.Describe(p))
}

// SlotPolicy implements core.Backend. Child ranges are loose, named parts
// strict.
func (b *Backend) SlotPolicy(p part.Part) core.SlotPolicy {
	if p.Kind() == part.KindChildRange {
		return core.SlotLoose
	}
	return core.SlotStrict
}

// CommitEffects implements core.Backend.
func (b *Backend) CommitEffects(effects []core.Effect, phase core.Phase) {
	b.commits = append(b.commits, PhaseCommit{Phase: phase, Effects: len(effects)})
	prev := b.phase
	b.phase = phase
	defer func() { b.phase = prev }()
	core.CommitEffects(effects)
}

// StartViewTransition implements core.Backend.
func (b *Backend) StartViewTransition(fn func()) {
	b.transitions++
	fn()
}
