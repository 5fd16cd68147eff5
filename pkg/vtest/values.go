package vtest

import (
	"fmt"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/part"
)

// Attr is an attribute argument to H. A nil or false value leaves the
// attribute out; true renders it without a value.
type Attr struct {
	Name  string
	Value any
}

// Prop is a property argument to H. Default is restored on rollback.
type Prop struct {
	Name    string
	Value   any
	Default any
}

// Listener is an event argument to H. Handler is a func(any), a func() or
// nil.
type Listener struct {
	Name    string
	Handler any
}

// Spread sets several attributes through one binding on the element part.
type Spread map[string]string

// A creates an attribute argument.
func A(name string, value any) Attr { return Attr{Name: name, Value: value} }

// P creates a property argument.
func P(name string, value any) Prop { return Prop{Name: name, Value: value} }

// On creates an event listener argument.
func On(name string, handler any) Listener { return Listener{Name: name, Handler: handler} }

// Element is a declarative element. It renders into child ranges only.
type Element struct {
	Tag      string
	Attrs    []Attr
	Props    []Prop
	Events   []Listener
	Spread   Spread
	Children []any
}

// H builds an element. Arguments may be Attr, Prop, Listener, Spread, nil
// (ignored), []any (flattened into children) or any child value.
//
//	vtest.H("ul", vtest.A("class", "todos"),
//	    vtest.H("li", "one"),
//	    vtest.H("li", "two"),
//	)
func H(tag string, args ...any) *Element {
	el := &Element{Tag: tag}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			el.Attrs = append(el.Attrs, v)
		case Prop:
			el.Props = append(el.Props, v)
		case Listener:
			el.Events = append(el.Events, v)
		case Spread:
			el.Spread = v
		case []any:
			el.Children = append(el.Children, v...)
		default:
			el.Children = append(el.Children, v)
		}
	}
	return el
}

// Directive implements core.Bindable.
func (el *Element) Directive() core.Directive { return elementDirective{tag: el.Tag} }

// Value implements core.Bindable.
func (el *Element) Value() any { return el }

// elementDirective is comparable: elements with the same tag share a
// binding.
type elementDirective struct {
	tag string
}

func (d elementDirective) Name() string { return "Element(" + d.tag + ")" }

func (d elementDirective) ResolveBinding(value any, p part.Part, ctx *core.UpdateContext) (core.Binding, error) {
	cr, ok := p.(part.ChildRange)
	if !ok {
		return nil, core.PartMismatch(ctx, d, part.KindChildRange, p)
	}
	b, err := backendOf(ctx)
	if err != nil {
		return nil, err
	}
	el, ok := value.(*Element)
	if !ok {
		return nil, werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("%s cannot render %T", d.Name(), value)
	}
	return &elementBinding{d: d, b: b, part: cr, value: el}, nil
}

func backendOf(ctx *core.UpdateContext) (*Backend, error) {
	b, ok := ctx.Runtime().Backend().(*Backend)
	if !ok {
		return nil, werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("vtest elements need a vtest backend, got %T", ctx.Runtime().Backend()).
			WithUnit(ctx.OwnerName())
	}
	return b, nil
}

// textOf formats the values the backend renders as text.
func textOf(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}
