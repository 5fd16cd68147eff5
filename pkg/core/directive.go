package core

import (
	"errors"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/part"
)

// Directive describes how to adapt a value to a part. Directives are
// stateless; all per-location state lives in the Binding they resolve.
//
// Two directives at the same part are interchangeable when SameDirective
// reports true. Directives that are not comparable with == must implement
// Equal(Directive) bool.
type Directive interface {
	// Name identifies the directive in errors and traces.
	Name() string

	// ResolveBinding creates the binding for value at p. The returned
	// binding's Part must equal p. Directives that only support some part
	// kinds return a PartMismatch error for the others.
	ResolveBinding(value any, p part.Part, ctx *UpdateContext) (Binding, error)
}

// Bindable is a value that names its own directive. Values that are not
// Bindable are handed to Backend.ResolveDirective.
type Bindable interface {
	Directive() Directive
	Value() any
}

type directValue struct {
	directive Directive
	value     any
}

func (v directValue) Directive() Directive { return v.directive }
func (v directValue) Value() any           { return v.value }

// Direct pairs a directive with its payload.
func Direct(d Directive, value any) Bindable {
	return directValue{directive: d, value: value}
}

// resolveDirective splits value into a directive and the payload to bind.
func (c *UpdateContext) resolveDirective(value any, p part.Part) (Directive, any, error) {
	if b, ok := value.(Bindable); ok {
		if d := b.Directive(); d != nil {
			return d, b.Value(), nil
		}
	}
	d, err := c.rt.backend.ResolveDirective(value, p)
	if err != nil {
		var e *werrors.Error
		if errors.As(err, &e) {
			return nil, nil, unitError(err, c.OwnerName())
		}
		return nil, nil, werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("no directive for %T at %s", value, part.Describe(p)).
			WithUnit(c.OwnerName()).
			Wrap(err)
	}
	if d == nil {
		return nil, nil, werrors.New(werrors.CodeUnresolvedValue).
			WithDetailf("no directive for %T at %s", value, part.Describe(p)).
			WithUnit(c.OwnerName())
	}
	return d, value, nil
}
