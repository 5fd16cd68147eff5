package core

import (
	"fmt"
	"runtime/debug"

	werrors "github.com/vango-dev/weft/internal/errors"
)

// Scope is one link of the context chain. Every render unit gets its own
// scope whose parent is the scope it was rendered in. Scopes carry context
// values and error handlers.
type Scope struct {
	parent  *Scope
	values  map[any]any
	handler func(error) error
}

// NewScope creates a scope below parent. parent may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Set stores a context value visible to this scope and its descendants.
func (s *Scope) Set(key, value any) {
	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// Lookup finds the nearest value for key, walking up the chain.
func (s *Scope) Lookup(key any) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetErrorHandler registers h for errors raised by descendants of this
// scope. h returns nil when it handled the error, or an error (the same or a
// new one) to keep propagating.
func (s *Scope) SetErrorHandler(h func(error) error) {
	s.handler = h
}

// HandleError routes err to the nearest handler, starting at s. It returns
// nil when a handler absorbed the error and the remaining error otherwise.
// Protocol errors are never routed.
func (s *Scope) HandleError(err error) error {
	if err == nil || werrors.IsProtocol(err) {
		return err
	}
	for sc := s; sc != nil && err != nil; sc = sc.parent {
		if sc.handler != nil {
			err = callHandler(sc.handler, err)
		}
	}
	return err
}

func callHandler(h func(error) error, err error) (out error) {
	defer func() {
		if r := recover(); r != nil {
			out = werrors.New(werrors.CodeRenderPanic).
				WithDetail(fmt.Sprintf("error handler panicked: %v", r)).
				WithStack(debug.Stack()).
				Wrap(err)
		}
	}()
	return h(err)
}
