package core

import (
	"errors"
	"fmt"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/part"
)

var (
	// ErrRuntimeClosed is returned by tasks scheduled after Close.
	ErrRuntimeClosed = errors.New("core: runtime closed")

	// ErrTaskCancelled rejects tasks that were still queued when the
	// runtime closed.
	ErrTaskCancelled = errors.New("core: task cancelled")

	// ErrFlushInProgress is returned by FlushSync when called while another
	// flush is running (including from inside a render or commit).
	ErrFlushInProgress = errors.New("core: flush already in progress")
)

// PartMismatch builds the protocol error a directive returns when it is
// resolved at a part kind it does not support.
func PartMismatch(ctx *UpdateContext, d Directive, want part.Kind, got part.Part) error {
	return werrors.New(werrors.CodePartMismatch).
		WithDetailf("%s expects a %s part, got %s", d.Name(), want, part.Describe(got)).
		WithUnit(ctx.OwnerName()).
		WithSuggestion(fmt.Sprintf("Render %s inside element content", d.Name()))
}

func directiveName(d Directive) string {
	if d == nil {
		return "<nil>"
	}
	return d.Name()
}

// unitError attaches the render unit name to structured errors that do not
// carry one yet.
func unitError(err error, unit string) error {
	var e *werrors.Error
	if errors.As(err, &e) && e.Unit == "" {
		e.Unit = unit
	}
	return err
}
