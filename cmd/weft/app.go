package main

import (
	"fmt"

	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/directive"
	"github.com/vango-dev/weft/pkg/vtest"
)

// The demo board is a keyed task list that rotates on every clock tick.
// It exercises reducers, stores, passive effects and keyed moves.

type task struct {
	ID    int
	Title string
	Done  bool
}

type boardProps struct {
	Size  int
	Clock *core.ValueStore[int]
}

type boardAction struct {
	kind string // "add", "rotate" or "toggle"
	id   int
}

type boardState struct {
	tasks []task
	next  int
}

func newBoardState(size int) boardState {
	s := boardState{next: 1}
	for range size {
		s.tasks = append(s.tasks, task{ID: s.next, Title: fmt.Sprintf("task %d", s.next)})
		s.next++
	}
	return s
}

func reduceBoard(s boardState, a boardAction) boardState {
	switch a.kind {
	case "add":
		tasks := append(s.tasks[:len(s.tasks):len(s.tasks)], task{ID: s.next, Title: fmt.Sprintf("task %d", s.next)})
		return boardState{tasks: tasks, next: s.next + 1}
	case "rotate":
		if len(s.tasks) < 2 {
			return s
		}
		tasks := make([]task, 0, len(s.tasks))
		tasks = append(tasks, s.tasks[1:]...)
		tasks = append(tasks, s.tasks[0])
		return boardState{tasks: tasks, next: s.next}
	case "toggle":
		tasks := make([]task, len(s.tasks))
		copy(tasks, s.tasks)
		for i := range tasks {
			if tasks[i].ID == a.id {
				tasks[i].Done = !tasks[i].Done
			}
		}
		return boardState{tasks: tasks, next: s.next}
	default:
		return s
	}
}

var row = core.Define("Row", func(t task, rc *core.RenderContext) any {
	class := "open"
	if t.Done {
		class = "done"
	}
	return vtest.H("li", vtest.A("class", class), vtest.A("data-id", t.ID), t.Title)
})

var board = core.Define("Board", func(p boardProps, rc *core.RenderContext) any {
	state, dispatch := core.UseReducer(rc, reduceBoard, newBoardState(p.Size))
	tick := core.UseStore[int](rc, p.Clock)

	core.UseEffect(rc, func() func() {
		if tick > 0 {
			dispatch.Dispatch(boardAction{kind: "rotate"})
		}
		return nil
	}, []any{tick})

	keys := make([]int, len(state.tasks))
	rows := make([]any, len(state.tasks))
	for i, t := range state.tasks {
		keys[i] = t.ID
		rows[i] = core.Render(row, t)
	}

	var toggle any
	if len(state.tasks) > 0 {
		first := state.tasks[0].ID
		toggle = vtest.H("button", vtest.A("id", "toggle"), vtest.On("click", func() {
			dispatch.Dispatch(boardAction{kind: "toggle", id: first})
		}), "toggle first")
	}

	return vtest.H("section",
		vtest.H("h1", "tick ", tick),
		vtest.H("ul", directive.KeyedList(keys, rows)),
		vtest.H("button", vtest.A("id", "add"), vtest.On("click", func() {
			dispatch.Dispatch(boardAction{kind: "add"})
		}), "add"),
		toggle,
	)
})
