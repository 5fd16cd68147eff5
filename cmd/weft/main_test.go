package main

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/vango-dev/weft/internal/config"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

func rowIDs(h *vtest.Harness) []string {
	var ids []string
	for _, li := range h.Backend.FindAll("li") {
		id, _ := li.Attr("data-id")
		ids = append(ids, id)
	}
	return ids
}

func TestBoardRotatesOnTick(t *testing.T) {
	h := vtest.NewHarness()
	clock := core.NewValueStore(0)

	task := h.Root.Update(core.Render(board, boardProps{Size: 3, Clock: clock}), lane.Options{})
	if err := vtest.Settle(t, h, task); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if got := strings.Join(rowIDs(h), ","); got != "1,2,3" {
		t.Fatalf("rows = %s, want 1,2,3", got)
	}
	lis := h.Backend.FindAll("li")

	clock.Set(1)
	h.Drain()
	if got := strings.Join(rowIDs(h), ","); got != "2,3,1" {
		t.Errorf("rows after tick = %s, want 2,3,1", got)
	}
	vtest.ExpectContains(t, h, "<h1>tick 1</h1>")

	moved := h.Backend.FindAll("li")
	if moved[2] != lis[0] {
		t.Error("rotated row was recreated instead of moved")
	}
}

func TestBoardButtons(t *testing.T) {
	h := vtest.NewHarness()
	clock := core.NewValueStore(0)
	h.Render(core.Render(board, boardProps{Size: 2, Clock: clock}))

	h.Click("button")
	if got := strings.Join(rowIDs(h), ","); got != "1,2,3" {
		t.Errorf("rows after add = %s, want 1,2,3", got)
	}

	var toggle *vtest.Node
	for _, b := range h.Backend.FindAll("button") {
		if id, _ := b.Attr("id"); id == "toggle" {
			toggle = b
		}
	}
	if toggle == nil {
		t.Fatal("toggle button not rendered")
	}
	h.Backend.Dispatch(toggle, "click", nil)
	h.Drain()
	vtest.ExpectContains(t, h, `<li class="done" data-id="1">task 1</li>`)
}

func TestReduceBoard(t *testing.T) {
	s := newBoardState(1)
	if got := reduceBoard(s, boardAction{kind: "rotate"}); len(got.tasks) != 1 {
		t.Errorf("rotate of one task changed length")
	}
	s = reduceBoard(s, boardAction{kind: "add"})
	if len(s.tasks) != 2 || s.tasks[1].ID != 2 || s.next != 3 {
		t.Errorf("add = %+v", s)
	}
	toggled := reduceBoard(s, boardAction{kind: "toggle", id: 2})
	if !toggled.tasks[1].Done || s.tasks[1].Done {
		t.Error("toggle must copy the task slice")
	}
}

func TestSequences(t *testing.T) {
	opts := benchOptions{Size: 10, Rounds: 3, Churn: 0.2, Seed: 7}
	seqs := sequences(opts)
	if len(seqs) != 4 {
		t.Fatalf("len = %d, want 4", len(seqs))
	}
	for i, keys := range seqs {
		seen := map[int]bool{}
		for _, k := range keys {
			if seen[k] {
				t.Errorf("sequence %d repeats key %d", i, k)
			}
			seen[k] = true
		}
		if len(keys) != opts.Size {
			t.Errorf("sequence %d has %d keys", i, len(keys))
		}
	}

	again := sequences(opts)
	for i := range seqs {
		if !slices.Equal(seqs[i], again[i]) {
			t.Fatal("same seed produced different sequences")
		}
	}
}

func TestRunBench(t *testing.T) {
	results, err := runBench(benchOptions{Size: 50, Rounds: 5, Churn: 0.1, Seed: 3})
	if err != nil {
		t.Fatalf("runBench: %v", err)
	}
	if len(results) != 2 || results[0].Name != "reconcile" || results[1].Name != "render" {
		t.Fatalf("results = %+v", results)
	}
	r := results[0]
	if r.Inserts != 5*5 || r.Removes != 5*5 {
		t.Errorf("inserts=%d removes=%d, want 25 each", r.Inserts, r.Removes)
	}
	if results[1].Records == 0 {
		t.Error("render bench recorded no host mutations")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q, want %q", out, version)
	}
}

func TestBenchCommandJSON(t *testing.T) {
	out, err := execute(t, "bench", "--size=20", "--rounds=2", "--json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	var decoded struct {
		Options benchOptions  `json:"options"`
		Results []benchResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if decoded.Options.Size != 20 || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestBenchCommandRejectsBadFlags(t *testing.T) {
	if _, err := execute(t, "bench", "--churn=2"); err == nil {
		t.Error("churn above 1 was accepted")
	}
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	cfg := config.New()
	cfg.Log.Level = "error"
	if err := runDemo(&out, cfg, 3, 2); err != nil {
		t.Fatalf("runDemo: %v", err)
	}
	for _, want := range []string{"== mount", "== tick 2", "== add", "insert="} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("demo output missing %q", want)
		}
	}
}
