package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weft/internal/config"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/vtest"
)

func demoCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		size  int
		ticks int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the demo board and print each commit",
		Long: `Render the demo board into the in-memory backend, advance its
clock and print the tree and the host mutations of every step.

Examples:
  weft demo
  weft demo --size=8 --ticks=5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), cfg, size, ticks)
		},
	}

	cmd.Flags().IntVar(&size, "size", 4, "Number of tasks on the board")
	cmd.Flags().IntVar(&ticks, "ticks", 3, "Number of clock ticks to run")

	return cmd
}

func runDemo(out io.Writer, cfg *config.Config, size, ticks int) error {
	logger := cfg.Logger(os.Stderr)
	h := vtest.NewHarness(core.WithLogger(logger), core.WithConfig(cfg.Core()))
	defer h.Runtime.Close()

	clock := core.NewValueStore(0)
	step := func(label string, action func() *core.Task) error {
		before := len(h.Backend.Records())
		t := action()
		h.Drain()
		if t != nil {
			if !t.Settled() {
				return fmt.Errorf("%s: task %d did not settle", label, t.ID())
			}
			if err := t.Err(); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "== %s\n%s\n", label, h.HTML())
		fmt.Fprintf(out, "   %s\n\n", summarize(h.Backend.Records()[before:]))
		return nil
	}

	err := step("mount", func() *core.Task {
		return h.Root.Update(core.Render(board, boardProps{Size: size, Clock: clock}), lane.Options{})
	})
	if err != nil {
		return err
	}
	for i := 1; i <= ticks; i++ {
		err := step(fmt.Sprintf("tick %d", i), func() *core.Task {
			clock.Set(i)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return step("add", func() *core.Task {
		h.Click("button")
		return nil
	})
}

// summarize counts records by op.
func summarize(records []vtest.Record) string {
	if len(records) == 0 {
		return "no host mutations"
	}
	counts := map[vtest.Op]int{}
	for _, r := range records {
		counts[r.Op]++
	}
	parts := make([]string, 0, len(counts))
	for op, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", op, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
