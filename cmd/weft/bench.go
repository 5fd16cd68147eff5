package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/directive"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/vtest"
)

type benchOptions struct {
	Size   int     `json:"size"`
	Rounds int     `json:"rounds"`
	Churn  float64 `json:"churn"`
	Seed   uint64  `json:"seed"`
}

type benchResult struct {
	Name     string        `json:"name"`
	Rounds   int           `json:"rounds"`
	Total    time.Duration `json:"totalNs"`
	PerRound time.Duration `json:"perRoundNs"`
	Inserts  int           `json:"inserts"`
	Moves    int           `json:"moves"`
	Updates  int           `json:"updates"`
	Removes  int           `json:"removes"`
	Records  int           `json:"records,omitempty"`
}

func benchCmd() *cobra.Command {
	var (
		opts    benchOptions
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark keyed reconciliation",
		Long: `Benchmark keyed reconciliation on random permutations.

Each round shuffles the keys, drops and adds a fraction of them
(--churn) and reconciles the previous sequence against the new one.
"reconcile" measures the diff alone and checks that replaying its
ops yields the new order; "render" renders the same sequences as a
keyed list into the in-memory backend.

Examples:
  weft bench
  weft bench --size=5000 --rounds=20 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Size < 1 || opts.Rounds < 1 || opts.Churn < 0 || opts.Churn > 1 {
				return werrors.New(werrors.CodeCLIUsage).
					WithDetail("size and rounds must be positive and churn between 0 and 1")
			}
			results, err := runBench(opts)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeBenchJSON(cmd.OutOrStdout(), opts, results)
			}
			writeBenchTable(cmd.OutOrStdout(), opts, results)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Size, "size", 1000, "Number of keyed items")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", 50, "Number of reconciliations")
	cmd.Flags().Float64Var(&opts.Churn, "churn", 0.1, "Fraction of keys replaced each round")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")

	return cmd
}

// sequences returns opts.Rounds+1 key orders, each derived from the last.
func sequences(opts benchOptions) [][]int {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	next := 0
	cur := make([]int, opts.Size)
	for i := range cur {
		cur[i] = next
		next++
	}
	out := [][]int{cur}
	for range opts.Rounds {
		keys := append([]int(nil), cur...)
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		for i := range int(float64(len(keys)) * opts.Churn) {
			keys[i] = next
			next++
		}
		out = append(out, keys)
		cur = keys
	}
	return out
}

func runBench(opts benchOptions) ([]benchResult, error) {
	seqs := sequences(opts)

	diff := benchResult{Name: "reconcile", Rounds: opts.Rounds}
	items := make([]*reconcile.Item[int, struct{}], opts.Size)
	for i, k := range seqs[0] {
		items[i] = &reconcile.Item[int, struct{}]{Key: k}
	}
	for _, keys := range seqs[1:] {
		start := time.Now()
		res := reconcile.Reconcile(items, len(keys), reconcile.Selector[int]{
			Key: func(i int) int { return keys[i] },
		})
		diff.Total += time.Since(start)
		diff.Inserts += res.Inserts
		diff.Moves += res.Moves
		diff.Updates += res.Updates
		diff.Removes += res.Removes

		got, err := reconcile.Apply(items, res.Ops)
		if err != nil {
			return nil, err
		}
		for i, it := range got {
			if it.Key != keys[i] {
				return nil, fmt.Errorf("reconcile: position %d holds key %d, want %d", i, it.Key, keys[i])
			}
		}
		items = res.Items
	}
	diff.PerRound = diff.Total / time.Duration(opts.Rounds)

	render := benchResult{Name: "render", Rounds: opts.Rounds}
	h := vtest.NewHarness()
	defer h.Runtime.Close()
	list := func(keys []int) any {
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = k
		}
		return directive.KeyedList(keys, values)
	}
	if err := h.Render(list(seqs[0])).Err(); err != nil {
		return nil, err
	}
	for _, keys := range seqs[1:] {
		before := len(h.Backend.Records())
		start := time.Now()
		t := h.Render(list(keys))
		render.Total += time.Since(start)
		if err := t.Err(); err != nil {
			return nil, err
		}
		render.Records += len(h.Backend.Records()) - before
	}
	render.PerRound = render.Total / time.Duration(opts.Rounds)

	return []benchResult{diff, render}, nil
}

func writeBenchTable(out io.Writer, opts benchOptions, results []benchResult) {
	fmt.Fprintf(out, "size=%d rounds=%d churn=%.2f seed=%d\n\n", opts.Size, opts.Rounds, opts.Churn, opts.Seed)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPER ROUND\tINSERTS\tMOVES\tUPDATES\tREMOVES\tRECORDS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Name, r.PerRound, r.Inserts, r.Moves, r.Updates, r.Removes, r.Records)
	}
	w.Flush()
}

func writeBenchJSON(out io.Writer, opts benchOptions, results []benchResult) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Options benchOptions  `json:"options"`
		Results []benchResult `json:"results"`
	}{opts, results})
}
