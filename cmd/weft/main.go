package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weft/internal/config"
	werrors "github.com/vango-dev/weft/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┌─┐┌┬┐
  ║║║├┤ ├┤  │
  ╚╩╝└─┘└   ┴
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		var e *werrors.Error
		if stderrors.As(err, &e) {
			fmt.Fprint(os.Stderr, e.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:   "weft",
		Short: "Incremental update runtime tooling",
		Long: `weft drives the incremental update runtime outside a host.

Commands render a demo tree into the in-memory test backend,
benchmark keyed reconciliation, and serve the devtools inspector
(metrics, scheduler events, tree dumps) for a live runtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing weft.yaml or weft.json")

	load := func() (*config.Config, error) {
		return config.LoadOrDefault(configDir)
	}

	root.AddCommand(
		demoCmd(load),
		benchCmd(),
		devtoolsCmd(load),
		versionCmd(),
	)
	return root
}

// printBanner prints the weft ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
