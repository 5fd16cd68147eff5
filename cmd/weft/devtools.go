package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/weft/internal/config"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/devtools"
	"github.com/vango-dev/weft/pkg/lane"
	"github.com/vango-dev/weft/pkg/loop"
	"github.com/vango-dev/weft/pkg/telemetry"
	"github.com/vango-dev/weft/pkg/vtest"
)

func devtoolsCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		addr     string
		size     int
		interval time.Duration
		tracing  bool
	)

	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Run the demo board with the devtools inspector",
		Long: `Run the demo board on a live event loop and serve the devtools
inspector. The board's clock ticks every --interval.

Routes:
  /healthz         liveness probe
  /metrics         Prometheus metrics
  /events          websocket stream of scheduler events
  /events/recent   recently buffered events
  /tree            current HTML of the board

Examples:
  weft devtools
  weft devtools --addr=:7070 --interval=500ms --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devtools.Addr = addr
			}
			if tracing {
				cfg.Telemetry.Tracing = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDevtools(ctx, cfg, size, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&size, "size", 6, "Number of tasks on the board")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Clock tick interval")
	cmd.Flags().BoolVar(&tracing, "trace", false, "Export task spans to stderr")

	return cmd
}

func runDevtools(ctx context.Context, cfg *config.Config, size int, interval time.Duration) error {
	logger := cfg.Logger(os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend := vtest.New()
	lp := loop.New(loop.WithLogger(logger))

	srv := devtools.New(
		devtools.WithLogger(logger),
		devtools.WithGatherer(reg),
		devtools.WithEventBuffer(cfg.Devtools.EventBuffer),
		devtools.WithTreeTimeout(cfg.TreeTimeout()),
		devtools.WithTree(func(ctx context.Context) (string, error) {
			var html string
			err := lp.Call(ctx, func() { html = backend.HTML() })
			return html, err
		}),
	)

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithConfig(cfg.Core()),
		core.WithObserver(srv),
	}
	if cfg.Telemetry.Metrics {
		opts = append(opts, core.WithObserver(telemetry.NewMetrics(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Telemetry.Namespace),
		)))
	}
	if cfg.Telemetry.Tracing {
		tp, err := newTracerProvider(os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown", "error", err)
			}
		}()
		otel.SetTracerProvider(tp)
		opts = append(opts, core.WithObserver(telemetry.NewTracer()))
	}

	rt := core.New(backend, lp, opts...)
	root := rt.Mount(backend.Container())
	clock := core.NewValueStore(0)
	if err := lp.Dispatch(func() {
		root.Update(core.Render(board, boardProps{Size: size, Clock: clock}), lane.Options{})
	}); err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Devtools.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	printBanner()
	success("devtools listening on http://%s", cfg.Devtools.Addr)
	info("clock interval %s, %d tasks", interval, size)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := lp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, loop.ErrClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return tick(ctx, lp, clock, interval)
	})

	err := g.Wait()
	rt.Close()
	lp.Close()
	logger.Info("devtools stopped")
	return err
}

// tick advances clock on the loop every interval until ctx is done.
func tick(ctx context.Context, lp *loop.Loop, clock *core.ValueStore[int], interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n++
			v := n
			if err := lp.Dispatch(func() { clock.Set(v) }); err != nil {
				return nil
			}
		}
	}
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp)), nil
}
