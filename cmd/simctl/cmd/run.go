package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/modsim"
	"github.com/GoCodeAlone/modsim/inspect"
	"github.com/GoCodeAlone/modsim/metrics"
	"github.com/GoCodeAlone/modsim/schedule"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type runOptions struct {
	ticks     uint64
	serve     string
	heartbeat string
	seed      int64
	linger    time.Duration
}

func newRunCommand(global *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run builds a simulator with the metrics, inspect and schedule models and
ticks it until the configured end time, the --ticks limit or SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.RandomSeed = opts.seed
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd, cfg, opts)
		},
	}
	cmd.Flags().Uint64VarP(&opts.ticks, "ticks", "n", 0, "Stop after this many ticks, 0 for no limit")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "Serve /metrics and /inspect on this address, for example :8080")
	cmd.Flags().StringVar(&opts.heartbeat, "heartbeat", "", "Cron spec of a heartbeat log line in simulated time, for example \"@every 1m\"")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Override the random seed of the config")
	cmd.Flags().DurationVar(&opts.linger, "linger", 0, "Keep serving for this long after the simulation ended")
	return cmd
}

func runSimulation(ctx context.Context, cmd *cobra.Command, cfg *modsim.Config, opts *runOptions) error {
	logger := newLogger(cfg, cmd)

	epoch, err := cfg.EpochTime()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	simOpts := []modsim.Option{
		modsim.WithConfig(cfg),
		modsim.WithLogger(logger),
		modsim.WithModels(
			metrics.NewModelBuilder(reg),
			inspect.NewModelBuilder(),
			schedule.NewModelBuilder(epoch),
		),
		modsim.WithObserverFunc("simctl", func(_ context.Context, event cloudevents.Event) error {
			logger.Debug("Simulator event", "type", event.Type(), "id", event.ID())
			return nil
		}),
	}
	if opts.ticks > 0 {
		limit := opts.ticks
		simOpts = append(simOpts, modsim.WithStopCondition(func(c modsim.Clock) bool {
			return c.Ticks() >= limit
		}))
	}

	sim, err := modsim.NewSimulator(simOpts...)
	if err != nil {
		return err
	}

	if opts.heartbeat != "" {
		if _, err := sim.Register(&heartbeat{spec: opts.heartbeat, logger: logger}); err != nil {
			return err
		}
	}

	var srv *http.Server
	if opts.serve != "" {
		srv, err = serve(sim, reg, logger, opts.serve)
		if err != nil {
			return err
		}
		defer shutdown(srv, logger)
	}

	err = sim.Start(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("Simulation interrupted", "time", sim.CurrentTime())
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ticks=%d time=%d unit=%s\n",
		sim.Clock().Ticks(), sim.CurrentTime(), sim.TimeUnit())

	if srv != nil && opts.linger > 0 && ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case <-time.After(opts.linger):
		}
	}
	return nil
}

func serve(sim *modsim.Simulator, reg *prometheus.Registry, logger modsim.Logger, addr string) (*http.Server, error) {
	src, err := modsim.Provide[inspect.Source](sim)
	if err != nil {
		return nil, err
	}
	inspectHandler, err := inspect.NewHandler(src, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/inspect", inspectHandler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()
	logger.Info("Serving simulator state", "addr", ln.Addr().String())
	return srv, nil
}

func shutdown(srv *http.Server, logger modsim.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown failed", "error", err)
	}
}

// heartbeat logs the simulator progress on a cron schedule in simulated time.
type heartbeat struct {
	spec   string
	logger modsim.Logger
	api    modsim.SimulatorAPI
	beats  int
}

func (h *heartbeat) Spec() string { return h.spec }

func (h *heartbeat) SetSimulator(api modsim.SimulatorAPI) { h.api = api }

func (h *heartbeat) Fire(at time.Time, lapse *modsim.TimeLapse) error {
	h.beats++
	h.logger.Info("Heartbeat", "at", at.Format(time.RFC3339), "time", lapse.StartTime(), "beat", h.beats, "step", h.api.TimeStep())
	return nil
}
