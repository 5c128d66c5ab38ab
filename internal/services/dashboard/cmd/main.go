package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/smartfarm/internal/logging"
	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/smartfarm/internal/services/dashboard"
	"github.com/LeonardoBeccarini/smartfarm/pkg/mqttbus"
)

var version = "dev"

func main() {
	if err := newRootCmd(loadConfig()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "smartfarm",
		Short:        "Smart Farm monitoring dashboard",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(cfg), newGenerateCmd(cfg))
	return root
}

func newLogger(cfg Config, out io.Writer) *slog.Logger {
	return logging.New(logging.Options{
		AppEnv:  cfg.AppEnv,
		Level:   logging.ParseLevel(cfg.LogLevel),
		Version: version,
		Output:  out,
	}, "smartfarm")
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(cfg, os.Stdout))
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	f.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	f.DurationVar(&cfg.RefreshDelay, "refresh-delay", cfg.RefreshDelay, "simulated refresh latency")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = time-seeded)")
	f.StringVar(&cfg.MQTT.Host, "mqtt-host", cfg.MQTT.Host, "MQTT broker host (empty disables)")
	return cmd
}

func serve(ctx context.Context, cfg Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if err := dashboard.LoadTemplates(); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	metrics := dashboard.NewMetrics()
	svc, err := dashboard.NewService(dashboard.Options{
		Generator: generator(cfg.Seed),
		Delay:     cfg.RefreshDelay,
		Location:  loc,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MQTT.Enabled() {
		if bridge := connectBridge(ctx, cfg, metrics, logger); bridge != nil {
			for _, r := range svc.Refreshers() {
				bridge.Attach(r)
			}
			g.Go(func() error {
				if err := bridge.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	var health *dashboard.GRPCHealth
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		health = dashboard.NewGRPCHealth(logger)
		g.Go(func() error { return health.Serve(ctx, lis) })
	}

	api := dashboard.NewAPI(svc, metrics, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(os.Stdout),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "tz", loc.String(), "refresh_delay", cfg.RefreshDelay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if health != nil {
		health.SetServing(true)
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down...")
		if health != nil {
			health.SetServing(false)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// connectBridge returns nil when the broker is unreachable; the dashboard
// keeps serving without MQTT.
func connectBridge(ctx context.Context, cfg Config, metrics *dashboard.Metrics, logger *slog.Logger) *sensor_simulator.Bridge {
	client, err := mqttbus.Connect(ctx, cfg.MQTT, logger)
	if err != nil {
		logger.Warn("mqtt disabled", "err", err)
		return nil
	}
	cb := mqttbus.NewBreaker(mqttbus.BreakerSettings{
		Name:        "mqtt-publish",
		MaxFailures: uint32(cfg.CBFails),
		OpenFor:     time.Duration(cfg.CBOpenMs) * time.Millisecond,
		OnStateChange: func(name string, _, to gobreaker.State) {
			logger.Warn("circuit breaker state", "target", name, "state", to.String())
			metrics.SetCircuitBreakerState(name, float64(to))
		},
	})
	metrics.SetCircuitBreakerState("mqtt-publish", 0)

	publisher := mqttbus.NewPublisher(client, cb, logger)
	consumer := mqttbus.NewConsumer(client, []string{sensor_simulator.RefreshFilter(cfg.RefreshTopic)}, nil, logger)
	return sensor_simulator.NewBridge(publisher, consumer, cfg.SeriesTopic, cfg.RefreshTopic, logger)
}

func generator(seed uint64) *sensor_simulator.SeriesGenerator {
	if seed == 0 {
		return sensor_simulator.NewSeriesGenerator(nil)
	}
	return sensor_simulator.NewSeededGenerator(seed)
}

// =============================================================================
// GENERATE
// =============================================================================

func newGenerateCmd(cfg Config) *cobra.Command {
	var channel, format string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one generated 24h series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			return runGenerate(cmd.OutOrStdout(), channel, format, cfg.Seed, time.Now().In(loc))
		},
	}
	f := cmd.Flags()
	f.StringVar(&channel, "channel", "all", "all, temperature, humidity or soil-moisture")
	f.StringVar(&format, "format", "json", "json or line")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = time-seeded)")
	return cmd
}

func runGenerate(w io.Writer, channel, format string, seed uint64, now time.Time) error {
	set, err := entities.ParseChannelSet(channel)
	if err != nil {
		return err
	}
	s := generator(seed).Generate(now, set)

	switch format {
	case "json":
		b, err := s.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "line":
		page := dashboard.PageDashboard
		if set != entities.AllChannels {
			page = set.String()
		}
		_, err := io.WriteString(w, dashboard.LineProtocol(page, s))
		return err
	default:
		return fmt.Errorf("unknown format %q: want json or line", format)
	}
}
