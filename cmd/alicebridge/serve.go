package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AliceBridge/internal/alice"
	"AliceBridge/internal/archive"
	"AliceBridge/internal/cache"
	"AliceBridge/internal/config"
	"AliceBridge/internal/provider"
	"AliceBridge/internal/session"
	"AliceBridge/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the skill webhook server",
	RunE:  runServe,
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	d := config.Default()
	flags := cmd.Flags()
	flags.Int("port", d.Port, "HTTP listen port")
	flags.String("model", "", "Override the variant's model")
	flags.String("endpoint", "", "Override the variant's endpoint URL")
	flags.Float64("temperature", d.Temperature, "Sampling temperature")
	flags.Int("max-tokens", d.MaxTokens, "Reply token budget")
	flags.Duration("upstream-timeout", d.UpstreamTimeout, "Timeout for a single upstream call")
	flags.Duration("session-ttl", d.SessionTTL, "Idle time after which a session expires")
	flags.Duration("sweep-interval", d.SweepInterval, "How often idle sessions are swept")
	flags.Duration("reply-cache-ttl", d.ReplyCacheTTL, "Reuse identical replies for this long (0 disables)")
	flags.StringSlice("closing-words", d.ClosingWords, "Utterances that end the dialog")
	flags.String("store", d.Store, "Session store: memory or redis")
	flags.String("redis-addr", "", "Redis address for the redis store")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("archive", "", "SQLite file receiving every completed exchange")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Write JSON logs to this rotating file instead of stderr")
	flags.Bool("telemetry", false, "Export OpenTelemetry traces and metrics")
	flags.String("telemetry-dir", d.TelemetryDir, "Directory for telemetry export files")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := telemetry.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closeLog()

	if err := config.ResolveAPIKey(&cfg, os.Getenv); err != nil {
		logger.Error("API key check failed", "variant", cfg.Variant, "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		tracer trace.Tracer
		meter  metric.Meter
	)
	if cfg.Telemetry {
		var shutdownTelemetry func()
		tracer, meter, shutdownTelemetry, err = telemetry.InitTelemetry(ctx, cfg.TelemetryDir, version)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer shutdownTelemetry()
	} else {
		tracer, meter = telemetry.Noop()
	}

	v := cfg.Upstream()

	store, err := openStore(ctx, cfg, v)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := provider.New(v, cfg.APIKey,
		provider.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		provider.WithTracer(tracer),
		provider.WithMeter(meter),
		provider.WithLogger(logger),
		provider.WithSampling(cfg.Temperature, cfg.MaxTokens),
	)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics(v.Name)
	metrics.RegisterSessionGauge(v.Name, func() float64 {
		n, err := store.Len(context.Background())
		if err != nil {
			return 0
		}
		return float64(n)
	})

	opts := []alice.BridgeOption{
		alice.WithClosingWords(cfg.ClosingWords),
		alice.WithMetrics(metrics),
	}
	sweepTargets := []session.Sweepable{store}

	if cfg.ReplyCacheTTL > 0 {
		replies := cache.New(cfg.ReplyCacheTTL)
		opts = append(opts, alice.WithReplyCache(replies))
		sweepTargets = append(sweepTargets, replies)
	}

	if cfg.ArchivePath != "" {
		arc, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer arc.Close()
		opts = append(opts, alice.WithArchive(arc))
	}

	bridge := alice.NewBridge(v, store, p, logger, opts...)
	srv := alice.NewServer(bridge, metrics, logger)

	sweeper := session.NewSweeper(cfg.SweepInterval, logger, sweepTargets...)
	sweeper.OnSweep = func(removed int) {
		metrics.SweepRemoved.Add(float64(removed))
	}
	go sweeper.Run(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"port", cfg.Port,
			"variant", v.Name,
			"model", v.Model,
			"endpoint", v.Endpoint,
			"store", cfg.Store,
			"api_key", config.MaskKey(cfg.APIKey),
		)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, v config.Variant) (session.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL, v.HistoryCap)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("using redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return store, nil
	default:
		return session.NewMemoryStore(cfg.SessionTTL, v.HistoryCap), nil
	}
}
