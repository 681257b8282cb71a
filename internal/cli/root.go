// Package cli implements the connector command line.
package cli

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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/subsetdata/bls-connector/internal/bls"
	"github.com/subsetdata/bls-connector/internal/control"
	"github.com/subsetdata/bls-connector/internal/core/config"
	"github.com/subsetdata/bls-connector/internal/infra/rediscache"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
	"github.com/subsetdata/bls-connector/internal/infra/storage/file"
	"github.com/subsetdata/bls-connector/internal/infra/storage/postgres"
	"github.com/subsetdata/bls-connector/internal/publish"
)

// Exit codes. The scheduler reruns the connector after a quota pause.
const (
	exitOK    = 0
	exitFatal = 1
	exitQuota = 3
)

var errQuotaContinuation = errors.New("daily quota exhausted, rerun after reset")

var (
	configPath    string
	debug         bool
	ingestOnly    bool
	transformOnly bool
	skipPopular   bool
)

var rootCmd = &cobra.Command{
	Use:           "connector",
	Short:         "Scheduled connector for Bureau of Labor Statistics time series",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&ingestOnly, "ingest-only", false, "stop after the fetch phase")
	rootCmd.Flags().BoolVar(&transformOnly, "transform-only", false, "transform previously fetched data only")
	rootCmd.Flags().BoolVar(&skipPopular, "skip-popular", false, "skip the popular-series ingest")

	rootCmd.AddCommand(statusCmd, resetCmd)
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errQuotaContinuation) {
		return exitQuota
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitFatal
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	client, closeCache, err := buildClient(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	pub, err := publish.NewLocal(cfg.Output.Dir, log)
	if err != nil {
		return err
	}

	if cfg.Server.Port > 0 {
		go serveMetrics(cfg.Server.Port, log)
	}

	runID := uuid.NewString()
	log.Info("Starting connector run", "run_id", runID)

	pipeline := control.NewPipeline(client, store, pub, cfg, runID, log)
	outcome, err := pipeline.Run(ctx, control.RunOptions{
		IngestOnly:    ingestOnly,
		TransformOnly: transformOnly,
		SkipPopular:   skipPopular,
	})
	if err != nil {
		return err
	}
	if outcome == control.OutcomeQuotaContinuation {
		log.Warn("Run paused on quota exhaustion; progress is saved")
		return errQuotaContinuation
	}

	log.Info("Connector run complete", "run_id", runID)
	return nil
}

// setup loads environment, configuration, and the logger. Config problems
// are fatal before any network call happens.
func setup() (*config.AppConfig, *slog.Logger, error) {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := parseLevel(cfg.Logging.Level)
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openStore(ctx context.Context, cfg *config.AppConfig) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return postgres.NewStore(db), func() { db.Close() }, nil
	case "file", "":
		store, err := file.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildClient(cfg *config.AppConfig, log *slog.Logger) (*bls.Client, func(), error) {
	opts := []bls.Option{}
	closeCache := func() {}

	if cfg.Cache.Enabled {
		cache, err := rediscache.NewCache(cfg.Cache.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect response cache: %w", err)
		}
		opts = append(opts, bls.WithCache(cache))
		closeCache = func() { _ = cache.Close() }
		log.Info("Upstream response cache enabled")
	}
	if cfg.API.DailyQuota > 0 {
		opts = append(opts, bls.WithBudget(bls.NewBudget(cfg.API.DailyQuota)))
	}

	limiter := bls.NewLimiter(cfg.API.RateCalls, cfg.API.RatePeriod)
	client := bls.NewClient(bls.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.API.Timeout,
		Retry:   bls.DefaultRetryConfig,
	}, limiter, opts...)
	return client, closeCache, nil
}

func serveMetrics(port int, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Info("Metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics listener stopped", "error", err)
	}
}
