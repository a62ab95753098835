package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/anomaly"
	"github.com/oualidl290/flightsentry/internal/cache"
	"github.com/oualidl290/flightsentry/internal/config"
	"github.com/oualidl290/flightsentry/internal/ingest"
	"github.com/oualidl290/flightsentry/internal/persistence"
	"github.com/oualidl290/flightsentry/internal/persistence/postgres"
	"github.com/oualidl290/flightsentry/internal/pipeline"
	"github.com/oualidl290/flightsentry/internal/render"
	"github.com/oualidl290/flightsentry/internal/result"
	"github.com/oualidl290/flightsentry/internal/telemetry"
)

const (
	appName = "flightsentry"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Flight anomaly detection and classification",
		Version: version,
		Long:    "flightsentry classifies aircraft type from a flight log and scores it for anomalies, producing a ranked event list and a per-anomaly feature attribution.",
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [flight-log.csv]",
		Short: "Analyze a single flight log",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("flight-id", "", "Flight identifier (defaults to the file name)")
	analyzeCmd.Flags().Bool("json", false, "Print the full JSON result instead of a compact summary")
	analyzeCmd.Flags().Float64("rate-limit", 0, "Max analyses started per second (0 disables limiting)")

	retrainCmd := &cobra.Command{
		Use:   "retrain [class]",
		Short: "Force-retrain the anomaly model for a class (fixed_wing|multirotor|vtol|all)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRetrain,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics and a health check (no analysis API)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", ":9090", "Address to listen on")

	rootCmd.AddCommand(analyzeCmd, retrainCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildOrchestrator(cfg config.Config) (*pipeline.Orchestrator, *persistence.BreakerSink) {
	ensembleCfg := anomaly.EnsembleConfig{
		Estimators:      cfg.Ensemble.Estimators,
		MaxDepth:        cfg.Ensemble.MaxDepth,
		Shrinkage:       cfg.Ensemble.Shrinkage,
		MinSamplesSplit: 2,
		TrainingSize:    cfg.Ensemble.TrainingSize,
		Seed:            cfg.Ensemble.Seed,
	}

	orch := pipeline.New(cfg.Thresholds, ensembleCfg)
	orch.Metrics = telemetry.NewRegistry()

	if cfg.Cache.RedisAddr != "" {
		orch.Cache = cache.NewResultCache(cfg.Cache.RedisAddr, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}

	var sink result.Sink = result.NewMemorySink()
	if cfg.Persistence.DSN != "" {
		if pg, err := postgres.NewResultSink(cfg.Persistence.DSN, time.Duration(cfg.Persistence.QueryTimeoutMs)*time.Millisecond); err == nil {
			sink = pg
		} else {
			log.Warn().Err(err).Msg("could not connect result sink, falling back to in-memory persistence")
		}
	}
	breakerSink := persistence.NewBreakerSink(sink, "result-sink")
	orch.Sink = breakerSink

	return orch, breakerSink
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening flight log: %w", err)
	}
	defer file.Close()

	f, err := ingest.NewCSVSource(file).Load()
	if err != nil {
		return fmt.Errorf("loading flight log: %w", err)
	}

	flightID, _ := cmd.Flags().GetString("flight-id")
	if flightID == "" {
		flightID = args[0]
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")

	orch, _ := buildOrchestrator(cfg)
	if rateLimit > 0 {
		orch.Limiter = rate.NewLimiter(rate.Limit(rateLimit), 1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r := orch.Analyze(ctx, flightID, f)

	if asJSON {
		data, err := render.JSON(r)
		if err != nil {
			return fmt.Errorf("rendering result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(render.CompactString(r))
	return nil
}

func runRetrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	classes, err := parseClassArg(args[0])
	if err != nil {
		return err
	}

	ensembleCfg := anomaly.EnsembleConfig{
		Estimators:      cfg.Ensemble.Estimators,
		MaxDepth:        cfg.Ensemble.MaxDepth,
		Shrinkage:       cfg.Ensemble.Shrinkage,
		MinSamplesSplit: 2,
		TrainingSize:    cfg.Ensemble.TrainingSize,
		Seed:            cfg.Ensemble.Seed,
	}
	registry := anomaly.NewRegistry(ensembleCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, class := range classes {
		log.Info().Str("class", class.String()).Msg("retraining anomaly model")
		if err := registry.ModelFor(class).EnsureTrained(ctx, true); err != nil {
			return fmt.Errorf("retraining %s: %w", class, err)
		}
	}
	return nil
}

// runServe exposes only the ambient /metrics and /healthz endpoints —
// no analysis API, which stays out of scope per the CLI's design.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")

	_, breakerSink := buildOrchestrator(cfg)
	mux := telemetry.Mux(version, breakerSink)

	log.Info().Str("addr", addr).Msg("serving metrics and health endpoints")
	srv := &http.Server{Addr: addr, Handler: mux}
	return srv.ListenAndServe()
}

func parseClassArg(arg string) ([]aircraft.Class, error) {
	switch arg {
	case "fixed_wing":
		return []aircraft.Class{aircraft.FixedWing}, nil
	case "multirotor":
		return []aircraft.Class{aircraft.Multirotor}, nil
	case "vtol":
		return []aircraft.Class{aircraft.VTOL}, nil
	case "all":
		return aircraft.Concrete(), nil
	default:
		return nil, fmt.Errorf("unknown class %q (want fixed_wing, multirotor, vtol, or all)", arg)
	}
}
