// Command linkaudit checks a batch of URLs through a headless browser and
// writes a per-URL health report.
//
// Usage: linkaudit [inputPath] [outputPath] [concurrency]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkaudit/internal/audit"
	"linkaudit/internal/config"
	"linkaudit/internal/logging"
	"linkaudit/internal/oracle"
	"linkaudit/internal/renderer"
	"linkaudit/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkaudit: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	inputPath := "input.csv"
	outputPath := "output.csv"
	args := flag.Args()
	if len(args) > 0 {
		inputPath = args[0]
	}
	if len(args) > 1 {
		outputPath = args[1]
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid concurrency %q", args[2])
		}
		cfg.Checker.Concurrency = n
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raws, err := report.ReadTargets(inputPath)
	if err != nil {
		return err
	}
	targets, skipped := audit.PrepareTargets(raws)
	for _, raw := range skipped {
		logger.Warn("skipping invalid input", zap.String("raw", raw))
	}
	if len(targets) == 0 {
		return fmt.Errorf("no valid URLs in %s", inputPath)
	}

	// A renderer that cannot start aborts the batch before any checks run.
	engine, err := renderer.New(renderer.Config{
		UserAgent:   cfg.Renderer.UserAgent,
		MaxParallel: cfg.Renderer.MaxParallel,
		PerHostQPS:  cfg.Renderer.PerHostQPS,
	}, logger.Named("renderer"))
	if err != nil {
		return err
	}
	defer engine.Close()

	oracleClient := oracle.New(oracle.Config{
		Enabled: cfg.Oracle.Enabled,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		BaseURL: cfg.Oracle.BaseURL,
		Timeout: cfg.Oracle.Timeout(),
	}, logger.Named("oracle"))

	classifier := audit.NewContentClassifier(
		audit.DefaultRules(),
		oracleClient,
		cfg.Oracle.Timeout(),
		cfg.Checker.OracleSummaryCap,
		logger.Named("classifier"),
	)
	retry := audit.RetryPolicy{
		MaxRetries: cfg.Checker.MaxRetries,
		BaseDelay:  cfg.Checker.BackoffBase(),
	}
	checker := audit.NewChecker(
		engine,
		classifier,
		retry,
		cfg.Checker.NavTimeout(),
		cfg.Checker.Quiescence(),
		logger.Named("checker"),
	)
	scheduler := audit.NewScheduler(checker, cfg.Checker.Concurrency, logger.Named("scheduler"))

	logger.Info("batch started",
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", cfg.Checker.Concurrency),
		zap.String("input", inputPath),
		zap.String("output", outputPath),
	)

	results := scheduler.Run(ctx, targets)
	rep := audit.BuildReport(runID, results, time.Now())
	if err := report.Write(outputPath, rep); err != nil {
		return err
	}

	summary := rep.Summary()
	logger.Info("batch complete",
		zap.Int("total", len(rep.Rows)),
		zap.Int("ok", summary[audit.StatusOK]),
		zap.Int("parked", summary[audit.StatusParked]),
		zap.Int("broken", summary[audit.StatusBroken]),
		zap.Int("not_found", summary[audit.StatusNotFound]),
		zap.Int("server_error", summary[audit.StatusServerError]),
		zap.Int("other", summary[audit.StatusOther]),
	)

	fmt.Printf("checked %d urls -> %s\n", len(rep.Rows), outputPath)
	for _, status := range []audit.Status{
		audit.StatusOK,
		audit.StatusParked,
		audit.StatusBroken,
		audit.StatusNotFound,
		audit.StatusServerError,
		audit.StatusOther,
	} {
		if n := summary[status]; n > 0 {
			fmt.Printf("  %-6s %d\n", status, n)
		}
	}
	return nil
}
