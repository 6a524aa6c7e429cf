// main package for the news-tts pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"

	"github.com/Jukowsky/newsTTS/internal/config"
	"github.com/Jukowsky/newsTTS/internal/pipeline"
	"github.com/Jukowsky/newsTTS/internal/scrape"
	"github.com/Jukowsky/newsTTS/internal/store"
	"github.com/Jukowsky/newsTTS/internal/tts"
)

const (
	logFileName = "news-tts.log"

	flagOnceDesc = "Run the pipeline once and exit, ignoring the configured schedule"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	once := flag.Bool("once", false, flagOnceDesc)
	flag.Parse()

	// A .env file is optional; the credential may come from the process
	// environment directly.
	_ = godotenv.Load()

	// Bootstrap logger in the temp dir covers startup before the
	// configured logs directory is known.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		log.Error("Failed to build pipeline: %v", err)

		return err
	}

	if cfg.Schedule.Enabled && !*once {
		return runDaemon(ctx, cfg, pipe, log)
	}

	summary, err := pipe.Run(ctx)
	if err != nil {
		log.Error("Run failed: %v", err)

		return err
	}

	// Per-item failures do not make the run itself a failure.
	log.System("Completed: %d persisted, %d failures", summary.Persisted, summary.Failures)

	return nil
}

// buildPipeline resolves the credential and assembles the pipeline stages
// from configuration.
func buildPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	synthesizer, err := tts.NewSynthesizer(cfg.TTS, apiKey, log)
	if err != nil {
		return nil, err
	}

	persister, err := store.NewPersister(cfg.Paths.OutputDir, log)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		scrape.NewFetcher(cfg.Source, log),
		scrape.NewExtractor(cfg.Source, log),
		synthesizer,
		persister,
		cfg.Pipeline.ChunkCeiling,
		time.Duration(*cfg.Source.RequestDelaySec)*time.Second,
		log,
	), nil
}

// runDaemon performs one immediate run, then hands control to the daily
// scheduler until the process is signalled.
func runDaemon(ctx context.Context, cfg *config.Config, pipe *pipeline.Pipeline, log *logger.Logger) error {
	log.System("Daemon mode: daily run at %s", cfg.Schedule.Time)

	summary, err := pipe.Run(ctx)
	if err != nil {
		log.Error("Initial run failed: %v", err)
	} else {
		log.Info("Initial run %s completed with %d failures", summary.RunID, summary.Failures)
	}

	scheduler := pipeline.NewScheduler(cfg.Schedule.Time, pipe.Run, log)

	err = scheduler.Start(ctx)
	if err != nil && ctx.Err() != nil {
		// Normal shutdown via signal.
		log.System("Shutting down")

		return nil
	}

	return err
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "news-tts exited with error: %v\n", err)
		os.Exit(1)
	}
}
