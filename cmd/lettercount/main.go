package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lettercount/internal/fsutil"
	"lettercount/internal/gate"
	"lettercount/internal/logging"
	"lettercount/internal/metrics"
	"lettercount/internal/otel"
	"lettercount/internal/pipeline"
	"lettercount/internal/processor"
	"lettercount/internal/scan"
	"lettercount/internal/version"
	"lettercount/internal/watcher"
)

const (
	programName      = "lettercount"
	quitPrompt       = "Press 'q' to quit the application."
	telemetryTimeout = 5 * time.Second
)

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, signalCh))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer, signalCh <-chan os.Signal) int {
	parsed, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		return exitCodeFailure
	}
	if parsed.ShowVersion {
		fmt.Fprintln(out, version.Get().Line(programName))
		return exitCodeSuccess
	}

	cfg, err := loadConfig(parsed)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitCodeFailure
	}
	if err := validateDirs(cfg); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitCodeFailure
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: out})
	logger.Debug("config resolved", cfg.sourceFields())

	if err := runApp(cfg, logger, in, out, signalCh); err != nil {
		logger.Error("lettercount stopped with error", map[string]string{"error": err.Error()})
		return exitCodeFailure
	}
	return exitCodeSuccess
}

func validateDirs(cfg Config) error {
	if !fsutil.IsDir(cfg.SourceDir) {
		return fmt.Errorf("source directory does not exist: %s", cfg.SourceDir)
	}
	if !fsutil.IsDir(cfg.ResultDir) {
		return fmt.Errorf("result directory does not exist: %s", cfg.ResultDir)
	}
	same, err := fsutil.SameDir(cfg.SourceDir, cfg.ResultDir)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("source and result directory must differ: %s", cfg.SourceDir)
	}
	return nil
}

func runApp(cfg Config, logger *logging.Logger, in io.Reader, out io.Writer, signalCh <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := otel.SetupSDK(ctx, cfg.sdkOptions(version.Version))
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	fileProcessor, err := processor.New(processor.Options{
		DestDir:     cfg.ResultDir,
		Logger:      logger,
		Instruments: otel.NewInstruments(),
	})
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return err
	}
	registry := &metrics.Registry{}
	dispatch, err := pipeline.New(pipeline.Options{
		Gate:    gate.New(cfg.Workers),
		Handler: fileProcessor,
		Logger:  logger,
		Metrics: registry,
	})
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return err
	}

	files, err := scan.Dir(cfg.SourceDir, cfg.Pattern)
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return fmt.Errorf("scan %s: %w", cfg.SourceDir, err)
	}

	dirWatch, err := watcher.New(cfg.SourceDir, watcher.Options{
		Logger:   logger,
		Pattern:  cfg.Pattern,
		Debounce: cfg.Debounce,
		ErrorHandler: func(err error) {
			logger.Error("watcher stopped", map[string]string{"error": err.Error()})
		},
	})
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return fmt.Errorf("watch %s: %w", cfg.SourceDir, err)
	}

	logger.Info(fmt.Sprintf("found %d files in %s", len(files), cfg.SourceDir), map[string]string{
		"files": strconv.Itoa(len(files)),
		"dir":   cfg.SourceDir,
	})
	dispatch.SubmitAll(ctx, files)

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		dispatch.Consume(ctx, dirWatch.Events())
	}()

	trigger := newShutdownTrigger(logger, cancel)
	stopSignals := watchShutdownSignals(trigger, signalCh)
	defer stopSignals()
	watchQuitKey(trigger, in)
	fmt.Fprintln(out, quitPrompt)

	<-ctx.Done()

	coordinator := newShutdownCoordinator(logger)
	coordinator.Add("watcher", func(context.Context) error {
		return dirWatch.Close()
	})
	coordinator.Add("pipeline", func(context.Context) error {
		<-consumed
		return dispatch.Wait()
	})
	coordinator.Add("metrics", func(context.Context) error {
		logger.Debug("pipeline counters", registry.Snapshot().Fields())
		logger.Debug("watcher counters", dirWatch.Metrics().Fields())
		if cfg.MetricsFile == "" {
			return nil
		}
		return writeMetricsFile(cfg.MetricsFile, registry)
	})
	coordinator.Add("telemetry", func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, telemetryTimeout)
		defer cancel()
		return shutdownTelemetry(shutdownCtx)
	})
	return coordinator.Run(context.Background())
}

func writeMetricsFile(path string, registry *metrics.Registry) error {
	var buffer bytes.Buffer
	if err := registry.WritePrometheus(&buffer); err != nil {
		return err
	}
	if err := fsutil.ReplaceFile(path, buffer.Bytes(), 0); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
