package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/influx"
	"github.com/roadsim/roadsim/internal/logging"
	"github.com/roadsim/roadsim/internal/storage"
)

// AppName prefixes log files
const AppName = "roadsim"

const usage = `usage: roadsim run [--config DIR] [--log-level LEVEL]`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 || args[0] != "run" {
		return errors.New(usage)
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing "+config.ConfigFileName)
	logLevel := fs.String("log-level", "", "override logLevel from config")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	sessionStart := time.Now()
	configErr := config.Load(*configDir)
	level := config.GetString("logLevel")
	if *logLevel != "" {
		level = *logLevel
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, AppName, sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	sceneCfg := config.GetSceneConfig()
	var tick atomic.Uint64

	slogManager := logging.NewSlogManager()
	gelfAddr := ""
	if config.GetBool("graylog.enabled") {
		gelfAddr = config.GetString("graylog.address")
	}
	err = slogManager.Setup(logging.Options{
		File:        logFile,
		Level:       level,
		GelfAddress: gelfAddr,
		Context: func() []slog.Attr {
			return []slog.Attr{
				slog.String("scene", sceneCfg.Name),
				slog.Uint64("tick", tick.Load()),
			}
		},
	})
	if err != nil {
		return err
	}
	defer slogManager.Close()
	logger := slogManager.Logger()

	if configErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		logger.Info("Loaded config", "dir", *configDir)
	}

	zlevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	dbLog := zerolog.New(logFile).Level(zlevel).With().Timestamp().Str("component", "database").Logger()

	backend, err := storage.NewBackend(config.GetStorageConfig(), logger, dbLog)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps := runDeps{Backend: backend, Logger: logger, Tick: &tick}

	influxLog := zerolog.New(logFile).Level(zlevel).With().Timestamp().Str("component", "influx").Logger()
	im := influx.NewManager(config.GetInfluxConfig(), influxLog)
	switch err := im.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Warn("InfluxDB unavailable, tick metrics disabled", "error", err)
		_ = im.Close()
	default:
		deps.Influx = im
		defer im.Close()
	}

	s, err := runScene(ctx, deps, sceneCfg)
	if err != nil {
		logger.Error("Scene run failed", "error", err)
		return err
	}

	fmt.Fprint(stdout, printSummary(s))
	return nil
}
