package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"clonetrack/internal/blob"
	"clonetrack/internal/config"
	"clonetrack/internal/core"
	"clonetrack/internal/workbook"
)

// app holds the service wired from one loaded configuration.
type app struct {
	cfg     config.Config
	svc     *core.Service
	metrics *core.PrometheusMetricsRecorder
	logger  *slog.Logger
	closers []io.Closer
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newApp(ctx context.Context, cfg config.Config, stderr io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: core.NewPrometheusMetricsRecorder(nil),
		logger:  newLogger(cfg.Log, stderr),
	}
	store, err := core.OpenPersistentStore(cfg.StorageSettings(), core.NewDefaultRulesEngine())
	if err != nil {
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	blobs, err := blob.Open(ctx, cfg.BlobSettings())
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	opts := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithMetricsRecorder(a.metrics),
		core.WithWorkbook(workbook.New(blobs, cfg.Format())),
	}
	if seed := cfg.Sampling.Seed; seed != 0 {
		opts = append(opts, core.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	if path := cfg.Log.AuditFile; path != "" {
		f, err := a.openLog(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithAuditRecorder(core.NewJSONAuditRecorder(f)))
	}
	if path := cfg.Log.TraceFile; path != "" {
		f, err := a.openLog(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}
	a.svc = core.NewService(store, opts...)
	return a, nil
}

func (a *app) openLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.closers = append(a.closers, f)
	return f, nil
}

// Close releases the store and any open log sinks.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
