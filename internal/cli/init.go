// Package cli provides common CLI initialization utilities shared by the
// budgeting subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"budgeting/internal/chart"
	"budgeting/internal/config"
	"budgeting/internal/fonts"
	"budgeting/internal/log"
	"budgeting/internal/services"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error; a malformed one is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// SetupSentry initializes error reporting when a DSN is configured. The
// returned flush func is always safe to call.
func SetupSentry(cfg *config.Config, release string, logger *log.Logger) (func(), error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Request bodies carry the student's form data.
			if event.Request != nil {
				event.Request.Data = ""
				event.Request.Cookies = ""
			}
			return event
		},
	})
	if err != nil {
		return func() {}, fmt.Errorf("init sentry: %w", err)
	}
	logger.Info("Sentry error reporting enabled", "environment", cfg.SentryEnvironment)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// NewProvisioner builds the font provisioner selected by FONT_MODE.
func NewProvisioner(cfg *config.Config, logger *log.Logger) (fonts.Provisioner, error) {
	mode, err := fonts.ParseMode(cfg.FontMode)
	if err != nil {
		return nil, err
	}
	return fonts.New(mode, fonts.Options{
		Dir:     cfg.FontDir,
		URL:     cfg.FontURL,
		Timeout: cfg.FontFetchTimeout,
		Logger:  logger,
	})
}

// Pipeline is the wired report pipeline shared by serve and render.
type Pipeline struct {
	Fonts   fonts.Provisioner
	Charts  *chart.Renderer
	Reports *services.ReportService
}

// NewPipeline wires fonts, charts and the report service from cfg.
func NewPipeline(cfg *config.Config, logger *log.Logger) (*Pipeline, error) {
	provisioner, err := NewProvisioner(cfg, logger)
	if err != nil {
		return nil, err
	}
	charts := chart.NewRenderer(chart.Options{
		Dir:            cfg.OutputDir,
		CurrencySymbol: cfg.CurrencySymbol,
		Logger:         logger,
	})
	reports := services.NewReportService(provisioner, charts, services.ReportOptions{
		OutputDir:        cfg.OutputDir,
		CurrencySymbol:   cfg.CurrencySymbol,
		ShowExpenseRatio: cfg.ShowExpenseRatio,
		Logger:           logger,
	})
	return &Pipeline{Fonts: provisioner, Charts: charts, Reports: reports}, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with a context bounded by timeout and the done
// channel is closed once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
