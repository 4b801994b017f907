package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"budgeting/internal/cli"
	"budgeting/internal/fonts"
	apphttp "budgeting/internal/http"
	"budgeting/internal/log"
)

var flagShutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the budgeting web form",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&flagShutdownTimeout, "shutdown-timeout", 30*time.Second, "Grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := bootstrap()
	if err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}

	flush, err := cli.SetupSentry(cfg, version, logger)
	if err != nil {
		return err
	}
	defer flush()

	pipeline, err := cli.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if err := pipeline.Fonts.Ready(); err != nil {
		if fonts.IsMissing(err) {
			logger.Error("Bundled report fonts are missing; reports fail until they are installed",
				log.FieldFontMode, pipeline.Fonts.Mode(), log.FieldError, err)
		} else {
			logger.Warn("Report font not cached yet; it is downloaded on first report",
				log.FieldFontMode, pipeline.Fonts.Mode(), log.FieldError, err)
		}
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:                      ":" + cfg.Port,
		Reports:                   pipeline.Reports,
		Charts:                    pipeline.Charts,
		Fonts:                     pipeline.Fonts,
		CurrencySymbol:            cfg.CurrencySymbol,
		ShowExpenseRatio:          cfg.ShowExpenseRatio,
		RateLimitPerMinute:        cfg.RateLimitPerMinute,
		SummaryRateLimitPerMinute: cfg.SummaryRateLimitPerMinute,
		ChartCacheSize:            cfg.ChartCacheSize,
		ChartCacheTTL:             cfg.ChartCacheTTL,
		MetricsEnabled:            cfg.MetricsEnabled,
		Logger:                    logger,
	})
	if err != nil {
		return err
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, flagShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
	})

	logger.Info("Starting budgeting server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		log.FieldFontMode, cfg.FontMode,
		"output_dir", cfg.OutputDir,
		"version", version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
