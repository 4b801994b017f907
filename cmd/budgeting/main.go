package main

import (
	"os"

	"github.com/spf13/cobra"

	"budgeting/internal/cli"
	"budgeting/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagEnvFile  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "budgeting",
	Short:         "Budgeting & expense tracker with PDF submission reports",
	Long:          "Serve the budgeting form, render submission PDFs offline, and manage report fonts.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Optional .env file with configuration")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug|info|warn|error); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, renderCmd, fontsCmd)
}

// bootstrap loads the env file and configuration and returns the logger.
func bootstrap() (*log.Logger, error) {
	if err := cli.LoadEnvFile(flagEnvFile); err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		os.Setenv("LOG_LEVEL", flagLogLevel)
	}
	return cli.SetupLogger(os.Getenv("LOG_LEVEL")), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.New(log.DefaultConfig()).Error("command failed", log.FieldError, err)
		os.Exit(1)
	}
}
