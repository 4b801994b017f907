package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"budgeting/internal/budgetfile"
	"budgeting/internal/cli"
	"budgeting/internal/log"
)

var (
	flagRenderInput   string
	flagRenderOut     string
	flagRenderExample bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a submission PDF from a TOML budget file",
	Example: `  budgeting render --example > budget.toml
  budgeting render --input budget.toml --out ./reports`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&flagRenderInput, "input", "i", "", "Budget file (TOML)")
	renderCmd.Flags().StringVarP(&flagRenderOut, "out", "o", ".", "Directory for the finished PDF")
	renderCmd.Flags().BoolVar(&flagRenderExample, "example", false, "Print an example budget file and exit")
}

func runRender(cmd *cobra.Command, args []string) error {
	if flagRenderExample {
		return budgetfile.Encode(cmd.OutOrStdout(), budgetfile.Example())
	}
	if flagRenderInput == "" {
		return errors.New("--input is required")
	}

	logger, err := bootstrap()
	if err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}

	file, err := budgetfile.Load(flagRenderInput)
	if err != nil {
		return err
	}
	req, err := file.Request()
	if err != nil {
		return err
	}

	pipeline, err := cli.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	artifact, err := pipeline.Reports.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	path, err := artifact.Publish(flagRenderOut)
	if err != nil {
		if rmErr := artifact.Remove(); rmErr != nil {
			logger.Warn("failed to remove report", log.FieldArtifact, artifact.Path, log.FieldError, rmErr)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", path, humanize.Bytes(uint64(artifact.Size)))
	return nil
}
