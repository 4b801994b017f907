package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgeting/internal/cli"
	"budgeting/internal/fonts"
)

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "Manage the fonts used in PDF reports",
}

var fontsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Provision report fonts now instead of on first report",
	Long: "Runs the configured font provisioner. In fetch mode this downloads the font if it is\n" +
		"not cached yet; in bundled mode it checks that both font files are present.",
	RunE: runFontsFetch,
}

var fontsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that report fonts are available without downloading",
	RunE:  runFontsCheck,
}

func init() {
	fontsCmd.AddCommand(fontsFetchCmd, fontsCheckCmd)
}

func runFontsFetch(cmd *cobra.Command, args []string) error {
	provisioner, err := newProvisioner()
	if err != nil {
		return err
	}
	set, err := provisioner.Provision(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s fonts ready (%s mode, %d bytes regular)\n",
		set.Family, provisioner.Mode(), len(set.Regular))
	return nil
}

func runFontsCheck(cmd *cobra.Command, args []string) error {
	provisioner, err := newProvisioner()
	if err != nil {
		return err
	}
	if err := provisioner.Ready(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "fonts available (%s mode)\n", provisioner.Mode())
	return nil
}

func newProvisioner() (fonts.Provisioner, error) {
	logger, err := bootstrap()
	if err != nil {
		return nil, err
	}
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return nil, err
	}
	return cli.NewProvisioner(cfg, logger)
}
