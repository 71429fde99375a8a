package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/buildinfo"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	repo       string
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "cnab",
		Short:   "Parse and validate CNAB 240/400 bank files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.repo, "repo", ".", "workspace directory")
	pf.StringVar(&flags.configPath, "config", "", "config file (default <repo>/cnab.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newParseCommand(flags),
		newValidateCommand(flags),
		newProcessCommand(flags),
		newBarcodeCommand(),
		newTaxIDCommand(),
		newSchemasCommand(flags),
		newFixCommand(),
	)

	return rootCmd
}
