package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// configPath is the TOML settings file (empty uses the default location).
	configPath string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "sfmc-extract",
	Short: "Incremental extraction from the Marketing Cloud SOAP API",
	Long: `sfmc-extract pulls tracking events and subscribers from the Salesforce
Marketing Cloud SOAP API and writes one labelled record stream per object type.

Event types are extracted incrementally over a lookback window; subscribers
are reloaded in full. Credentials are read from SFMC_SUBDOMAIN, SFMC_CLIENT_ID
and SFMC_CLIENT_SECRET (or a .env file).`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"settings file (default ~/.sfmc-extract/config.toml)")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
