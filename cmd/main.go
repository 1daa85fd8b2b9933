package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sabarim/brokerrelay/internal/config"
	"github.com/sabarim/brokerrelay/internal/logger"
)

var (
	configFile string
	verbose    bool
)

var versionString = "0.2.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brokerrelay",
		Short: "A relay between a trading front end and the Dhan and Flattrade APIs",
		Long: `A backend relay for a browser trading front end. It forwards authenticated requests to
Dhan and Flattrade, proxies /api/* to Dhan and answers option strike lookups from the
Dhan security master CSV.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newServeCommand(),
		newSymbolsCommand(),
		newDownloadMasterCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "brokerrelay version %s\n", versionString)
			},
		},
	)

	return rootCmd
}

// loadConfig loads configuration and builds a logger writing to logOut.
// Commands that print results on stdout log to stderr.
func loadConfig(logOut io.Writer) (config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("error loading configuration: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.NewWithWriter(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	}, logOut)

	log.Debug().Str("source", cfg.Source).Msg("Configuration loaded")

	return cfg, log, nil
}
