// Command senars runs the streaming reasoner: it loads Narsese-lite
// input into an in-memory concept store, drives the pipeline with the
// syllogistic rule set, and prints derivations until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"senars/internal/config"
	"senars/internal/logging"
)

var version = "0.3.0"

var (
	flagConfig   string
	flagLogLevel string
	flagJSONLogs bool
)

func main() {
	root := &cobra.Command{
		Use:           "senars",
		Short:         "Streaming non-axiomatic reasoner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to senars.yaml")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "emit JSON log lines")

	root.AddCommand(newRunCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the senars version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "senars %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "senars: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagJSONLogs {
		cfg.Logging.JSONFormat = true
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
