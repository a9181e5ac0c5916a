package main

import (
	"fmt"
	"os"

	"farewatch/cfg"
	"farewatch/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	config *cfg.Config
	zlog   *logger.ZeroLogger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "farewatch",
	Short: "Flight search and fare tracking service",
	Long: `Farewatch searches live fares, filters and sorts results, and re-prices
saved routes on a schedule, notifying users when a fare drops below their
target price.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cfg.Load)
	},
}

// loadConfig sets the package config and logger from the given loader.
func loadConfig(load func() (*cfg.Config, error)) error {
	var err error
	config, err = load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return err
	}
	zlog = logger.NewZeroLog(config.AppEnv)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(migrateCmd)
}
