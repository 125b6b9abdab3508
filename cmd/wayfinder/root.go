package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/wayfinder/internal/config"
	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "wayfinder",
	Short: "Wayfinder is an interactive pathfinding visualizer",
	Long: `Wayfinder runs grid pathfinding searches and replays every step the algorithm takes,
in the terminal, over HTTP or to MCP agents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		jsonLogs, _ := cmd.Flags().GetBool("log-json")

		cfg = loaded
		logger = logging.NewWithWriter(os.Stderr, level, jsonLogs)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a wayfinder.yaml configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
}
