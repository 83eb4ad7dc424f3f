package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/keysweep/internal/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "keysweep",
	Short: "Resumable exhaustive passphrase search for gpg-encrypted files",
	Long: `Keysweep walks a keyspace in length-then-alphabet order and tests every
candidate against gpg until one decrypts the target. Progress is checkpointed
after every batch, so an interrupted search resumes where it stopped.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(cmd, cfgFile); err != nil {
			return err
		}

		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

// Execute runs the CLI under ctx; cancelling ctx interrupts a running search.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./keysweep.yaml, $HOME/keysweep.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.SilenceUsage = true
}
