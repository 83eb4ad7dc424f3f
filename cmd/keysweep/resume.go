package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/keysweep/internal/checkpoint"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <target>",
	Short: "Resume a checkpointed search",
	Long: `Continues a search from its checkpoint. Unlike run, which starts from the
beginning when no checkpoint matches, resume refuses to proceed without one,
so a mistyped path cannot silently restart a long search from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	addSearchFlags(resumeCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	target := args[0]

	store, err := checkpoint.NewFileStore(checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	pos, ok := store.Load(target)
	if !ok {
		return fmt.Errorf("no checkpoint for %s at %s; use run to start fresh", target, checkpointPath)
	}

	fmt.Printf("Resuming from length=%d, index=%d\n", pos.Length, pos.Offset)
	return executeSearch(cmd.Context(), searchConfig(target))
}
