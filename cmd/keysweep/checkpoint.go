package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/keysweep/internal/checkpoint"
)

var (
	checkpointFile string
	forceClear     bool
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and manage the search checkpoint",
	Long: `Inspect or remove the checkpoint file. A checkpoint records the target and
the exact position the next run will continue from.`,
}

var showCheckpointCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the stored checkpoint",
	RunE:  runShowCheckpoint,
}

var clearCheckpointCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored checkpoint",
	RunE:  runClearCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(showCheckpointCmd)
	checkpointCmd.AddCommand(clearCheckpointCmd)

	checkpointCmd.PersistentFlags().StringVar(&checkpointFile, "checkpoint", checkpoint.DefaultPath, "Checkpoint file")
	clearCheckpointCmd.Flags().BoolVarP(&forceClear, "force", "f", false, "Skip confirmation prompt")
}

func runShowCheckpoint(cmd *cobra.Command, args []string) error {
	store, err := checkpoint.NewFileStore(checkpointFile)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	info, err := store.Describe()
	if err != nil {
		if errors.Is(err, &checkpoint.NotFoundError{}) {
			fmt.Println("No checkpoint found.")
			return nil
		}
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Target:\t%s\n", info.TargetID)
	fmt.Fprintf(w, "Next length:\t%d\n", info.Position.Length)
	fmt.Fprintf(w, "Next index:\t%d\n", info.Position.Offset)
	fmt.Fprintf(w, "File:\t%s (%s)\n", info.Path, formatBytes(info.Size))
	fmt.Fprintf(w, "Modified:\t%s\n", info.ModTime.Format("2006-01-02 15:04:05"))
	return w.Flush()
}

func runClearCheckpoint(cmd *cobra.Command, args []string) error {
	store, err := checkpoint.NewFileStore(checkpointFile)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	info, err := store.Describe()
	if err != nil {
		if errors.Is(err, &checkpoint.NotFoundError{}) {
			fmt.Println("No checkpoint to clear.")
			return nil
		}
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	if !forceClear {
		fmt.Printf("Remove checkpoint for %s (next position length=%d, index=%d)? [y/N]: ",
			info.TargetID, info.Position.Length, info.Position.Offset)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	fmt.Println("Checkpoint removed.")
	return nil
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
