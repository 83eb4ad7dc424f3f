package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/keysweep/internal/checkpoint"
)

var traceCmd = &cobra.Command{
	Use:   "trace <journal>",
	Short: "Summarize a batch trace journal",
	Long: `Reads the JSONL journal written by run --trace and reports how the search
progressed: batches and candidates per length, and the overall rate.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	reader, err := checkpoint.NewTraceReader(args[0])
	if err != nil {
		if errors.Is(err, &checkpoint.NotFoundError{}) {
			return fmt.Errorf("no trace journal at %s", args[0])
		}
		return fmt.Errorf("failed to open trace journal: %w", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace journal: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Trace journal is empty.")
		return nil
	}

	// Batches arrive in order, so per-length stats aggregate linearly.
	type lengthStats struct {
		length  int
		batches int
		tested  uint64
	}
	var perLength []lengthStats
	for _, e := range entries {
		if len(perLength) == 0 || perLength[len(perLength)-1].length != e.Length {
			perLength = append(perLength, lengthStats{length: e.Length})
		}
		last := &perLength[len(perLength)-1]
		last.batches++
		last.tested = e.Offset
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LENGTH\tBATCHES\tCANDIDATES")
	fmt.Fprintln(w, "------\t-------\t----------")
	for _, ls := range perLength {
		fmt.Fprintf(w, "%d\t%d\t%d\n", ls.length, ls.batches, ls.tested)
	}
	w.Flush()

	first, last := entries[0], entries[len(entries)-1]
	fmt.Printf("\nTotal batches: %d\n", len(entries))
	fmt.Printf("Candidates tested: %d\n", last.Tested)
	fmt.Printf("Last position: length=%d, index=%d\n", last.Length, last.Offset)

	if span := last.Timestamp.Sub(first.Timestamp); span > 0 && last.Tested > first.Tested {
		rate := float64(last.Tested-first.Tested) / span.Seconds()
		fmt.Printf("Span: %s (%.0f candidates/sec)\n", span.Round(time.Second), rate)
	}
	return nil
}
