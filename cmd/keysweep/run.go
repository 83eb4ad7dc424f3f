package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/keysweep/internal/checkpoint"
	"github.com/cwbudde/keysweep/internal/oracle"
	"github.com/cwbudde/keysweep/internal/search"
)

// progressLogInterval throttles progress log lines on long runs.
const progressLogInterval = 5 * time.Second

var (
	alphabet       string
	minLength      int
	maxLength      int
	workers        int
	chunkSize      int
	timeoutSec     int
	checkpointPath string
	foundPath      string
	gpgBinary      string
	tracePath      string
)

var runCmd = &cobra.Command{
	Use:   "run <target>",
	Short: "Search for the passphrase of a gpg-encrypted file",
	Long: `Enumerates every candidate passphrase over the alphabet, shortest first,
and tries each against the target until gpg accepts one or the keyspace is
exhausted. A checkpoint is written after every batch; rerunning the same
target picks up from it automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeSearch(cmd.Context(), searchConfig(args[0]))
	},
}

func init() {
	addSearchFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// addSearchFlags registers the flag set shared by run and resume.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&alphabet, "alphabet", search.DefaultAlphabet, "Candidate alphabet; enumeration follows its order")
	cmd.Flags().IntVar(&minLength, "min-length", search.DefaultMinLength, "Shortest candidate length")
	cmd.Flags().IntVar(&maxLength, "max-length", search.DefaultMaxLength, "Longest candidate length")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent gpg invocations (0 = CPU count - 1)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", search.DefaultChunkSize, "Candidates per batch")
	cmd.Flags().IntVar(&timeoutSec, "timeout", int(oracle.DefaultTimeout/time.Second), "Per-invocation timeout in seconds")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", checkpoint.DefaultPath, "Checkpoint file")
	cmd.Flags().StringVar(&foundPath, "found-file", search.DefaultFoundPath, "File that receives the found passphrase")
	cmd.Flags().StringVar(&gpgBinary, "gpg-binary", oracle.DefaultBinary, "gpg binary to invoke")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Append a JSONL batch journal to this file")
}

func searchConfig(target string) search.Config {
	return search.Config{
		TargetPath:     target,
		Alphabet:       alphabet,
		MinLength:      minLength,
		MaxLength:      maxLength,
		Workers:        workers,
		ChunkSize:      chunkSize,
		Timeout:        time.Duration(timeoutSec) * time.Second,
		CheckpointPath: checkpointPath,
		FoundPath:      foundPath,
		OracleBinary:   gpgBinary,
	}
}

// executeSearch runs one search to completion and prints the outcome.
func executeSearch(ctx context.Context, cfg search.Config) error {
	searcher, err := search.New(cfg)
	if err != nil {
		return err
	}
	effective := searcher.Config()

	if tracePath != "" {
		tw, err := checkpoint.NewTraceWriter(tracePath, true)
		if err != nil {
			return fmt.Errorf("failed to open trace journal: %w", err)
		}
		defer tw.Close()
		searcher.Trace = tw
	}

	var lastLogged time.Time
	searcher.Progress = func(p search.Progress) {
		if time.Since(lastLogged) < progressLogInterval {
			return
		}
		lastLogged = time.Now()
		var rate float64
		if secs := p.Elapsed.Seconds(); secs > 0 {
			rate = float64(p.Tested) / secs
		}
		slog.Info("Search progress", "length", p.Length, "index", p.Offset, "tested", p.Tested, "rate_per_sec", rate)
	}

	summary, err := searcher.Run(ctx)
	if err != nil {
		return err
	}

	switch summary.Verdict {
	case search.VerdictFound:
		fmt.Println("=== PASSPHRASE FOUND ===")
		fmt.Printf("Passphrase: %s\n", summary.Secret.Candidate)
		fmt.Printf("Decrypted output at: %s\n", summary.Secret.ArtifactPath)
		fmt.Printf("Recorded in: %s\n", effective.FoundPath)
	case search.VerdictExhausted:
		fmt.Println("No passphrase found in the given range.")
		fmt.Printf("Total candidates tested: %d\n", summary.Tested)
		fmt.Printf("The checkpoint at %s still marks the range complete; remove it or raise --max-length before rerunning.\n",
			effective.CheckpointPath)
	}
	fmt.Printf("Elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
	return nil
}
