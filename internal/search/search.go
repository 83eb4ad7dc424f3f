// Package search drives an exhaustive keyspace search: it pulls candidate
// batches from the enumerator, runs them through the oracle pool, persists a
// checkpoint after every collected batch, and stops on the first accepted
// candidate or when the keyspace is exhausted.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/keysweep/internal/checkpoint"
	"github.com/cwbudde/keysweep/internal/dispatch"
	"github.com/cwbudde/keysweep/internal/keyspace"
	"github.com/cwbudde/keysweep/internal/oracle"
)

// Verdict is the terminal outcome of a completed search.
type Verdict string

const (
	// VerdictFound means a candidate was accepted by the oracle.
	VerdictFound Verdict = "found"
	// VerdictExhausted means every candidate in the keyspace was rejected.
	VerdictExhausted Verdict = "exhausted"
)

// FoundSecret is the accepted candidate and the artifact its verification
// produced.
type FoundSecret struct {
	Candidate    string `json:"candidate"`
	ArtifactPath string `json:"artifactPath"`
}

// Summary reports a finished search. Secret is set only for VerdictFound.
type Summary struct {
	Verdict      Verdict           `json:"verdict"`
	Secret       *FoundSecret      `json:"secret,omitempty"`
	Tested       uint64            `json:"tested"`
	LastPosition keyspace.Position `json:"lastPosition"`
	Elapsed      time.Duration     `json:"elapsed"`
}

// Progress describes the search state after one collected batch.
type Progress struct {
	Length    int           `json:"length"`
	Offset    uint64        `json:"offset"`
	Tested    uint64        `json:"tested"`
	BatchSize int           `json:"batchSize"`
	Total     uint64        `json:"total,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// ProgressFunc receives progress updates. Calls happen on the coordinating
// goroutine between batches, never concurrently.
type ProgressFunc func(Progress)

// Searcher coordinates one search. Build it with New; the exported
// collaborators may be swapped before Run, which tests use to substitute
// oracles and stores.
type Searcher struct {
	cfg   Config
	space *keyspace.Space
	total uint64 // keyspace size, 0 when not representable

	Store  checkpoint.Store
	Oracle oracle.Oracle
	Pool   *dispatch.Pool

	// Progress, when set, is called after every collected batch.
	Progress ProgressFunc

	// Trace, when set, receives one journal entry per collected batch. The
	// caller owns the writer's lifecycle.
	Trace *checkpoint.TraceWriter
}

// New validates the configuration, checks the target is readable, and wires
// the default collaborators: a file checkpoint store, the gpg oracle, and a
// dispatch pool.
func New(cfg Config) (*Searcher, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	alphabet, err := keyspace.ParseAlphabet(cfg.Alphabet)
	if err != nil {
		return nil, &ValidationError{Field: "alphabet", Reason: err.Error()}
	}
	space, err := keyspace.NewSpace(alphabet, cfg.MinLength, cfg.MaxLength)
	if err != nil {
		return nil, &ValidationError{Field: "min-length", Reason: err.Error()}
	}

	if _, err := os.Stat(cfg.TargetPath); err != nil {
		return nil, &ValidationError{Field: "target", Reason: fmt.Sprintf("not readable: %v", err)}
	}

	store, err := checkpoint.NewFileStore(cfg.CheckpointPath)
	if err != nil {
		return nil, &ValidationError{Field: "checkpoint", Reason: err.Error()}
	}

	gpg := oracle.NewGPG(cfg.TargetPath, cfg.Timeout)
	if cfg.OracleBinary != "" {
		gpg.Binary = cfg.OracleBinary
	}

	total, exact := space.Total()
	if !exact {
		total = 0
	}

	return &Searcher{
		cfg:    cfg,
		space:  space,
		total:  total,
		Store:  store,
		Oracle: gpg,
		Pool:   dispatch.NewPool(cfg.Workers),
	}, nil
}

// Config returns the effective configuration with defaults applied.
func (s *Searcher) Config() Config { return s.cfg }

// Total returns the keyspace size, or 0 when it exceeds uint64.
func (s *Searcher) Total() uint64 { return s.total }

// Run executes the search until a candidate is accepted, the keyspace is
// exhausted, or ctx is cancelled. Cancellation abandons the in-flight batch
// without checkpointing, so the previous checkpoint stands and a later run
// re-tests only that batch.
func (s *Searcher) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	targetID := s.cfg.TargetPath

	pos, resumed := s.Store.Load(targetID)
	if resumed {
		slog.Info("Resuming from checkpoint", "target", targetID, "length", pos.Length, "index", pos.Offset)
	} else {
		pos = s.space.Start()
	}

	enum, err := keyspace.NewEnumerator(s.space, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to position enumerator: %w", err)
	}

	slog.Info("Search started",
		"target", targetID,
		"alphabet", s.cfg.Alphabet,
		"minLength", s.cfg.MinLength,
		"maxLength", s.cfg.MaxLength,
		"workers", s.Pool.Workers(),
		"chunkSize", s.cfg.ChunkSize)

	var tested uint64
	lastPos := pos
	currentLength := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search interrupted: %w", err)
		}

		batch := enum.NextBatch(s.cfg.ChunkSize)
		if len(batch) == 0 {
			slog.Info("Keyspace exhausted", "tested", tested)
			return &Summary{
				Verdict:      VerdictExhausted,
				Tested:       tested,
				LastPosition: lastPos,
				Elapsed:      time.Since(start),
			}, nil
		}
		if batch[0].Length != currentLength {
			currentLength = batch[0].Length
			slog.Info("Trying length", "length", currentLength)
		}

		results := s.Pool.Run(ctx, s.Oracle, batch)
		if err := ctx.Err(); err != nil {
			// The batch completed under cancellation pressure; its
			// outcomes are untrustworthy, so the position must not
			// advance past them.
			return nil, fmt.Errorf("search interrupted: %w", err)
		}

		// Scan in input order; the first acceptance wins and ends the
		// scan, so the checkpoint lands just past the accepted candidate.
		var found *dispatch.Result
		scanned := 0
		for i := range results {
			scanned++
			if results[i].Outcome.Accepted() {
				found = &results[i]
				break
			}
			if results[i].Outcome.Status == oracle.StatusError {
				slog.Debug("Oracle invocation failed",
					"length", results[i].Candidate.Length,
					"ordinal", results[i].Candidate.Ordinal,
					"diagnostic", results[i].Outcome.Diagnostic)
			}
		}
		tested += uint64(scanned)
		lastPos = batch[scanned-1].Next()

		if err := s.Store.Save(targetID, lastPos); err != nil {
			slog.Error("Failed to save checkpoint", "error", err)
		}
		s.record(lastPos, tested, len(batch), time.Since(start))

		if found != nil {
			secret := &FoundSecret{
				Candidate:    found.Candidate.Value,
				ArtifactPath: found.Outcome.ArtifactPath,
			}
			s.persistFound(secret)
			slog.Info("Passphrase found",
				"candidate", secret.Candidate,
				"artifact", secret.ArtifactPath,
				"tested", tested)
			return &Summary{
				Verdict:      VerdictFound,
				Secret:       secret,
				Tested:       tested,
				LastPosition: lastPos,
				Elapsed:      time.Since(start),
			}, nil
		}
	}
}

// record journals and reports one collected batch.
func (s *Searcher) record(pos keyspace.Position, tested uint64, batchSize int, elapsed time.Duration) {
	if s.Trace != nil {
		entry := checkpoint.TraceEntry{
			Length:    pos.Length,
			Offset:    pos.Offset,
			Tested:    tested,
			BatchSize: batchSize,
			Timestamp: time.Now().UTC(),
		}
		if err := s.Trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "error", err)
		}
	}
	if s.Progress != nil {
		s.Progress(Progress{
			Length:    pos.Length,
			Offset:    pos.Offset,
			Tested:    tested,
			BatchSize: batchSize,
			Total:     s.total,
			Elapsed:   elapsed,
		})
	}
}

// persistFound writes the found record and retires the checkpoint. The search
// has already concluded, so failures here are logged rather than returned.
func (s *Searcher) persistFound(secret *FoundSecret) {
	if err := os.WriteFile(s.cfg.FoundPath, []byte(secret.Candidate+"\n"), 0644); err != nil {
		slog.Error("Failed to write found file", "path", s.cfg.FoundPath, "error", err)
	}
	if err := s.Store.Clear(); err != nil {
		slog.Error("Failed to remove checkpoint", "error", err)
	}
}
