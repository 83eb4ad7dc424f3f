// Package checkpoint persists search progress so an interrupted run can
// resume without re-testing candidates. The on-disk record is a single JSON
// file keyed by target identity; a record for a different target is treated
// as absent, never reused.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/keysweep/internal/keyspace"
)

// DefaultPath is the checkpoint filename used when none is configured.
const DefaultPath = "bf_checkpoint.json"

// Store persists and restores the search position for a target.
type Store interface {
	// Load returns the saved position for targetID. ok is false when no
	// usable checkpoint exists for that target.
	Load(targetID string) (pos keyspace.Position, ok bool)

	// Save durably records the position for targetID, replacing any
	// previous record.
	Save(targetID string, pos keyspace.Position) error

	// Clear removes the record. Clearing an absent record is not an error.
	Clear() error
}

// record is the on-disk schema. The field names are fixed; checkpoints
// written by earlier versions of the tool must keep loading.
type record struct {
	File   string `json:"file"`
	Length int    `json:"length"`
	Index  uint64 `json:"index"`
}

// NotFoundError indicates no checkpoint file exists at the path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no checkpoint at %s", e.Path)
}

// Is makes errors.Is match any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Info describes a stored checkpoint for display.
type Info struct {
	Path     string
	TargetID string
	Position keyspace.Position
	Size     int64
	ModTime  time.Time
}

// FileStore implements Store with a single JSON file written atomically.
//
// Thread-safety: saves use temp file + rename, so concurrent readers never
// observe a partial record. Only one searcher should own a given path.
type FileStore struct {
	path string
}

// NewFileStore returns a store persisting to path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path must not be empty")
	}
	return &FileStore{path: path}, nil
}

// Path returns the checkpoint file path.
func (s *FileStore) Path() string { return s.path }

// Load restores the position saved for targetID. A missing file, a record
// for a different target, or a record that cannot be parsed all degrade to
// "no checkpoint"; damage never aborts a search.
func (s *FileStore) Load(targetID string) (keyspace.Position, bool) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return keyspace.Position{}, false
	}
	if err != nil {
		slog.Warn("Checkpoint unreadable; starting fresh", "path", s.path, "error", err)
		return keyspace.Position{}, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("Checkpoint corrupt; starting fresh", "path", s.path, "error", err)
		return keyspace.Position{}, false
	}
	if rec.Length < 1 {
		slog.Warn("Checkpoint holds impossible position; starting fresh", "path", s.path, "length", rec.Length)
		return keyspace.Position{}, false
	}
	if rec.File != targetID {
		slog.Info("Ignoring checkpoint for different target", "path", s.path,
			"checkpointTarget", rec.File, "target", targetID)
		return keyspace.Position{}, false
	}

	slog.Debug("Checkpoint loaded", "path", s.path, "length", rec.Length, "index", rec.Index)
	return keyspace.Position{Length: rec.Length, Offset: rec.Index}, true
}

// Save atomically replaces the checkpoint with the given position.
// Uses temp file + rename so a crash cannot leave a half-written record.
func (s *FileStore) Save(targetID string, pos keyspace.Position) error {
	if targetID == "" {
		return fmt.Errorf("target identity cannot be empty")
	}

	data, err := json.Marshal(record{File: targetID, Length: pos.Length, Index: pos.Offset})
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}

	slog.Debug("Checkpoint saved", "path", s.path, "length", pos.Length, "index", pos.Offset)
	return nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	return nil
}

// Describe returns display metadata for the stored checkpoint, or a
// NotFoundError when none exists. Unlike Load it surfaces parse failures so
// an inspection command can report them.
func (s *FileStore) Describe() (Info, error) {
	st, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, &NotFoundError{Path: s.path}
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat checkpoint file: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Info{}, fmt.Errorf("failed to parse checkpoint file: %w", err)
	}

	return Info{
		Path:     s.path,
		TargetID: rec.File,
		Position: keyspace.Position{Length: rec.Length, Offset: rec.Index},
		Size:     st.Size(),
		ModTime:  st.ModTime(),
	}, nil
}
