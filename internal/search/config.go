package search

import (
	"time"

	"github.com/cwbudde/keysweep/internal/checkpoint"
	"github.com/cwbudde/keysweep/internal/oracle"
)

// Defaults for everything a caller leaves unset. They mirror the historical
// behavior of the tool, so existing checkpoints and wrappers keep working.
const (
	DefaultAlphabet  = "abcdefghijklmnopqrstuvwxyz"
	DefaultMinLength = 1
	DefaultMaxLength = 5
	DefaultChunkSize = 5000
	DefaultFoundPath = "found.txt"
)

// Config describes one search: the target, the keyspace, the oracle binding,
// and the paths for durable records.
type Config struct {
	// TargetPath is the encrypted file candidates are tested against. Its
	// exact string value is also the checkpoint's target identity.
	TargetPath string `json:"targetPath" mapstructure:"target"`

	// Alphabet is the ordered character set candidates are built from.
	Alphabet string `json:"alphabet" mapstructure:"alphabet"`

	// MinLength and MaxLength bound the candidate lengths, inclusive.
	MinLength int `json:"minLength" mapstructure:"min-length"`
	MaxLength int `json:"maxLength" mapstructure:"max-length"`

	// Workers is the number of concurrent oracle invocations.
	Workers int `json:"workers" mapstructure:"workers"`

	// ChunkSize is the number of candidates dispatched and checkpointed as
	// one unit.
	ChunkSize int `json:"chunkSize" mapstructure:"chunk-size"`

	// Timeout bounds each oracle invocation.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// CheckpointPath is the progress record location.
	CheckpointPath string `json:"checkpointPath" mapstructure:"checkpoint"`

	// FoundPath receives the accepted candidate on success.
	FoundPath string `json:"foundPath" mapstructure:"found"`

	// OracleBinary overrides the gpg executable. Empty uses the default.
	OracleBinary string `json:"oracleBinary,omitempty" mapstructure:"oracle-binary"`
}

// ValidationError reports an unusable search parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// Is makes errors.Is match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// withDefaults fills every unset field.
func (c Config) withDefaults() Config {
	if c.Alphabet == "" {
		c.Alphabet = DefaultAlphabet
	}
	if c.MinLength == 0 {
		c.MinLength = DefaultMinLength
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Timeout == 0 {
		c.Timeout = oracle.DefaultTimeout
	}
	if c.CheckpointPath == "" {
		c.CheckpointPath = checkpoint.DefaultPath
	}
	if c.FoundPath == "" {
		c.FoundPath = DefaultFoundPath
	}
	return c
}

// Validate checks the parameters after defaults are applied. The target's
// existence is checked separately when the searcher is built.
func (c Config) Validate() error {
	if c.TargetPath == "" {
		return &ValidationError{Field: "target", Reason: "cannot be empty"}
	}
	if c.MinLength < 1 {
		return &ValidationError{Field: "min-length", Reason: "must be at least 1"}
	}
	if c.MaxLength < c.MinLength {
		return &ValidationError{Field: "max-length", Reason: "must be at least min-length"}
	}
	if c.ChunkSize < 1 {
		return &ValidationError{Field: "chunk-size", Reason: "must be positive"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Reason: "cannot be negative"}
	}
	if c.Workers < 0 {
		return &ValidationError{Field: "workers", Reason: "cannot be negative"}
	}
	return nil
}
