package main

import (
	"path/filepath"
	"testing"

	"github.com/cwbudde/keysweep/internal/checkpoint"
	"github.com/cwbudde/keysweep/internal/keyspace"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShowCheckpointCommand_NoCheckpoint(t *testing.T) {
	original := checkpointFile
	checkpointFile = filepath.Join(t.TempDir(), "absent.json")
	defer func() { checkpointFile = original }()

	if err := runShowCheckpoint(nil, nil); err != nil {
		t.Errorf("expected no error for a missing checkpoint, got %v", err)
	}
}

func TestShowCheckpointCommand_WithCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bf_checkpoint.json")
	store, err := checkpoint.NewFileStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Save("doc.pdf.gpg", keyspace.Position{Length: 3, Offset: 120}); err != nil {
		t.Fatalf("failed to save checkpoint: %v", err)
	}

	original := checkpointFile
	checkpointFile = path
	defer func() { checkpointFile = original }()

	if err := runShowCheckpoint(nil, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestClearCheckpointCommand_WithForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bf_checkpoint.json")
	store, err := checkpoint.NewFileStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Save("doc.pdf.gpg", keyspace.Position{Length: 2, Offset: 8}); err != nil {
		t.Fatalf("failed to save checkpoint: %v", err)
	}

	originalFile, originalForce := checkpointFile, forceClear
	checkpointFile = path
	forceClear = true
	defer func() { checkpointFile, forceClear = originalFile, originalForce }()

	if err := runClearCheckpoint(nil, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if _, ok := store.Load("doc.pdf.gpg"); ok {
		t.Error("expected checkpoint to be removed")
	}
}

func TestClearCheckpointCommand_NothingToClear(t *testing.T) {
	originalFile, originalForce := checkpointFile, forceClear
	checkpointFile = filepath.Join(t.TempDir(), "absent.json")
	forceClear = true
	defer func() { checkpointFile, forceClear = originalFile, originalForce }()

	if err := runClearCheckpoint(nil, nil); err != nil {
		t.Errorf("expected no error when nothing to clear, got %v", err)
	}
}
