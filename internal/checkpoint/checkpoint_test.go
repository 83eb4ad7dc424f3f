package checkpoint

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/keysweep/internal/keyspace"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "bf_checkpoint.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func TestNewFileStoreValidation(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := keyspace.Position{Length: 3, Offset: 1234}

	if err := s.Save("secret.pdf.gpg", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, ok := s.Load("secret.pdf.gpg")
	if !ok {
		t.Fatal("Load reported no checkpoint after Save")
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.Load("secret.pdf.gpg"); ok {
		t.Error("Load reported a checkpoint where none was saved")
	}
}

func TestLoadDifferentTarget(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("first.gpg", keyspace.Position{Length: 2, Offset: 9}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, ok := s.Load("other.gpg"); ok {
		t.Error("checkpoint for first.gpg was offered to other.gpg")
	}
	// The record itself must survive; ignoring is not deleting.
	if _, ok := s.Load("first.gpg"); !ok {
		t.Error("checkpoint lost after a mismatched Load")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to plant corrupt file: %v", err)
	}
	if _, ok := s.Load("secret.pdf.gpg"); ok {
		t.Error("corrupt checkpoint was loaded")
	}
}

func TestLoadImpossiblePosition(t *testing.T) {
	s := newTestStore(t)
	raw := `{"file":"secret.pdf.gpg","length":0,"index":5}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0644); err != nil {
		t.Fatalf("failed to plant file: %v", err)
	}
	if _, ok := s.Load("secret.pdf.gpg"); ok {
		t.Error("checkpoint with length 0 was loaded")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("secret.pdf.gpg", keyspace.Position{Length: 1, Offset: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := s.Load("secret.pdf.gpg"); ok {
		t.Error("checkpoint still loadable after Clear")
	}
	// Clearing an already-absent record stays quiet.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}

func TestSaveLeavesNoTempResidue(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("secret.pdf.gpg", keyspace.Position{Length: 4, Offset: 42}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("dir holds %d entries, want only the checkpoint", len(entries))
	}
}

func TestSaveRejectsEmptyTarget(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("", keyspace.Position{Length: 1}); err == nil {
		t.Error("expected error for empty target identity")
	}
}

// The on-disk field names are a compatibility contract with records written
// by earlier versions of the tool.
func TestOnDiskSchema(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("secret.pdf.gpg", keyspace.Position{Length: 3, Offset: 77}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("failed to read checkpoint: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("checkpoint is not JSON: %v", err)
	}
	if raw["file"] != "secret.pdf.gpg" {
		t.Errorf(`raw["file"] = %v, want "secret.pdf.gpg"`, raw["file"])
	}
	if raw["length"] != float64(3) {
		t.Errorf(`raw["length"] = %v, want 3`, raw["length"])
	}
	if raw["index"] != float64(77) {
		t.Errorf(`raw["index"] = %v, want 77`, raw["index"])
	}
}

func TestLoadLegacyRecord(t *testing.T) {
	s := newTestStore(t)
	raw := `{"file": "doc.gpg", "length": 2, "index": 7}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0644); err != nil {
		t.Fatalf("failed to plant legacy record: %v", err)
	}

	got, ok := s.Load("doc.gpg")
	if !ok {
		t.Fatal("legacy record did not load")
	}
	if got.Length != 2 || got.Offset != 7 {
		t.Errorf("Load = %+v, want {Length:2 Offset:7}", got)
	}
}

func TestDescribe(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Describe(); !errors.Is(err, &NotFoundError{}) {
		t.Errorf("Describe on missing file = %v, want NotFoundError", err)
	}

	if err := s.Save("secret.pdf.gpg", keyspace.Position{Length: 5, Offset: 100}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := s.Describe()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if info.TargetID != "secret.pdf.gpg" {
		t.Errorf("TargetID = %q, want secret.pdf.gpg", info.TargetID)
	}
	if info.Position.Length != 5 || info.Position.Offset != 100 {
		t.Errorf("Position = %+v, want {Length:5 Offset:100}", info.Position)
	}
	if info.Size <= 0 {
		t.Errorf("Size = %d, want positive", info.Size)
	}

	// Describe surfaces damage instead of hiding it.
	if err := os.WriteFile(s.Path(), []byte("garbage"), 0644); err != nil {
		t.Fatalf("failed to plant corrupt file: %v", err)
	}
	if _, err := s.Describe(); err == nil {
		t.Error("Describe on corrupt file returned no error")
	}
}
