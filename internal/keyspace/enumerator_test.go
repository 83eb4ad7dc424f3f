package keyspace

import (
	"strings"
	"testing"
)

// drain collects every remaining candidate in chunk-sized batches.
func drain(e *Enumerator, chunk int) []Candidate {
	var all []Candidate
	for {
		batch := e.NextBatch(chunk)
		if len(batch) == 0 {
			return all
		}
		all = append(all, batch...)
	}
}

func newEnumeratorAt(t *testing.T, s *Space, pos Position) *Enumerator {
	t.Helper()
	e, err := NewEnumerator(s, pos)
	if err != nil {
		t.Fatalf("NewEnumerator(%+v) failed: %v", pos, err)
	}
	return e
}

func TestEnumerationOrderAndCompleteness(t *testing.T) {
	s := mustSpace(t, "ab", 1, 2)
	all := drain(newEnumeratorAt(t, s, s.Start()), 4)

	want := []string{"a", "b", "aa", "ab", "ba", "bb"}
	if len(all) != len(want) {
		t.Fatalf("enumerated %d candidates, want %d", len(all), len(want))
	}
	seen := make(map[string]struct{}, len(all))
	for i, c := range all {
		if c.Value != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Value, want[i])
		}
		if c.Length != len(want[i]) {
			t.Errorf("candidate %d length = %d, want %d", i, c.Length, len(want[i]))
		}
		if _, dup := seen[c.Value]; dup {
			t.Errorf("candidate %q produced twice", c.Value)
		}
		seen[c.Value] = struct{}{}
	}
}

func TestEnumerationHonorsAlphabetOrder(t *testing.T) {
	s := mustSpace(t, "ba", 1, 2)
	all := drain(newEnumeratorAt(t, s, s.Start()), 10)

	want := []string{"b", "a", "bb", "ba", "ab", "aa"}
	for i, c := range all {
		if c.Value != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Value, want[i])
		}
	}
}

func TestOrdinalsResetPerLength(t *testing.T) {
	s := mustSpace(t, "ab", 1, 2)
	all := drain(newEnumeratorAt(t, s, s.Start()), 100)

	wantOrdinals := []uint64{0, 1, 0, 1, 2, 3}
	for i, c := range all {
		if c.Ordinal != wantOrdinals[i] {
			t.Errorf("candidate %d (%q) ordinal = %d, want %d", i, c.Value, c.Ordinal, wantOrdinals[i])
		}
	}
}

// Resuming from any valid position must reproduce exactly the suffix of the
// full enumeration, with nothing revisited and nothing skipped.
func TestResumeReproducesSuffix(t *testing.T) {
	s := mustSpace(t, "ab", 1, 3)
	full := drain(newEnumeratorAt(t, s, s.Start()), 3)
	if len(full) != 14 {
		t.Fatalf("full enumeration has %d candidates, want 14", len(full))
	}

	globalIndex := func(length int, offset uint64) int {
		idx := uint64(0)
		for l := 1; l < length; l++ {
			count, _ := s.Count(l)
			idx += count
		}
		return int(idx + offset)
	}

	for length := 1; length <= 3; length++ {
		count, _ := s.Count(length)
		for offset := uint64(0); offset <= count; offset++ {
			suffix := drain(newEnumeratorAt(t, s, Position{Length: length, Offset: offset}), 3)
			want := full[globalIndex(length, offset):]
			if len(suffix) != len(want) {
				t.Fatalf("resume at {%d,%d}: got %d candidates, want %d", length, offset, len(suffix), len(want))
			}
			for i := range want {
				if suffix[i].Value != want[i].Value {
					t.Fatalf("resume at {%d,%d}: candidate %d = %q, want %q",
						length, offset, i, suffix[i].Value, want[i].Value)
				}
			}
		}
	}
}

func TestBatchesDoNotSpanLengths(t *testing.T) {
	s := mustSpace(t, "abc", 1, 2)
	e := newEnumeratorAt(t, s, s.Start())

	var sizes []int
	for {
		batch := e.NextBatch(5)
		if len(batch) == 0 {
			break
		}
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			if c.Length != batch[0].Length {
				t.Fatalf("batch mixes lengths %d and %d", batch[0].Length, c.Length)
			}
		}
	}

	want := []int{3, 5, 4}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("batch sizes = %v, want %v", sizes, want)
		}
	}
}

func TestResumePositions(t *testing.T) {
	s := mustSpace(t, "ab", 1, 2)

	tests := []struct {
		name  string
		pos   Position
		first string
		total int
	}{
		{name: "offset covers whole length", pos: Position{Length: 1, Offset: 2}, first: "aa", total: 4},
		{name: "offset beyond length count", pos: Position{Length: 1, Offset: 99}, first: "aa", total: 4},
		{name: "mid length", pos: Position{Length: 2, Offset: 3}, first: "bb", total: 1},
		{name: "end of last length", pos: Position{Length: 2, Offset: 4}, total: 0},
		{name: "length beyond maximum", pos: Position{Length: 3, Offset: 0}, total: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := drain(newEnumeratorAt(t, s, tt.pos), 10)
			if len(all) != tt.total {
				t.Fatalf("got %d candidates, want %d", len(all), tt.total)
			}
			if tt.total > 0 && all[0].Value != tt.first {
				t.Errorf("first candidate = %q, want %q", all[0].Value, tt.first)
			}
		})
	}
}

func TestEnumeratorRejectsInvalidLength(t *testing.T) {
	s := mustSpace(t, "ab", 1, 2)
	if _, err := NewEnumerator(s, Position{Length: 0}); err == nil {
		t.Error("expected error for position length 0")
	}
}

func TestNextBatchNonPositiveLimit(t *testing.T) {
	s := mustSpace(t, "ab", 1, 2)
	e := newEnumeratorAt(t, s, s.Start())
	if batch := e.NextBatch(0); batch != nil {
		t.Errorf("NextBatch(0) = %v, want nil", batch)
	}
	if batch := e.NextBatch(-1); batch != nil {
		t.Errorf("NextBatch(-1) = %v, want nil", batch)
	}
}

// Lengths whose counts overflow uint64 still enumerate; only the exact totals
// are unrepresentable.
func TestEnumerationSurvivesCountOverflow(t *testing.T) {
	s := mustSpace(t, "ab", 70, 70)
	e := newEnumeratorAt(t, s, s.Start())

	batch := e.NextBatch(3)
	if len(batch) != 3 {
		t.Fatalf("got %d candidates, want 3", len(batch))
	}
	want := []string{
		strings.Repeat("a", 70),
		strings.Repeat("a", 69) + "b",
		strings.Repeat("a", 68) + "ba",
	}
	for i := range want {
		if batch[i].Value != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, batch[i].Value, want[i])
		}
	}
}
