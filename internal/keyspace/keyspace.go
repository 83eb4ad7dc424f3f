// Package keyspace defines the space of candidate secrets implied by an
// alphabet and a length range, and enumerates it in a total, resumable order:
// ascending length, then lexicographic under the alphabet's character order.
package keyspace

import (
	"fmt"
	"math"
)

// Alphabet is an ordered sequence of distinct characters. The character order
// fixes the enumeration order for every length.
type Alphabet struct {
	runes []rune
}

// ParseAlphabet builds an Alphabet from s, rejecting empty or duplicated
// characters.
func ParseAlphabet(s string) (Alphabet, error) {
	runes := []rune(s)
	if len(runes) == 0 {
		return Alphabet{}, fmt.Errorf("alphabet must not be empty")
	}
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		if _, dup := seen[r]; dup {
			return Alphabet{}, fmt.Errorf("alphabet contains duplicate character %q", r)
		}
		seen[r] = struct{}{}
	}
	return Alphabet{runes: runes}, nil
}

// Size returns the number of characters.
func (a Alphabet) Size() int { return len(a.runes) }

func (a Alphabet) String() string { return string(a.runes) }

// Position identifies a point in the enumeration: Offset candidates of the
// given Length have already been fully processed. Offset may equal the total
// count for the length, meaning the length is complete.
type Position struct {
	Length int    `json:"length"`
	Offset uint64 `json:"offset"`
}

// Candidate is one trial value. Ordinal is its zero-based rank among all
// candidates of the same length.
type Candidate struct {
	Value   string
	Length  int
	Ordinal uint64
}

// Next returns the position immediately after this candidate.
func (c Candidate) Next() Position {
	return Position{Length: c.Length, Offset: c.Ordinal + 1}
}

// Space is the full keyspace for an alphabet and an inclusive length range.
type Space struct {
	alphabet  Alphabet
	minLength int
	maxLength int
}

// NewSpace validates the length range and returns the keyspace.
func NewSpace(alphabet Alphabet, minLength, maxLength int) (*Space, error) {
	if alphabet.Size() == 0 {
		return nil, fmt.Errorf("alphabet must not be empty")
	}
	if minLength < 1 {
		return nil, fmt.Errorf("minimum length must be at least 1, got %d", minLength)
	}
	if maxLength < minLength {
		return nil, fmt.Errorf("maximum length %d is below minimum length %d", maxLength, minLength)
	}
	return &Space{alphabet: alphabet, minLength: minLength, maxLength: maxLength}, nil
}

// Alphabet returns the space's alphabet.
func (s *Space) Alphabet() Alphabet { return s.alphabet }

// MinLength returns the smallest candidate length.
func (s *Space) MinLength() int { return s.minLength }

// MaxLength returns the largest candidate length.
func (s *Space) MaxLength() int { return s.maxLength }

// Start returns the position of the very first candidate.
func (s *Space) Start() Position {
	return Position{Length: s.minLength, Offset: 0}
}

// Count returns the number of candidates of the given length. exact is false
// when the count overflows uint64; enumeration still works, only the total is
// unrepresentable.
func (s *Space) Count(length int) (count uint64, exact bool) {
	return pow(uint64(s.alphabet.Size()), length)
}

// Total returns the number of candidates across all lengths in the range.
// exact is false on overflow.
func (s *Space) Total() (total uint64, exact bool) {
	for length := s.minLength; length <= s.maxLength; length++ {
		c, ok := s.Count(length)
		if !ok || total > math.MaxUint64-c {
			return 0, false
		}
		total += c
	}
	return total, true
}

// CandidateAt materializes the candidate of the given length and ordinal
// without enumerating its predecessors. The ordinal is decomposed in base
// alphabet-size, leftmost character most significant.
func (s *Space) CandidateAt(length int, ordinal uint64) (Candidate, error) {
	if length < 1 {
		return Candidate{}, fmt.Errorf("length must be at least 1, got %d", length)
	}
	if count, exact := s.Count(length); exact && ordinal >= count {
		return Candidate{}, fmt.Errorf("ordinal %d out of range for length %d (count %d)", ordinal, length, count)
	}
	digits := make([]int, length)
	rest := ordinal
	base := uint64(s.alphabet.Size())
	for i := length - 1; i >= 0; i-- {
		digits[i] = int(rest % base)
		rest /= base
	}
	return Candidate{
		Value:   s.value(digits),
		Length:  length,
		Ordinal: ordinal,
	}, nil
}

// value renders odometer digits as a candidate string.
func (s *Space) value(digits []int) string {
	out := make([]rune, len(digits))
	for i, d := range digits {
		out[i] = s.alphabet.runes[d]
	}
	return string(out)
}

// pow computes base^exp, reporting overflow instead of wrapping.
func pow(base uint64, exp int) (uint64, bool) {
	result := uint64(1)
	for i := 0; i < exp; i++ {
		if base != 0 && result > math.MaxUint64/base {
			return 0, false
		}
		result *= base
	}
	return result, true
}
