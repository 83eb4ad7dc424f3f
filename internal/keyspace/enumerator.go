package keyspace

import "fmt"

// Enumerator walks a Space from a starting position, producing candidates in
// enumeration order. It carries an odometer over alphabet indices so skipped
// candidates are never materialized.
type Enumerator struct {
	space     *Space
	length    int
	next      uint64
	digits    []int
	exhausted bool
}

// NewEnumerator returns an enumerator positioned at from. A position whose
// offset already covers its whole length resumes at the next length; a length
// beyond the space's maximum yields an immediately exhausted enumerator.
func NewEnumerator(space *Space, from Position) (*Enumerator, error) {
	if from.Length < 1 {
		return nil, fmt.Errorf("position length must be at least 1, got %d", from.Length)
	}
	e := &Enumerator{space: space, length: from.Length, next: from.Offset}
	e.seek()
	return e, nil
}

// NextBatch returns up to limit candidates, never spanning a length boundary.
// An empty batch means the space is exhausted.
func (e *Enumerator) NextBatch(limit int) []Candidate {
	if e.exhausted || limit <= 0 {
		return nil
	}
	capacity := limit
	if count, exact := e.space.Count(e.length); exact {
		if remaining := count - e.next; remaining < uint64(limit) {
			capacity = int(remaining)
		}
	}
	batch := make([]Candidate, 0, capacity)
	for len(batch) < limit {
		batch = append(batch, Candidate{
			Value:   e.space.value(e.digits),
			Length:  e.length,
			Ordinal: e.next,
		})
		e.next++
		if !e.increment() {
			e.length++
			e.next = 0
			e.seek()
			break
		}
	}
	return batch
}

// seek positions the odometer at (length, next), skipping lengths whose
// candidates are already fully covered by the offset.
func (e *Enumerator) seek() {
	for {
		if e.length > e.space.maxLength {
			e.exhausted = true
			return
		}
		count, exact := e.space.Count(e.length)
		if exact && e.next >= count {
			e.length++
			e.next = 0
			continue
		}
		e.digits = make([]int, e.length)
		rest := e.next
		base := uint64(e.space.alphabet.Size())
		for i := e.length - 1; i >= 0; i-- {
			e.digits[i] = int(rest % base)
			rest /= base
		}
		return
	}
}

// increment advances the odometer by one. It reports false when the odometer
// wraps, meaning the current length is complete.
func (e *Enumerator) increment() bool {
	for i := len(e.digits) - 1; i >= 0; i-- {
		e.digits[i]++
		if e.digits[i] < e.space.alphabet.Size() {
			return true
		}
		e.digits[i] = 0
	}
	return false
}
