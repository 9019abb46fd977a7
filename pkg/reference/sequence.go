// Package reference generates unique entity references.
//
// A Generator walks a Sequence of candidate names and returns the first one
// that is neither reserved by a concurrent caller nor already stored. The
// default NameSequence derives candidates from a base name:
//
//	foo, foo1, ..., foo99, 5 x foo<100..100099>, foo<uuid>, foo<uuid>, ...
package reference

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Sequence yields candidate names. Next returns false once the sequence is
// exhausted; infinite sequences never return false.
type Sequence interface {
	Next() (string, bool)
}

const (
	// consecutiveCandidates is the number of candidates (base included)
	// built with a decimal counter.
	consecutiveCandidates = 100

	// randomCandidates is the number of candidates built with a random
	// number once the counter is exhausted.
	randomCandidates = 5

	randomMin   = 100
	randomRange = 100000
)

// NameSequence is the infinite candidate sequence derived from a base name.
//
// Candidates in order:
//  1. the base name itself
//  2. base + 1 .. base + 99
//  3. five times base + a random integer in [100, 100100)
//  4. base + a random UUID, forever
//
// A NameSequence is not safe for concurrent use.
type NameSequence struct {
	base        string
	consecutive int
	random      int
}

// NewNameSequence returns the sequence for base.
func NewNameSequence(base string) *NameSequence {
	return &NameSequence{base: base}
}

// Next returns the next candidate. It never reports exhaustion.
func (s *NameSequence) Next() (string, bool) {
	switch {
	case s.consecutive == 0:
		s.consecutive++
		return s.base, true
	case s.consecutive < consecutiveCandidates:
		name := s.base + strconv.Itoa(s.consecutive)
		s.consecutive++
		return name, true
	case s.random < randomCandidates:
		s.random++
		return s.base + strconv.Itoa(randomMin+rand.IntN(randomRange)), true
	default:
		return s.base + uuid.NewString(), true
	}
}

// FixedSequence yields a fixed list of candidates.
type FixedSequence struct {
	names []string
}

// NewFixedSequence returns a finite sequence over names.
func NewFixedSequence(names ...string) *FixedSequence {
	return &FixedSequence{names: names}
}

// Next returns the next name, or false when none is left.
func (s *FixedSequence) Next() (string, bool) {
	if len(s.names) == 0 {
		return "", false
	}
	name := s.names[0]
	s.names = s.names[1:]
	return name, true
}
