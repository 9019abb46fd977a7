package reference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// ErrSequenceExhausted is returned when a finite sequence ends before a
// free name was found.
var ErrSequenceExhausted = errors.New("no unique name available in sequence")

const (
	// DefaultReservationTTL is how long a generated reference stays reserved.
	DefaultReservationTTL = time.Hour

	// DefaultReservationCapacity bounds the reservation cache.
	DefaultReservationCapacity = 1000
)

// Checker reports whether a reference is already stored.
type Checker interface {
	Exists(ctx context.Context, ref metadata.Reference) (bool, error)
}

// CandidateOutcome classifies one examined candidate.
type CandidateOutcome string

const (
	// CandidateAccepted: the candidate was free and has been reserved
	CandidateAccepted CandidateOutcome = "accepted"

	// CandidateReserved: a recent Generate call already handed it out
	CandidateReserved CandidateOutcome = "reserved"

	// CandidateExists: the store already holds the reference
	CandidateExists CandidateOutcome = "exists"
)

// GeneratorMetrics provides observability for name generation.
//
// This is optional - if not provided, metrics collection is skipped.
// pkg/metrics provides the Prometheus implementation.
type GeneratorMetrics interface {
	RecordCandidate(outcome CandidateOutcome)
	SetReservations(count int)
}

type noopMetrics struct{}

func (noopMetrics) RecordCandidate(outcome CandidateOutcome) {}
func (noopMetrics) SetReservations(count int)                {}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	// ReservationTTL is how long a returned reference stays reserved
	// (default: 1h)
	ReservationTTL time.Duration

	// ReservationCapacity is the maximum number of reservations kept; the
	// least recently used one is evicted first (default: 1000)
	ReservationCapacity int

	// Metrics is an optional metrics collector (nil for no-op)
	Metrics GeneratorMetrics
}

// Generator hands out references that are free in the store and not handed
// out recently.
//
// Reservations:
// A returned reference is only persisted later by the caller. Until then
// the reservation cache keeps other callers from picking it. Reservations
// expire after ReservationTTL and are bounded by ReservationCapacity.
//
// Thread Safety:
// Generate calls are serialized on a single mutex: the reservation check,
// the store lookup and the reservation itself form one critical section.
type Generator struct {
	mu       sync.Mutex
	checker  Checker
	reserved *expirable.LRU[metadata.Reference, struct{}]
	metrics  GeneratorMetrics
}

// NewGenerator creates a generator checking existence through checker.
func NewGenerator(checker Checker, config GeneratorConfig) *Generator {
	if config.ReservationTTL <= 0 {
		config.ReservationTTL = DefaultReservationTTL
	}
	if config.ReservationCapacity <= 0 {
		config.ReservationCapacity = DefaultReservationCapacity
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}

	return &Generator{
		checker:  checker,
		reserved: expirable.NewLRU[metadata.Reference, struct{}](config.ReservationCapacity, nil, config.ReservationTTL),
		metrics:  config.Metrics,
	}
}

// Generate returns the first candidate of seq, in drive, that is neither
// reserved nor stored, and reserves it.
//
// Returns:
//   - metadata.Reference: the reserved reference
//   - error: ErrSequenceExhausted if seq ended, the checker's error, or the
//     context error
func (g *Generator) Generate(ctx context.Context, drive string, seq Sequence) (metadata.Reference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return metadata.Reference{}, err
		}

		name, ok := seq.Next()
		if !ok {
			return metadata.Reference{}, ErrSequenceExhausted
		}

		candidate := metadata.NewReference(drive, name)
		if _, reserved := g.reserved.Peek(candidate); reserved {
			g.metrics.RecordCandidate(CandidateReserved)
			continue
		}

		exists, err := g.checker.Exists(ctx, candidate)
		if err != nil {
			return metadata.Reference{}, fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if exists {
			g.metrics.RecordCandidate(CandidateExists)
			continue
		}

		g.reserved.Add(candidate, struct{}{})
		g.metrics.RecordCandidate(CandidateAccepted)
		g.metrics.SetReservations(g.reserved.Len())

		logger.Debug("Generated unique reference %s", candidate)
		return candidate, nil
	}
}

// Unique returns ref itself when it is free, otherwise the first free
// variant of its name in the same drive.
func (g *Generator) Unique(ctx context.Context, ref metadata.Reference) (metadata.Reference, error) {
	return g.Generate(ctx, ref.Drive, NewNameSequence(ref.Name))
}

// Release drops the reservation of ref, typically once it is persisted or
// when the caller gave up on it.
func (g *Generator) Release(ref metadata.Reference) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reserved.Remove(ref)
	g.metrics.SetReservations(g.reserved.Len())
}
