package ids

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPatient  Kind = "patient"
	KindProvider Kind = "provider"
	KindBooking  Kind = "booking"
)

func (k Kind) prefix() string {
	switch k {
	case KindPatient:
		return "PAT"
	case KindProvider:
		return "PRV"
	case KindBooking:
		return "BOOK"
	default:
		return "ID"
	}
}

// Generator returns identifiers that are unique per kind for the life of the
// process. Callers must treat them as opaque.
type Generator interface {
	NewID(kind Kind) string
}

// Sequence produces PREFIX_YYYYMMDD_NNNNNN ids from a per-kind counter.
// Ids of one kind sort lexicographically in issue order up to counter
// 999999; past that the counter widens and the ordering no longer holds.
type Sequence struct {
	now func() time.Time

	mu       sync.Mutex
	counters map[Kind]int
}

func NewSequence(now func() time.Time) *Sequence {
	if now == nil {
		now = time.Now
	}
	return &Sequence{now: now, counters: make(map[Kind]int)}
}

func (s *Sequence) NewID(kind Kind) string {
	s.mu.Lock()
	s.counters[kind]++
	n := s.counters[kind]
	s.mu.Unlock()

	return fmt.Sprintf("%s_%s_%06d", kind.prefix(), s.now().Format("20060102"), n)
}

// UUID produces PREFIX_<uuid v4> ids.
type UUID struct{}

func (UUID) NewID(kind Kind) string {
	return kind.prefix() + "_" + uuid.NewString()
}

// New picks a generator by strategy name: "sequence" (default) or "uuid".
func New(strategy string, now func() time.Time) (Generator, error) {
	switch strategy {
	case "", "sequence":
		return NewSequence(now), nil
	case "uuid":
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
