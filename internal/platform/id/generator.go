package id

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 strings so payout ids sort by creation.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Sequence returns prefix-1, prefix-2, ... and is meant for replays and tests.
type Sequence struct {
	Prefix string
	next   atomic.Uint64
}

func (s *Sequence) NewID() (string, error) {
	return fmt.Sprintf("%s-%d", s.Prefix, s.next.Add(1)), nil
}
