// Package accrual holds the fixed-width time arithmetic shared by every engine.
//
// Timestamps and durations are whole seconds stored in uint64. Every operation
// that could wrap or run backwards reports an error instead of clamping, so a
// replayed event stream always lands on the same totals.
package accrual

import (
	"errors"
	"fmt"
	"math/bits"
)

// Timestamp is a unix time in seconds.
type Timestamp uint64

// Duration is a span of seconds.
type Duration uint64

var (
	// ErrBackwards is returned when an interval ends before it starts.
	ErrBackwards = errors.New("stale event")
	// ErrWrap is returned when a result does not fit in 64 bits.
	ErrWrap = errors.New("arithmetic overflow")
)

// Elapsed returns to - from.
func Elapsed(from, to Timestamp) (Duration, error) {
	if to < from {
		return 0, fmt.Errorf("%w: %d precedes %d", ErrBackwards, to, from)
	}
	return Duration(to - from), nil
}

// Add returns a + b.
func Add(a, b Duration) (Duration, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrWrap, a, b)
	}
	return Duration(sum), nil
}

// AddUint is Add for plain quantities such as pot totals.
func AddUint(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrWrap, a, b)
	}
	return sum, nil
}

// MulUint returns a * b.
func MulUint(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrWrap, a, b)
	}
	return lo, nil
}

// Deadline returns start + d.
func Deadline(start Timestamp, d Duration) (Timestamp, error) {
	sum, carry := bits.Add64(uint64(start), uint64(d), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrWrap, start, d)
	}
	return Timestamp(sum), nil
}

// Expired reports whether at least d has passed between start and now.
// A now before start is never expired.
func Expired(start, now Timestamp, d Duration) bool {
	if now < start {
		return false
	}
	return Duration(now-start) >= d
}

// Min returns the earlier timestamp.
func Min(a, b Timestamp) Timestamp {
	if a < b {
		return a
	}
	return b
}
