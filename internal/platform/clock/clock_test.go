package clock

import (
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
)

func TestSystemNeverGoesBackwards(t *testing.T) {
	readings := []time.Time{
		time.Unix(1_000, 0),
		time.Unix(1_005, 900),
		time.Unix(990, 0),
		time.Unix(1_010, 0),
	}
	idx := 0
	c := &System{now: func() time.Time {
		v := readings[idx]
		idx++
		return v
	}}

	want := []accrual.Timestamp{1_000, 1_005, 1_005, 1_010}
	for i, w := range want {
		if got := c.Now(); got != w {
			t.Fatalf("reading %d: got %d want %d", i, got, w)
		}
	}
}

func TestManual(t *testing.T) {
	c := NewManual(100)
	c.Advance(50)
	if got := c.Now(); got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}

	c.Set(120)
	if got := c.Now(); got != 150 {
		t.Fatalf("manual clock moved backwards to %d", got)
	}

	c.Set(400)
	if got := c.Now(); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}
