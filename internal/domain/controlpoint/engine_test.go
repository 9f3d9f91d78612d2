package controlpoint

import (
	"errors"
	"testing"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

type change struct {
	team Team
	at   accrual.Timestamp
}

func TestOnControlChangePartition(t *testing.T) {
	status := Open("cp-1", 0, 100)
	changes := []change{
		{team: TeamA, at: 120},
		{team: TeamA, at: 150},
		{team: TeamB, at: 150},
		{team: TeamNone, at: 300},
		{team: TeamB, at: 420},
		{team: TeamA, at: 1000},
	}

	for _, c := range changes {
		next, err := OnControlChange(status, c.team, c.at)
		if err != nil {
			t.Fatalf("change to %s at %d: %v", c.team, c.at, err)
		}
		status = next

		covered, err := status.Covered()
		if err != nil {
			t.Fatalf("covered: %v", err)
		}
		if want := accrual.Duration(status.LastChangeTime - status.MatchStartTime); covered != want {
			t.Fatalf("partition broken at %d: covered=%d want=%d status=%+v", c.at, covered, want, status)
		}
	}

	if status.TeamATime != 30 || status.TeamBTime != 730 || status.NeutralTime != 140 {
		t.Fatalf("unexpected totals: %+v", status)
	}
	if status.ControllingTeam != TeamA {
		t.Fatalf("expected controller A, got %s", status.ControllingTeam)
	}
}

func TestOnControlChangeStale(t *testing.T) {
	status, err := OnControlChange(Open("cp-1", 0, 0), TeamA, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := OnControlChange(status, TeamB, 49)
	if !errors.Is(err, contest.ErrStaleEvent) {
		t.Fatalf("expected stale event, got %v", err)
	}
	if got != status {
		t.Fatalf("status changed on stale event: %+v", got)
	}

	before, err := Snapshot(status, 80)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if before.TeamATime != 30 {
		t.Fatalf("expected 30 seconds for A, got %+v", before)
	}
}

func TestOnControlChangeUnknownTeam(t *testing.T) {
	status := Open("cp-1", 0, 0)
	if _, err := OnControlChange(status, Team("c"), 10); !errors.Is(err, contest.ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
}

func TestSnapshotMonotonic(t *testing.T) {
	status, err := OnControlChange(Open("cp-1", 0, 0), TeamB, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var prev Totals
	for _, now := range []accrual.Timestamp{10, 11, 50, 50, 999} {
		totals, err := Snapshot(status, now)
		if err != nil {
			t.Fatalf("snapshot at %d: %v", now, err)
		}
		if totals.TeamATime < prev.TeamATime || totals.TeamBTime < prev.TeamBTime || totals.NeutralTime < prev.NeutralTime {
			t.Fatalf("snapshot went backwards: prev=%+v next=%+v", prev, totals)
		}
		prev = totals
	}

	if prev.TeamBTime != 989 || prev.NeutralTime != 10 {
		t.Fatalf("unexpected final totals: %+v", prev)
	}
	if _, err := Snapshot(status, 9); !errors.Is(err, contest.ErrStaleEvent) {
		t.Fatalf("expected stale snapshot error, got %v", err)
	}
}

func TestAccrueOverflow(t *testing.T) {
	status := Status{
		ObjectID:        "cp-1",
		ControllingTeam: TeamA,
		TeamATime:       accrual.Duration(^uint64(0)),
	}
	if _, err := OnControlChange(status, TeamB, 1); !errors.Is(err, contest.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}
