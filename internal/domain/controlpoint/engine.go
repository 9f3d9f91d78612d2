package controlpoint

import (
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Open starts an uncontrolled point at the match start.
func Open(objectID contest.ObjectID, epochStart contest.Epoch, now accrual.Timestamp) Status {
	return Status{
		ObjectID:        objectID,
		EpochStart:      epochStart,
		MatchStartTime:  now,
		ControllingTeam: TeamNone,
		LastChangeTime:  now,
	}
}

// OnControlChange credits the time since the last change to the current
// controller and hands the point to newTeam. Events older than the last
// change are rejected, never clamped.
func OnControlChange(status Status, newTeam Team, now accrual.Timestamp) (Status, error) {
	if err := newTeam.Validate(); err != nil {
		return status, err
	}

	next, err := accrue(status, now)
	if err != nil {
		return status, err
	}
	next.ControllingTeam = newTeam
	next.LastChangeTime = now
	return next, nil
}

// Snapshot projects the status forward to now without changing it.
func Snapshot(status Status, now accrual.Timestamp) (Totals, error) {
	projected, err := accrue(status, now)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		At:          now,
		Controller:  projected.ControllingTeam,
		TeamATime:   projected.TeamATime,
		TeamBTime:   projected.TeamBTime,
		NeutralTime: projected.NeutralTime,
	}, nil
}

func accrue(status Status, now accrual.Timestamp) (Status, error) {
	elapsed, err := accrual.Elapsed(status.LastChangeTime, now)
	if err != nil {
		return status, fmt.Errorf("control point %s: %w", status.Key(), err)
	}

	next := status
	switch status.ControllingTeam {
	case TeamA:
		next.TeamATime, err = accrual.Add(status.TeamATime, elapsed)
	case TeamB:
		next.TeamBTime, err = accrual.Add(status.TeamBTime, elapsed)
	default:
		next.NeutralTime, err = accrual.Add(status.NeutralTime, elapsed)
	}
	if err != nil {
		return status, fmt.Errorf("control point %s: %w", status.Key(), err)
	}

	return next, nil
}

// Covered returns TeamATime + TeamBTime + NeutralTime.
func (s Status) Covered() (accrual.Duration, error) {
	sum, err := accrual.Add(s.TeamATime, s.TeamBTime)
	if err != nil {
		return 0, err
	}
	return accrual.Add(sum, s.NeutralTime)
}
