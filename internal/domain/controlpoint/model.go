package controlpoint

import (
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

type Team string

const (
	TeamNone Team = "none"
	TeamA    Team = "a"
	TeamB    Team = "b"
)

func (t Team) Validate() error {
	switch t {
	case TeamNone, TeamA, TeamB:
		return nil
	default:
		return fmt.Errorf("%w: unknown team %q", contest.ErrInvalidRecord, string(t))
	}
}

// Status is the accrual record of one control point within one lobby epoch.
// Time with no controller accrues to NeutralTime so that the three buckets
// always cover LastChangeTime - MatchStartTime exactly.
type Status struct {
	ObjectID        contest.ObjectID
	EpochStart      contest.Epoch
	MatchStartTime  accrual.Timestamp
	ControllingTeam Team
	LastChangeTime  accrual.Timestamp
	TeamATime       accrual.Duration
	TeamBTime       accrual.Duration
	NeutralTime     accrual.Duration
	Version         uint64
}

func (s Status) Key() contest.RecordKey {
	return contest.RecordKey{ObjectID: s.ObjectID, Epoch: s.EpochStart}
}

// Totals is a point-in-time projection of a status.
type Totals struct {
	At          accrual.Timestamp
	Controller  Team
	TeamATime   accrual.Duration
	TeamBTime   accrual.Duration
	NeutralTime accrual.Duration
}
