package lobby

import (
	"fmt"
	"slices"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Config describes one area-control match. ControlPointIDs is ordered and
// unique; every id names a control point owned by this lobby.
type Config struct {
	ObjectID                 contest.ObjectID
	Duration                 accrual.Duration
	RequiredPlayerCount      uint64
	RequiredItemID           contest.ItemID
	RequiredItemQuantity     uint64
	RequiredControlDepositID contest.ItemID
	EpochStart               contest.Epoch
	ControlPointIDs          []contest.ObjectID
}

func (c Config) Validate() error {
	if err := c.ObjectID.Validate(); err != nil {
		return err
	}
	if err := c.RequiredItemID.Validate(); err != nil {
		return err
	}
	if err := c.RequiredControlDepositID.Validate(); err != nil {
		return fmt.Errorf("control deposit: %w", err)
	}
	if c.Duration == 0 {
		return fmt.Errorf("%w: lobby duration must be greater than zero", contest.ErrInvalidRecord)
	}
	if c.RequiredPlayerCount < 2 {
		return fmt.Errorf("%w: lobby needs at least two players", contest.ErrInvalidRecord)
	}
	if len(c.ControlPointIDs) == 0 {
		return fmt.Errorf("%w: lobby needs at least one control point", contest.ErrInvalidRecord)
	}

	seen := make(map[contest.ObjectID]struct{}, len(c.ControlPointIDs))
	for _, pointID := range c.ControlPointIDs {
		if err := pointID.Validate(); err != nil {
			return fmt.Errorf("control point: %w", err)
		}
		if pointID == c.ObjectID {
			return fmt.Errorf("%w: lobby %s cannot own itself as a control point", contest.ErrInvalidRecord, c.ObjectID)
		}
		if _, ok := seen[pointID]; ok {
			return fmt.Errorf("%w: duplicate control point %s", contest.ErrInvalidRecord, pointID)
		}
		seen[pointID] = struct{}{}
	}

	return nil
}

// OwnsPoint reports whether pointID is one of the lobby's control points.
func (c Config) OwnsPoint(pointID contest.ObjectID) bool {
	return slices.Contains(c.ControlPointIDs, pointID)
}

// MatchEnd returns start + Duration.
func (c Config) MatchEnd(start accrual.Timestamp) (accrual.Timestamp, error) {
	return accrual.Deadline(start, c.Duration)
}

type Phase string

const (
	PhaseForming Phase = "forming"
	PhaseActive  Phase = "active"
	PhaseClosed  Phase = "closed"
)

type Outcome string

const (
	OutcomePending  Outcome = ""
	OutcomeTeamA    Outcome = "team_a"
	OutcomeTeamB    Outcome = "team_b"
	OutcomeNoWinner Outcome = "no_winner"
)

// Status is the live record of one lobby epoch.
type Status struct {
	ObjectID       contest.ObjectID
	EpochStart     contest.Epoch
	Phase          Phase
	MatchStartTime accrual.Timestamp
	TeamATotalTime accrual.Duration
	TeamBTotalTime accrual.Duration
	Claimed        bool
	ClaimedBy      contest.PlayerID
	IsActive       bool
	TeamAPlayers   []contest.PlayerID
	TeamBPlayers   []contest.PlayerID
	PotTotal       uint64
	Outcome        Outcome
	ClosedAt       accrual.Timestamp
	Version        uint64
}

func (s Status) Key() contest.RecordKey {
	return contest.RecordKey{ObjectID: s.ObjectID, Epoch: s.EpochStart}
}

// Clone returns a copy that shares no slices with s.
func (s Status) Clone() Status {
	out := s
	out.TeamAPlayers = slices.Clone(s.TeamAPlayers)
	out.TeamBPlayers = slices.Clone(s.TeamBPlayers)
	return out
}

// Winners returns the player set of the winning team, or nil when there is none.
func (s Status) Winners() []contest.PlayerID {
	switch s.Outcome {
	case OutcomeTeamA:
		return s.TeamAPlayers
	case OutcomeTeamB:
		return s.TeamBPlayers
	default:
		return nil
	}
}
