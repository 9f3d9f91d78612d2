package hill

import (
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Config is the per-object hill configuration. It is replaced wholesale on
// reconfiguration, which also opens a new epoch.
type Config struct {
	ObjectID              contest.ObjectID
	Duration              accrual.Duration
	RequiredItemID        contest.ItemID
	RequiredItemIncrement uint64
	EpochStart            contest.Epoch
}

func (c Config) Validate() error {
	if err := c.ObjectID.Validate(); err != nil {
		return err
	}
	if err := c.RequiredItemID.Validate(); err != nil {
		return err
	}
	if c.Duration == 0 {
		return fmt.Errorf("%w: hill duration must be greater than zero", contest.ErrInvalidRecord)
	}
	if c.RequiredItemIncrement == 0 {
		return fmt.Errorf("%w: hill item increment must be greater than zero", contest.ErrInvalidRecord)
	}

	return nil
}

// Status is the live record of one hill epoch.
type Status struct {
	ObjectID       contest.ObjectID
	EpochStart     contest.Epoch
	Holder         contest.PlayerID
	ClaimStartTime accrual.Timestamp
	LastClaimTime  accrual.Timestamp
	PotTotal       uint64
	Claimed        bool
	// Version counts stored writes of this record. A save must carry the
	// version it read; the repository stores Version+1.
	Version uint64
}

func (s Status) Key() contest.RecordKey {
	return contest.RecordKey{ObjectID: s.ObjectID, Epoch: s.EpochStart}
}

type State string

const (
	StateVacant    State = "vacant"
	StateHeld      State = "held"
	StateClaimable State = "claimable"
	StateClaimed   State = "claimed"
)

// StateAt derives the public state of the hill at now.
func (s Status) StateAt(cfg Config, now accrual.Timestamp) State {
	switch {
	case s.Claimed:
		return StateClaimed
	case s.Holder == "":
		return StateVacant
	case accrual.Expired(s.ClaimStartTime, now, cfg.Duration):
		return StateClaimable
	default:
		return StateHeld
	}
}
