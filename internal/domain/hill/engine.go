package hill

import (
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

// Reset opens a vacant status for a new epoch.
func Reset(objectID contest.ObjectID, epochStart contest.Epoch) Status {
	return Status{
		ObjectID:   objectID,
		EpochStart: epochStart,
	}
}

// AttemptClaim takes a vacant hill for actor. The input status is never
// modified; on failure the caller keeps the old value.
//
// A held hill whose duration has elapsed fails with ErrAlreadyExpired so the
// caller can settle it through ResolveClaim instead.
func AttemptClaim(cfg Config, status Status, actor contest.PlayerID, receipt deposit.Receipt, now accrual.Timestamp) (Status, error) {
	if err := actor.Validate(); err != nil {
		return status, err
	}
	if status.Claimed {
		return status, fmt.Errorf("%w: hill %s", contest.ErrAlreadyClaimed, status.Key())
	}
	if now < cfg.EpochStart {
		return status, fmt.Errorf("%w: claim at %d before epoch %d", contest.ErrStaleEvent, now, cfg.EpochStart)
	}
	if !receipt.Satisfies(cfg.RequiredItemID, cfg.RequiredItemIncrement) {
		return status, fmt.Errorf("%w: hill requires %d of %s", contest.ErrDepositMismatch, cfg.RequiredItemIncrement, cfg.RequiredItemID)
	}

	if status.Holder != "" {
		if now < status.ClaimStartTime {
			return status, fmt.Errorf("%w: claim at %d before holder start %d", contest.ErrStaleEvent, now, status.ClaimStartTime)
		}
		if accrual.Expired(status.ClaimStartTime, now, cfg.Duration) {
			return status, fmt.Errorf("%w: held by %s since %d", contest.ErrAlreadyExpired, status.Holder, status.ClaimStartTime)
		}
		return status, fmt.Errorf("%w: held by %s since %d", contest.ErrHillOccupied, status.Holder, status.ClaimStartTime)
	}

	pot, err := accrual.AddUint(status.PotTotal, cfg.RequiredItemIncrement)
	if err != nil {
		return status, fmt.Errorf("add hill pot: %w", err)
	}

	next := status
	next.Holder = actor
	next.ClaimStartTime = now
	next.PotTotal = pot
	return next, nil
}

// ResolveClaim settles an expired hill and pays the pot to the holder. Any
// actor may trigger it; the payout always goes to the holder.
func ResolveClaim(cfg Config, status Status, actor contest.PlayerID, now accrual.Timestamp) (Status, payout.Intent, error) {
	if err := actor.Validate(); err != nil {
		return status, payout.Intent{}, err
	}
	if status.Claimed {
		return status, payout.Intent{}, fmt.Errorf("%w: hill %s", contest.ErrAlreadyClaimed, status.Key())
	}
	if status.Holder == "" {
		return status, payout.Intent{}, fmt.Errorf("%w: hill %s", contest.ErrHillVacant, status.Key())
	}

	held, err := accrual.Elapsed(status.ClaimStartTime, now)
	if err != nil {
		return status, payout.Intent{}, fmt.Errorf("resolve hill %s: %w", status.Key(), err)
	}
	if held < cfg.Duration {
		return status, payout.Intent{}, fmt.Errorf("%w: held %d of %d", contest.ErrNotExpiredYet, held, cfg.Duration)
	}

	next := status
	next.Claimed = true
	next.LastClaimTime = now

	return next, payout.Intent{
		Source:      payout.SourceHill,
		ObjectID:    status.ObjectID,
		Epoch:       status.EpochStart,
		Recipient:   status.Holder,
		TriggeredBy: actor,
		ItemID:      cfg.RequiredItemID,
		Amount:      status.PotTotal,
	}, nil
}
