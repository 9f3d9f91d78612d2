package contest

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
)

var (
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrDepositMismatch    = errors.New("deposit mismatch")
	ErrStaleEvent         = accrual.ErrBackwards
	ErrAlreadyClaimed     = errors.New("already claimed")
	ErrNotWinner          = errors.New("not winner")
	ErrOverflow           = accrual.ErrWrap
	ErrInvalidRecord      = errors.New("invalid record")
	ErrConflict           = errors.New("concurrent update")
)

// ErrEpochNotCurrent rejects a status write for an epoch that a newer config
// has replaced.
var ErrEpochNotCurrent = fmt.Errorf("%w: epoch is not current", ErrConflict)

// Precondition refinements. Each one matches ErrPreconditionFailed as well.
var (
	ErrHillOccupied        = fmt.Errorf("%w: hill occupied", ErrPreconditionFailed)
	ErrHillVacant          = fmt.Errorf("%w: hill has no holder", ErrPreconditionFailed)
	ErrNotExpiredYet       = fmt.Errorf("%w: not expired yet", ErrPreconditionFailed)
	ErrAlreadyExpired      = fmt.Errorf("%w: already expired", ErrPreconditionFailed)
	ErrInsufficientPlayers = fmt.Errorf("%w: insufficient players", ErrPreconditionFailed)
	ErrLobbyNotForming     = fmt.Errorf("%w: lobby is not forming", ErrPreconditionFailed)
	ErrLobbyNotActive      = fmt.Errorf("%w: lobby is not active", ErrPreconditionFailed)
	ErrLobbyNotClosed      = fmt.Errorf("%w: lobby is not closed", ErrPreconditionFailed)
	ErrMatchOver           = fmt.Errorf("%w: match window is over", ErrPreconditionFailed)
	ErrUnknownControlPoint = fmt.Errorf("%w: control point does not belong to lobby", ErrPreconditionFailed)
)

// ErrNoWinner is returned to every claimant of a tied match.
var ErrNoWinner = fmt.Errorf("%w: match ended without a winner", ErrNotWinner)
