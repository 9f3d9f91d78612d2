package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	depositmock "github.com/riskibarqy/contested-territory/internal/mocks/domain/deposit"
	hillmock "github.com/riskibarqy/contested-territory/internal/mocks/domain/hill"
	payoutmock "github.com/riskibarqy/contested-territory/internal/mocks/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	idgen "github.com/riskibarqy/contested-territory/internal/platform/id"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var mockHillConfig = hill.Config{
	ObjectID:              "hill-1",
	Duration:              100,
	RequiredItemID:        "gold",
	RequiredItemIncrement: 5,
	EpochStart:            1000,
}

func TestHillService_ResolveClaim_PayoutAppendFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	hillRepo := hillmock.NewRepository(t)
	payoutRepo := payoutmock.NewRepository(t)

	held := hill.Status{ObjectID: "hill-1", EpochStart: 1000, Holder: "alice", ClaimStartTime: 1000, PotTotal: 5}
	key := contest.RecordKey{ObjectID: "hill-1", Epoch: 1000}

	hillRepo.On("GetConfig", mock.Anything, contest.ObjectID("hill-1")).Return(mockHillConfig, true, nil).Once()
	hillRepo.On("GetStatus", mock.Anything, key).Return(held, true, nil).Once()
	hillRepo.
		On("SaveStatus", mock.Anything, mock.MatchedBy(func(s hill.Status) bool { return s.Claimed && s.Holder == "alice" })).
		Return(nil).
		Once()
	payoutRepo.
		On("Append", mock.Anything, mock.MatchedBy(func(i payout.Intent) bool {
			return i.ID == "payout-1" && i.Recipient == "alice" && i.Amount == 5 && !i.CreatedAt.IsZero()
		})).
		Return(errors.New("outbox down")).
		Once()

	payouts := NewPayoutService(payoutRepo, &idgen.Sequence{Prefix: "payout"}, logging.NewNop())
	service := NewHillService(hillRepo, payouts, deposit.ExactGate{}, clock.NewManual(1100), logging.NewNop())

	_, err := service.ResolveClaim(ctx, HillResolveInput{ObjectID: "hill-1", Actor: "bob"})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestHillService_AttemptClaim_GateErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	hillRepo := hillmock.NewRepository(t)
	gate := depositmock.NewGate(t)

	hillRepo.On("GetConfig", mock.Anything, contest.ObjectID("hill-1")).Return(mockHillConfig, true, nil).Once()
	hillRepo.
		On("GetStatus", mock.Anything, contest.RecordKey{ObjectID: "hill-1", Epoch: 1000}).
		Return(hill.Status{}, false, nil).
		Once()
	gate.
		On("Verify", mock.MatchedBy(func(v context.Context) bool { return v != nil }), deposit.Proof{ID: "p-1", ItemID: "gold", Quantity: 5}, contest.ItemID("gold"), uint64(5)).
		Return(false, errors.New("ledger timeout")).
		Once()

	payouts := NewPayoutService(payoutmock.NewRepository(t), nil, nil)
	service := NewHillService(hillRepo, payouts, gate, clock.NewManual(1000), logging.NewNop())

	_, err := service.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: "alice", Deposit: goldDeposit("p-1")})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	hillRepo.AssertNotCalled(t, "SaveStatus", mock.Anything, mock.Anything)
}

func TestHillService_AttemptClaim_SealedRecordUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	hillRepo := hillmock.NewRepository(t)

	hillRepo.On("GetConfig", mock.Anything, contest.ObjectID("hill-1")).Return(mockHillConfig, true, nil).Once()
	hillRepo.
		On("GetStatus", mock.Anything, contest.RecordKey{ObjectID: "hill-1", Epoch: 1000}).
		Return(hill.Status{ObjectID: "hill-1", EpochStart: 1000}, true, nil).
		Once()
	hillRepo.
		On("SaveStatus", mock.Anything, mock.AnythingOfType("hill.Status")).
		Return(contest.ErrAlreadyClaimed).
		Once()

	payouts := NewPayoutService(payoutmock.NewRepository(t), nil, nil)
	service := NewHillService(hillRepo, payouts, deposit.ExactGate{}, clock.NewManual(1000), logging.NewNop())

	_, err := service.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: "alice", Deposit: goldDeposit("p-1")})
	if !errors.Is(err, contest.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed from the store, got %v", err)
	}
}
