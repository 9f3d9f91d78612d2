package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/platform/resilience"
)

type ConfigureHillInput struct {
	ObjectID              string
	Duration              uint64
	RequiredItemID        string
	RequiredItemIncrement uint64
	// EpochStart defaults to the current clock reading when zero.
	EpochStart uint64
}

type HillClaimInput struct {
	ObjectID string
	Actor    string
	Deposit  DepositInput
}

type HillResolveInput struct {
	ObjectID string
	Actor    string
}

// HillResult is the outcome of a hill transition. Payout is set only when the
// transition settled the hill.
type HillResult struct {
	Config hill.Config
	Status hill.Status
	State  hill.State
	Payout *payout.Intent
}

type HillView struct {
	Config hill.Config
	Status hill.Status
	State  hill.State
	Now    accrual.Timestamp
	// ExpiresAt is zero while the hill is vacant.
	ExpiresAt accrual.Timestamp
}

type HillService struct {
	repo    hill.Repository
	payouts *PayoutService
	gate    deposit.Gate
	clock   clock.Clock
	locks   *resilience.KeyedMutex
	logger  *logging.Logger
}

func NewHillService(
	repo hill.Repository,
	payouts *PayoutService,
	gate deposit.Gate,
	clk clock.Clock,
	logger *logging.Logger,
) *HillService {
	if logger == nil {
		logger = logging.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}

	return &HillService{
		repo:    repo,
		payouts: payouts,
		gate:    gate,
		clock:   clk,
		locks:   &resilience.KeyedMutex{},
		logger:  logger,
	}
}

// ConfigureHill replaces the hill config and opens a fresh epoch. The new
// epoch must be strictly after the current one.
func (s *HillService) ConfigureHill(ctx context.Context, input ConfigureHillInput) (hill.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HillService.ConfigureHill", attrObjectID.String(input.ObjectID))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return hill.Config{}, err
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	epoch := accrual.Timestamp(input.EpochStart)
	if epoch == 0 {
		epoch = s.clock.Now()
	}
	cfg := hill.Config{
		ObjectID:              objectID,
		Duration:              accrual.Duration(input.Duration),
		RequiredItemID:        contest.ItemID(strings.TrimSpace(input.RequiredItemID)),
		RequiredItemIncrement: input.RequiredItemIncrement,
		EpochStart:            epoch,
	}
	if err := cfg.Validate(); err != nil {
		return hill.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	current, exists, err := s.repo.GetConfig(ctx, objectID)
	if err != nil {
		return hill.Config{}, fmt.Errorf("get hill config: %w", err)
	}
	if exists && cfg.EpochStart <= current.EpochStart {
		return hill.Config{}, fmt.Errorf("%w: epoch %d does not follow %d", contest.ErrStaleEvent, cfg.EpochStart, current.EpochStart)
	}

	// The config goes first: once it lands, the store refuses writes to the
	// epoch it replaced.
	if err := s.repo.UpsertConfig(ctx, cfg); err != nil {
		return hill.Config{}, fmt.Errorf("upsert hill config: %w", err)
	}
	if err := s.repo.SaveStatus(ctx, hill.Reset(objectID, cfg.EpochStart)); err != nil {
		return hill.Config{}, fmt.Errorf("open hill epoch: %w", err)
	}

	s.logger.InfoContext(ctx, "hill configured",
		"object_id", string(objectID),
		"epoch_start", uint64(cfg.EpochStart),
		"duration", uint64(cfg.Duration),
		"required_item_id", string(cfg.RequiredItemID),
		"required_item_increment", cfg.RequiredItemIncrement,
	)
	return cfg, nil
}

// AttemptClaim takes a vacant hill. When the current holder has already
// outlasted the duration the hill is settled to that holder instead, and the
// returned error still reports contest.ErrAlreadyExpired to the caller.
func (s *HillService) AttemptClaim(ctx context.Context, input HillClaimInput) (HillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HillService.AttemptClaim", attrObjectID.String(input.ObjectID), attrActor.String(input.Actor))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return HillResult{}, err
	}
	actor, err := cleanPlayerID(input.Actor)
	if err != nil {
		return HillResult{}, err
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	cfg, status, err := s.load(ctx, objectID)
	if err != nil {
		return HillResult{}, err
	}

	receipt, err := checkDeposit(ctx, s.gate, input.Deposit, cfg.RequiredItemID, cfg.RequiredItemIncrement)
	if err != nil {
		return HillResult{}, err
	}

	now := s.clock.Now()
	next, err := hill.AttemptClaim(cfg, status, actor, receipt, now)
	if errors.Is(err, contest.ErrAlreadyExpired) {
		settled, settleErr := s.resolve(ctx, cfg, status, actor, now)
		if settleErr != nil {
			return HillResult{}, settleErr
		}
		return settled, err
	}
	if err != nil {
		return HillResult{}, err
	}

	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return HillResult{}, fmt.Errorf("save hill status: %w", err)
	}
	next.Version++

	s.logger.InfoContext(ctx, "hill claimed",
		"object_id", string(objectID),
		"epoch_start", uint64(next.EpochStart),
		"holder", string(next.Holder),
		"claim_start_time", uint64(next.ClaimStartTime),
		"pot_total", next.PotTotal,
		"deposit_proof_id", receipt.Proof.ID,
	)
	return HillResult{Config: cfg, Status: next, State: next.StateAt(cfg, now)}, nil
}

// ResolveClaim settles an expired hill. Anyone may trigger it; the pot always
// goes to the holder.
func (s *HillService) ResolveClaim(ctx context.Context, input HillResolveInput) (HillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HillService.ResolveClaim", attrObjectID.String(input.ObjectID), attrActor.String(input.Actor))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return HillResult{}, err
	}
	actor, err := cleanPlayerID(input.Actor)
	if err != nil {
		return HillResult{}, err
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	cfg, status, err := s.load(ctx, objectID)
	if err != nil {
		return HillResult{}, err
	}

	return s.resolve(ctx, cfg, status, actor, s.clock.Now())
}

func (s *HillService) resolve(ctx context.Context, cfg hill.Config, status hill.Status, actor contest.PlayerID, now accrual.Timestamp) (HillResult, error) {
	next, intent, err := hill.ResolveClaim(cfg, status, actor, now)
	if err != nil {
		return HillResult{}, err
	}

	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return HillResult{}, fmt.Errorf("save hill status: %w", err)
	}
	next.Version++

	s.logger.InfoContext(ctx, "hill resolved",
		"object_id", string(next.ObjectID),
		"epoch_start", uint64(next.EpochStart),
		"holder", string(next.Holder),
		"triggered_by", string(actor),
		"pot_total", next.PotTotal,
	)

	recorded, err := s.payouts.record(ctx, intent)
	if err != nil {
		return HillResult{}, err
	}
	return HillResult{Config: cfg, Status: next, State: next.StateAt(cfg, now), Payout: &recorded}, nil
}

func (s *HillService) GetStatus(ctx context.Context, objectID string) (HillView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HillService.GetStatus", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return HillView{}, err
	}

	cfg, status, err := s.load(ctx, id)
	if err != nil {
		return HillView{}, err
	}

	now := s.clock.Now()
	view := HillView{
		Config: cfg,
		Status: status,
		State:  status.StateAt(cfg, now),
		Now:    now,
	}
	if status.Holder != "" {
		if view.ExpiresAt, err = accrual.Deadline(status.ClaimStartTime, cfg.Duration); err != nil {
			return HillView{}, fmt.Errorf("hill deadline: %w", err)
		}
	}
	return view, nil
}

// ListHistory returns every epoch of a hill, newest first.
func (s *HillService) ListHistory(ctx context.Context, objectID string) ([]hill.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HillService.ListHistory", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListStatuses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list hill statuses: %w", err)
	}
	if len(items) == 0 {
		return nil, notFound("hill", id)
	}

	slices.SortFunc(items, func(a, b hill.Status) int {
		switch {
		case a.EpochStart > b.EpochStart:
			return -1
		case a.EpochStart < b.EpochStart:
			return 1
		default:
			return 0
		}
	})
	return items, nil
}

func (s *HillService) load(ctx context.Context, objectID contest.ObjectID) (hill.Config, hill.Status, error) {
	cfg, exists, err := s.repo.GetConfig(ctx, objectID)
	if err != nil {
		return hill.Config{}, hill.Status{}, fmt.Errorf("get hill config: %w", err)
	}
	if !exists {
		return hill.Config{}, hill.Status{}, notFound("hill", objectID)
	}

	status, exists, err := s.repo.GetStatus(ctx, contest.RecordKey{ObjectID: objectID, Epoch: cfg.EpochStart})
	if err != nil {
		return hill.Config{}, hill.Status{}, fmt.Errorf("get hill status: %w", err)
	}
	if !exists {
		status = hill.Reset(objectID, cfg.EpochStart)
	}
	return cfg, status, nil
}

func cleanObjectID(value string) (contest.ObjectID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidInput("object id is required")
	}
	return contest.ObjectID(value), nil
}

func cleanPlayerID(value string) (contest.PlayerID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidInput("actor is required")
	}
	return contest.PlayerID(value), nil
}
