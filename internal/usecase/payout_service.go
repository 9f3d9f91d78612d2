package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	idgen "github.com/riskibarqy/contested-territory/internal/platform/id"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
)

// PayoutService exposes the payout outbox and records new intents for the
// hill and lobby services.
type PayoutService struct {
	repo   payout.Repository
	idGen  idgen.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewPayoutService(repo payout.Repository, idGen idgen.Generator, logger *logging.Logger) *PayoutService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}

	return &PayoutService{
		repo:   repo,
		idGen:  idGen,
		logger: logger,
		now:    time.Now,
	}
}

func (s *PayoutService) ListByObject(ctx context.Context, objectID string) ([]payout.Intent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PayoutService.ListByObject", attrObjectID.String(objectID))
	defer span.End()

	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		return nil, invalidInput("object id is required")
	}

	items, err := s.repo.ListByObject(ctx, contest.ObjectID(objectID))
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}

	slices.SortStableFunc(items, func(a, b payout.Intent) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return items, nil
}

// record stamps and appends an intent produced by an engine. The record that
// produced it is already sealed, so a failure here is logged with the full
// intent for manual replay.
func (s *PayoutService) record(ctx context.Context, intent payout.Intent) (payout.Intent, error) {
	intentID, err := s.idGen.NewID()
	if err != nil {
		return payout.Intent{}, fmt.Errorf("generate payout id: %w", err)
	}
	intent.ID = intentID
	intent.CreatedAt = s.now().UTC()

	if err := s.repo.Append(ctx, intent); err != nil {
		s.logger.ErrorContext(ctx, "payout intent not recorded",
			"payout_id", intent.ID,
			"source", string(intent.Source),
			"object_id", string(intent.ObjectID),
			"epoch", uint64(intent.Epoch),
			"recipient", string(intent.Recipient),
			"item_id", string(intent.ItemID),
			"amount", intent.Amount,
			"error", err,
		)
		return payout.Intent{}, fmt.Errorf("%w: append payout: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "payout intent recorded",
		"payout_id", intent.ID,
		"source", string(intent.Source),
		"object_id", string(intent.ObjectID),
		"epoch", uint64(intent.Epoch),
		"recipient", string(intent.Recipient),
		"amount", intent.Amount,
	)
	return intent, nil
}
