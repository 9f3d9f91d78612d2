package payout

import (
	"context"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Repository is the append-only outbox of payout intents.
type Repository interface {
	Append(ctx context.Context, intent Intent) error
	ListByObject(ctx context.Context, objectID contest.ObjectID) ([]Intent, error)
}
