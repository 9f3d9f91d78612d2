package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

type PayoutRepository struct {
	mu    sync.RWMutex
	items []payout.Intent
	byKey map[payout.Source]map[contest.RecordKey]struct{}
}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{byKey: make(map[payout.Source]map[contest.RecordKey]struct{})}
}

func (r *PayoutRepository) Append(_ context.Context, intent payout.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.byKey[intent.Source]
	if !ok {
		keys = make(map[contest.RecordKey]struct{})
		r.byKey[intent.Source] = keys
	}
	if _, exists := keys[intent.Key()]; exists {
		return fmt.Errorf("%w: payout for %s %s already recorded", contest.ErrAlreadyClaimed, intent.Source, intent.Key())
	}

	keys[intent.Key()] = struct{}{}
	r.items = append(r.items, intent)
	return nil
}

func (r *PayoutRepository) ListByObject(_ context.Context, objectID contest.ObjectID) ([]payout.Intent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]payout.Intent, 0)
	for _, intent := range r.items {
		if intent.ObjectID == objectID {
			out = append(out, intent)
		}
	}
	return out, nil
}
