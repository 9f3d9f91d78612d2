package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
)

type HillRepository struct {
	mu       sync.RWMutex
	configs  map[contest.ObjectID]hill.Config
	statuses map[contest.RecordKey]hill.Status
}

func NewHillRepository() *HillRepository {
	return &HillRepository{
		configs:  make(map[contest.ObjectID]hill.Config),
		statuses: make(map[contest.RecordKey]hill.Status),
	}
}

func (r *HillRepository) GetConfig(_ context.Context, objectID contest.ObjectID) (hill.Config, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[objectID]
	return cfg, ok, nil
}

func (r *HillRepository) UpsertConfig(_ context.Context, cfg hill.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.configs[cfg.ObjectID]; ok && cfg.EpochStart <= current.EpochStart {
		return fmt.Errorf("%w: hill %s epoch %d does not follow %d", contest.ErrStaleEvent, cfg.ObjectID, cfg.EpochStart, current.EpochStart)
	}
	r.configs[cfg.ObjectID] = cfg
	return nil
}

func (r *HillRepository) GetStatus(_ context.Context, key contest.RecordKey) (hill.Status, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[key]
	return status, ok, nil
}

func (r *HillRepository) SaveStatus(_ context.Context, status hill.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := status.Key()
	if cfg, ok := r.configs[key.ObjectID]; ok {
		if err := contest.CheckEpoch(key, cfg.EpochStart); err != nil {
			return err
		}
	}
	current := r.statuses[key]
	if current.Claimed {
		return fmt.Errorf("%w: hill %s", contest.ErrAlreadyClaimed, key)
	}
	if err := contest.CheckVersion(key, current.Version, status.Version); err != nil {
		return err
	}

	status.Version++
	r.statuses[key] = status
	return nil
}

func (r *HillRepository) ListStatuses(_ context.Context, objectID contest.ObjectID) ([]hill.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]hill.Status, 0)
	for key, status := range r.statuses {
		if key.ObjectID == objectID {
			out = append(out, status)
		}
	}
	return out, nil
}
