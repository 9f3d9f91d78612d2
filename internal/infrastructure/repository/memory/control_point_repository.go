package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
)

type ControlPointRepository struct {
	mu    sync.RWMutex
	items map[contest.RecordKey]controlpoint.Status
}

func NewControlPointRepository() *ControlPointRepository {
	return &ControlPointRepository{items: make(map[contest.RecordKey]controlpoint.Status)}
}

func (r *ControlPointRepository) GetStatus(_ context.Context, key contest.RecordKey) (controlpoint.Status, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.items[key]
	return status, ok, nil
}

func (r *ControlPointRepository) SaveStatus(_ context.Context, status controlpoint.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := status.Key()
	current := r.items[key]
	if err := contest.CheckVersion(key, current.Version, status.Version); err != nil {
		return err
	}
	if current.LastChangeTime > status.LastChangeTime {
		return fmt.Errorf("%w: control point %s", contest.ErrStaleEvent, key)
	}

	status.Version++
	r.items[key] = status
	return nil
}

func (r *ControlPointRepository) ListStatuses(_ context.Context, objectID contest.ObjectID) ([]controlpoint.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]controlpoint.Status, 0)
	for key, status := range r.items {
		if key.ObjectID == objectID {
			out = append(out, status)
		}
	}
	return out, nil
}
