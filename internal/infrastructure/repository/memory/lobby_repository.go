package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
)

type LobbyRepository struct {
	mu       sync.RWMutex
	configs  map[contest.ObjectID]lobby.Config
	statuses map[contest.RecordKey]lobby.Status
}

func NewLobbyRepository() *LobbyRepository {
	return &LobbyRepository{
		configs:  make(map[contest.ObjectID]lobby.Config),
		statuses: make(map[contest.RecordKey]lobby.Status),
	}
}

func (r *LobbyRepository) GetConfig(_ context.Context, objectID contest.ObjectID) (lobby.Config, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[objectID]
	if !ok {
		return lobby.Config{}, false, nil
	}
	return cloneLobbyConfig(cfg), true, nil
}

func (r *LobbyRepository) UpsertConfig(_ context.Context, cfg lobby.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.configs[cfg.ObjectID]; ok && cfg.EpochStart <= current.EpochStart {
		return fmt.Errorf("%w: lobby %s epoch %d does not follow %d", contest.ErrStaleEvent, cfg.ObjectID, cfg.EpochStart, current.EpochStart)
	}
	r.configs[cfg.ObjectID] = cloneLobbyConfig(cfg)
	return nil
}

func (r *LobbyRepository) GetStatus(_ context.Context, key contest.RecordKey) (lobby.Status, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[key]
	if !ok {
		return lobby.Status{}, false, nil
	}
	return status.Clone(), true, nil
}

func (r *LobbyRepository) SaveStatus(_ context.Context, status lobby.Status) error {
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
		return fmt.Errorf("%w: lobby %s", contest.ErrAlreadyClaimed, key)
	}
	if err := contest.CheckVersion(key, current.Version, status.Version); err != nil {
		return err
	}

	stored := status.Clone()
	stored.Version++
	r.statuses[key] = stored
	return nil
}

func (r *LobbyRepository) ListStatuses(_ context.Context, objectID contest.ObjectID) ([]lobby.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Status, 0)
	for key, status := range r.statuses {
		if key.ObjectID == objectID {
			out = append(out, status.Clone())
		}
	}
	return out, nil
}

func (r *LobbyRepository) ListActive(_ context.Context) ([]lobby.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Status, 0)
	for _, status := range r.statuses {
		if status.IsActive {
			out = append(out, status.Clone())
		}
	}
	return out, nil
}

func cloneLobbyConfig(cfg lobby.Config) lobby.Config {
	copied := cfg
	copied.ControlPointIDs = slices.Clone(cfg.ControlPointIDs)
	return copied
}
