package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
)

const defaultSettlementWorkers = 4

type SweepResult struct {
	Checked int `json:"checked"`
	Closed  int `json:"closed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SettlementService closes active lobbies whose match window has elapsed so
// winners can claim without someone calling close first.
type SettlementService struct {
	lobbies *LobbyService
	repo    lobby.Repository
	clock   clock.Clock
	workers int
	logger  *logging.Logger
}

func NewSettlementService(lobbies *LobbyService, repo lobby.Repository, clk clock.Clock, workers int, logger *logging.Logger) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if workers < 1 {
		workers = defaultSettlementWorkers
	}

	return &SettlementService{
		lobbies: lobbies,
		repo:    repo,
		clock:   clk,
		workers: workers,
		logger:  logger,
	}
}

func (s *SettlementService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Sweep")
	defer span.End()

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active lobbies: %w", err)
	}

	result := SweepResult{Checked: len(active)}
	if len(active) == 0 {
		return result, nil
	}

	due := make([]contest.ObjectID, 0, len(active))
	now := s.clock.Now()
	for _, status := range active {
		ok, err := s.isDue(ctx, status, now)
		if err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "settlement check failed", "object_id", string(status.ObjectID), "error", err)
			continue
		}
		if !ok {
			result.Skipped++
			continue
		}
		due = append(due, status.ObjectID)
	}
	if len(due) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(due)))
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var closed atomic.Int32
	var failed atomic.Int32
	var workers sync.WaitGroup
	for _, objectID := range due {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if _, err := s.lobbies.Close(ctx, string(objectID)); err != nil {
				// Another writer got there first; the next sweep sees its result.
				if errors.Is(err, contest.ErrLobbyNotActive) || errors.Is(err, contest.ErrConflict) {
					return
				}
				failed.Add(1)
				s.logger.WarnContext(ctx, "settlement close failed", "object_id", string(objectID), "error", err)
				return
			}
			closed.Add(1)
		}); err != nil {
			workers.Done()
			return result, fmt.Errorf("submit settlement task: %w", err)
		}
	}
	workers.Wait()

	result.Closed = int(closed.Load())
	result.Failed += int(failed.Load())
	result.Skipped += len(due) - result.Closed - int(failed.Load())

	s.logger.InfoContext(ctx, "settlement sweep finished",
		"checked", result.Checked,
		"closed", result.Closed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// Run sweeps every interval until ctx is done.
func (s *SettlementService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "settlement sweep failed", "error", err)
			}
		}
	}
}

// isDue skips statuses of superseded epochs and matches still in progress.
func (s *SettlementService) isDue(ctx context.Context, status lobby.Status, now accrual.Timestamp) (bool, error) {
	cfg, exists, err := s.repo.GetConfig(ctx, status.ObjectID)
	if err != nil {
		return false, err
	}
	if !exists || cfg.EpochStart != status.EpochStart {
		return false, nil
	}
	return accrual.Expired(status.MatchStartTime, now, cfg.Duration), nil
}
