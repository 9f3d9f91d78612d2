package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
)

const defaultPointLoadConcurrency = 8

type ConfigureLobbyInput struct {
	ObjectID                 string
	Duration                 uint64
	RequiredPlayerCount      uint64
	RequiredItemID           string
	RequiredItemQuantity     uint64
	RequiredControlDepositID string
	ControlPointIDs          []string
	// EpochStart defaults to the current clock reading when zero.
	EpochStart uint64
}

type StartLobbyInput struct {
	ObjectID string
	Roster   []string
	Deposit  DepositInput
}

type ChangeControlInput struct {
	ObjectID string
	PointID  string
	Team     string
}

type ClaimRewardInput struct {
	ObjectID string
	Actor    string
}

type LobbyResult struct {
	Config lobby.Config
	Status lobby.Status
	Payout *payout.Intent
}

// LobbyView is a lobby status plus live totals projected to Now. The stored
// totals only change on aggregate and close.
type LobbyView struct {
	Config       lobby.Config
	Status       lobby.Status
	Now          accrual.Timestamp
	LiveTeamA    accrual.Duration
	LiveTeamB    accrual.Duration
	MatchEndTime accrual.Timestamp
}

type PointView struct {
	Status controlpoint.Status
	Totals controlpoint.Totals
}

type LobbyService struct {
	repo     lobby.Repository
	points   controlpoint.Repository
	payouts  *PayoutService
	gate     deposit.Gate
	assigner lobby.TeamAssigner
	clock    clock.Clock
	locks    *resilience.KeyedMutex
	logger   *logging.Logger

	pointLoadConcurrency int
}

func NewLobbyService(
	repo lobby.Repository,
	points controlpoint.Repository,
	payouts *PayoutService,
	gate deposit.Gate,
	assigner lobby.TeamAssigner,
	clk clock.Clock,
	logger *logging.Logger,
) *LobbyService {
	if logger == nil {
		logger = logging.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if assigner == nil {
		assigner = lobby.AlternatingAssigner{}
	}

	return &LobbyService{
		repo:                 repo,
		points:               points,
		payouts:              payouts,
		gate:                 gate,
		assigner:             assigner,
		clock:                clk,
		locks:                &resilience.KeyedMutex{},
		logger:               logger,
		pointLoadConcurrency: defaultPointLoadConcurrency,
	}
}

// ConfigureLobby replaces the lobby config and opens a fresh forming epoch.
func (s *LobbyService) ConfigureLobby(ctx context.Context, input ConfigureLobbyInput) (lobby.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.ConfigureLobby", attrObjectID.String(input.ObjectID))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return lobby.Config{}, err
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	epoch := accrual.Timestamp(input.EpochStart)
	if epoch == 0 {
		epoch = s.clock.Now()
	}

	pointIDs := make([]contest.ObjectID, 0, len(input.ControlPointIDs))
	for _, raw := range input.ControlPointIDs {
		pointIDs = append(pointIDs, contest.ObjectID(strings.TrimSpace(raw)))
	}

	cfg := lobby.Config{
		ObjectID:                 objectID,
		Duration:                 accrual.Duration(input.Duration),
		RequiredPlayerCount:      input.RequiredPlayerCount,
		RequiredItemID:           contest.ItemID(strings.TrimSpace(input.RequiredItemID)),
		RequiredItemQuantity:     input.RequiredItemQuantity,
		RequiredControlDepositID: contest.ItemID(strings.TrimSpace(input.RequiredControlDepositID)),
		EpochStart:               epoch,
		ControlPointIDs:          pointIDs,
	}
	if err := cfg.Validate(); err != nil {
		return lobby.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	current, exists, err := s.repo.GetConfig(ctx, objectID)
	if err != nil {
		return lobby.Config{}, fmt.Errorf("get lobby config: %w", err)
	}
	if exists && cfg.EpochStart <= current.EpochStart {
		return lobby.Config{}, fmt.Errorf("%w: epoch %d does not follow %d", contest.ErrStaleEvent, cfg.EpochStart, current.EpochStart)
	}

	if err := s.repo.UpsertConfig(ctx, cfg); err != nil {
		return lobby.Config{}, fmt.Errorf("upsert lobby config: %w", err)
	}
	if err := s.repo.SaveStatus(ctx, lobby.Reset(objectID, cfg.EpochStart)); err != nil {
		return lobby.Config{}, fmt.Errorf("open lobby epoch: %w", err)
	}

	s.logger.InfoContext(ctx, "lobby configured",
		"object_id", string(objectID),
		"epoch_start", uint64(cfg.EpochStart),
		"duration", uint64(cfg.Duration),
		"required_player_count", cfg.RequiredPlayerCount,
		"control_points", len(cfg.ControlPointIDs),
	)
	return cfg, nil
}

func (s *LobbyService) Start(ctx context.Context, input StartLobbyInput) (LobbyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.Start", attrObjectID.String(input.ObjectID))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return LobbyResult{}, err
	}
	if len(input.Roster) == 0 {
		return LobbyResult{}, invalidInput("roster is required")
	}
	roster := make([]contest.PlayerID, 0, len(input.Roster))
	for _, raw := range input.Roster {
		roster = append(roster, contest.PlayerID(strings.TrimSpace(raw)))
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	cfg, status, err := s.load(ctx, objectID)
	if err != nil {
		return LobbyResult{}, err
	}

	receipt, err := checkDeposit(ctx, s.gate, input.Deposit, cfg.RequiredControlDepositID, lobby.ControlDepositQuantity)
	if err != nil {
		return LobbyResult{}, err
	}

	next, opened, err := lobby.Start(cfg, status, roster, receipt, s.assigner, s.clock.Now())
	if err != nil {
		return LobbyResult{}, err
	}

	// The lobby write decides between racing starts and fences a replaced
	// epoch. Points are only opened by the winner.
	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return LobbyResult{}, fmt.Errorf("save lobby status: %w", err)
	}
	next.Version++
	for _, point := range opened {
		if err := s.points.SaveStatus(ctx, point); err != nil {
			return LobbyResult{}, fmt.Errorf("open control point %s: %w", point.ObjectID, err)
		}
	}

	s.logger.InfoContext(ctx, "lobby started",
		"object_id", string(objectID),
		"epoch_start", uint64(next.EpochStart),
		"match_start_time", uint64(next.MatchStartTime),
		"team_a", len(next.TeamAPlayers),
		"team_b", len(next.TeamBPlayers),
		"pot_total", next.PotTotal,
		"deposit_proof_id", receipt.Proof.ID,
	)
	return LobbyResult{Config: cfg, Status: next}, nil
}

// ChangeControl records a resolved capture on one of the lobby's points.
func (s *LobbyService) ChangeControl(ctx context.Context, input ChangeControlInput) (controlpoint.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.ChangeControl", attrObjectID.String(input.ObjectID), attrPointID.String(input.PointID))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return controlpoint.Status{}, err
	}
	pointID, err := cleanObjectID(input.PointID)
	if err != nil {
		return controlpoint.Status{}, err
	}
	team := controlpoint.Team(strings.ToLower(strings.TrimSpace(input.Team)))
	if err := team.Validate(); err != nil {
		return controlpoint.Status{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	cfg, status, err := s.load(ctx, objectID)
	if err != nil {
		return controlpoint.Status{}, err
	}

	point := controlpoint.Status{ObjectID: pointID, EpochStart: status.EpochStart}
	if cfg.OwnsPoint(pointID) && status.Phase == lobby.PhaseActive {
		stored, exists, err := s.points.GetStatus(ctx, point.Key())
		if err != nil {
			return controlpoint.Status{}, fmt.Errorf("get control point: %w", err)
		}
		if !exists {
			// Start stores the lobby before its points; a start that failed
			// in between left this point unopened.
			stored = controlpoint.Open(pointID, status.EpochStart, status.MatchStartTime)
		}
		point = stored
	}

	next, err := lobby.ChangeControl(cfg, status, point, team, s.clock.Now())
	if err != nil {
		return controlpoint.Status{}, err
	}
	// Rewriting the unchanged lobby status bumps its version, which orders
	// captures across instances and rejects a replaced epoch before the point
	// is touched.
	if err := s.repo.SaveStatus(ctx, status); err != nil {
		return controlpoint.Status{}, fmt.Errorf("fence lobby status: %w", err)
	}
	if err := s.points.SaveStatus(ctx, next); err != nil {
		return controlpoint.Status{}, fmt.Errorf("save control point: %w", err)
	}
	next.Version++

	s.logger.DebugContext(ctx, "control point changed",
		"object_id", string(objectID),
		"point_id", string(pointID),
		"team", string(next.ControllingTeam),
		"last_change_time", uint64(next.LastChangeTime),
	)
	return next, nil
}

// Aggregate recomputes and stores the lobby totals from its points.
func (s *LobbyService) Aggregate(ctx context.Context, objectID string) (LobbyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.Aggregate", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return LobbyResult{}, err
	}

	unlock := s.locks.Lock(string(id))
	defer unlock()

	cfg, status, err := s.load(ctx, id)
	if err != nil {
		return LobbyResult{}, err
	}
	if status.Phase != lobby.PhaseActive {
		return LobbyResult{}, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotActive, status.Key(), status.Phase)
	}

	points, err := s.loadPoints(ctx, cfg, status.EpochStart)
	if err != nil {
		return LobbyResult{}, err
	}

	next, err := lobby.Aggregate(cfg, status, points, s.clock.Now())
	if err != nil {
		return LobbyResult{}, err
	}
	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return LobbyResult{}, fmt.Errorf("save lobby status: %w", err)
	}
	next.Version++

	return LobbyResult{Config: cfg, Status: next}, nil
}

// Close ends a lobby whose match window has elapsed.
func (s *LobbyService) Close(ctx context.Context, objectID string) (LobbyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.Close", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return LobbyResult{}, err
	}

	unlock := s.locks.Lock(string(id))
	defer unlock()

	cfg, status, err := s.load(ctx, id)
	if err != nil {
		return LobbyResult{}, err
	}
	if status.Phase != lobby.PhaseActive {
		return LobbyResult{}, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotActive, status.Key(), status.Phase)
	}

	points, err := s.loadPoints(ctx, cfg, status.EpochStart)
	if err != nil {
		return LobbyResult{}, err
	}

	next, err := lobby.Close(cfg, status, points, s.clock.Now())
	if err != nil {
		return LobbyResult{}, err
	}
	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return LobbyResult{}, fmt.Errorf("save lobby status: %w", err)
	}
	next.Version++

	s.logger.InfoContext(ctx, "lobby closed",
		"object_id", string(id),
		"epoch_start", uint64(next.EpochStart),
		"team_a_total", uint64(next.TeamATotalTime),
		"team_b_total", uint64(next.TeamBTotalTime),
		"outcome", string(next.Outcome),
	)
	return LobbyResult{Config: cfg, Status: next}, nil
}

// ClaimReward pays the pot to the first winning player who asks for it.
func (s *LobbyService) ClaimReward(ctx context.Context, input ClaimRewardInput) (LobbyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.ClaimReward", attrObjectID.String(input.ObjectID), attrActor.String(input.Actor))
	defer span.End()

	objectID, err := cleanObjectID(input.ObjectID)
	if err != nil {
		return LobbyResult{}, err
	}
	actor, err := cleanPlayerID(input.Actor)
	if err != nil {
		return LobbyResult{}, err
	}

	unlock := s.locks.Lock(string(objectID))
	defer unlock()

	cfg, status, err := s.load(ctx, objectID)
	if err != nil {
		return LobbyResult{}, err
	}

	next, intent, err := lobby.ClaimReward(cfg, status, actor, s.clock.Now())
	if err != nil {
		return LobbyResult{}, err
	}
	if err := s.repo.SaveStatus(ctx, next); err != nil {
		return LobbyResult{}, fmt.Errorf("save lobby status: %w", err)
	}
	next.Version++

	s.logger.InfoContext(ctx, "lobby reward claimed",
		"object_id", string(objectID),
		"epoch_start", uint64(next.EpochStart),
		"claimed_by", string(actor),
		"pot_total", next.PotTotal,
	)

	recorded, err := s.payouts.record(ctx, intent)
	if err != nil {
		return LobbyResult{}, err
	}
	return LobbyResult{Config: cfg, Status: next, Payout: &recorded}, nil
}

func (s *LobbyService) GetStatus(ctx context.Context, objectID string) (LobbyView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.GetStatus", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return LobbyView{}, err
	}

	cfg, status, err := s.load(ctx, id)
	if err != nil {
		return LobbyView{}, err
	}

	now := s.clock.Now()
	view := LobbyView{
		Config:    cfg,
		Status:    status,
		Now:       now,
		LiveTeamA: status.TeamATotalTime,
		LiveTeamB: status.TeamBTotalTime,
	}
	if status.Phase != lobby.PhaseActive {
		return view, nil
	}

	if view.MatchEndTime, err = cfg.MatchEnd(status.MatchStartTime); err != nil {
		return LobbyView{}, err
	}
	points, err := s.loadPoints(ctx, cfg, status.EpochStart)
	if err != nil {
		return LobbyView{}, err
	}
	live, err := lobby.Aggregate(cfg, status, points, now)
	if err != nil {
		return LobbyView{}, err
	}
	view.LiveTeamA = live.TeamATotalTime
	view.LiveTeamB = live.TeamBTotalTime
	return view, nil
}

// GetPoint returns a control point of the current epoch with totals projected
// to now, capped at the match end.
func (s *LobbyService) GetPoint(ctx context.Context, objectID, pointID string) (PointView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.GetPoint", attrObjectID.String(objectID), attrPointID.String(pointID))
	defer span.End()

	lobbyID, err := cleanObjectID(objectID)
	if err != nil {
		return PointView{}, err
	}
	pid, err := cleanObjectID(pointID)
	if err != nil {
		return PointView{}, err
	}

	cfg, status, err := s.load(ctx, lobbyID)
	if err != nil {
		return PointView{}, err
	}
	if !cfg.OwnsPoint(pid) {
		return PointView{}, fmt.Errorf("%w: %s", contest.ErrUnknownControlPoint, pid)
	}

	point, exists, err := s.points.GetStatus(ctx, contest.RecordKey{ObjectID: pid, Epoch: status.EpochStart})
	if err != nil {
		return PointView{}, fmt.Errorf("get control point: %w", err)
	}
	if !exists {
		return PointView{}, fmt.Errorf("%w: control point=%s@%d", ErrNotFound, pid, status.EpochStart)
	}

	at := s.clock.Now()
	if end, err := cfg.MatchEnd(status.MatchStartTime); err == nil {
		at = accrual.Min(at, end)
	}
	if at < point.LastChangeTime {
		at = point.LastChangeTime
	}

	totals, err := controlpoint.Snapshot(point, at)
	if err != nil {
		return PointView{}, err
	}
	return PointView{Status: point, Totals: totals}, nil
}

// ListHistory returns every epoch of a lobby, newest first.
func (s *LobbyService) ListHistory(ctx context.Context, objectID string) ([]lobby.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.ListHistory", attrObjectID.String(objectID))
	defer span.End()

	id, err := cleanObjectID(objectID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListStatuses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list lobby statuses: %w", err)
	}
	if len(items) == 0 {
		return nil, notFound("lobby", id)
	}

	slices.SortFunc(items, func(a, b lobby.Status) int {
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

func (s *LobbyService) load(ctx context.Context, objectID contest.ObjectID) (lobby.Config, lobby.Status, error) {
	cfg, exists, err := s.repo.GetConfig(ctx, objectID)
	if err != nil {
		return lobby.Config{}, lobby.Status{}, fmt.Errorf("get lobby config: %w", err)
	}
	if !exists {
		return lobby.Config{}, lobby.Status{}, notFound("lobby", objectID)
	}

	status, exists, err := s.repo.GetStatus(ctx, contest.RecordKey{ObjectID: objectID, Epoch: cfg.EpochStart})
	if err != nil {
		return lobby.Config{}, lobby.Status{}, fmt.Errorf("get lobby status: %w", err)
	}
	if !exists {
		status = lobby.Reset(objectID, cfg.EpochStart)
	}
	return cfg, status, nil
}

// loadPoints reads every point of the epoch concurrently. A missing point is
// left out of the map and reported by the engine.
func (s *LobbyService) loadPoints(ctx context.Context, cfg lobby.Config, epoch contest.Epoch) (map[contest.ObjectID]controlpoint.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LobbyService.loadPoints")
	defer span.End()

	type loaded struct {
		status controlpoint.Status
		exists bool
	}

	p := pool.NewWithResults[loaded]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(max(1, s.pointLoadConcurrency))
	for _, pointID := range cfg.ControlPointIDs {
		key := contest.RecordKey{ObjectID: pointID, Epoch: epoch}
		p.Go(func(ctx context.Context) (loaded, error) {
			status, exists, err := s.points.GetStatus(ctx, key)
			if err != nil {
				return loaded{}, fmt.Errorf("get control point %s: %w", key, err)
			}
			return loaded{status: status, exists: exists}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	out := make(map[contest.ObjectID]controlpoint.Status, len(results))
	for _, item := range results {
		if item.exists {
			out[item.status.ObjectID] = item.status
		}
	}
	return out, nil
}
