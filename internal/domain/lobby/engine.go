package lobby

import (
	"fmt"
	"slices"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

// ControlDepositQuantity is the number of control deposit items a start needs.
const ControlDepositQuantity uint64 = 1

// Reset opens a forming status for a new epoch.
func Reset(objectID contest.ObjectID, epochStart contest.Epoch) Status {
	return Status{
		ObjectID:   objectID,
		EpochStart: epochStart,
		Phase:      PhaseForming,
	}
}

// Start moves a forming lobby to active. It returns the new status and a
// freshly opened status for every control point of the lobby.
func Start(
	cfg Config,
	status Status,
	roster []contest.PlayerID,
	receipt deposit.Receipt,
	assigner TeamAssigner,
	now accrual.Timestamp,
) (Status, []controlpoint.Status, error) {
	if status.Phase != PhaseForming {
		return status, nil, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotForming, status.Key(), status.Phase)
	}
	if now < cfg.EpochStart {
		return status, nil, fmt.Errorf("%w: start at %d before epoch %d", contest.ErrStaleEvent, now, cfg.EpochStart)
	}

	players, err := uniqueRoster(roster)
	if err != nil {
		return status, nil, err
	}
	if uint64(len(players)) < cfg.RequiredPlayerCount {
		return status, nil, fmt.Errorf("%w: have %d of %d", contest.ErrInsufficientPlayers, len(players), cfg.RequiredPlayerCount)
	}
	if !receipt.Satisfies(cfg.RequiredControlDepositID, ControlDepositQuantity) {
		return status, nil, fmt.Errorf("%w: lobby requires control deposit %s", contest.ErrDepositMismatch, cfg.RequiredControlDepositID)
	}

	if assigner == nil {
		assigner = AlternatingAssigner{}
	}
	teamA, teamB, err := assigner.Assign(slices.Clone(players))
	if err != nil {
		return status, nil, fmt.Errorf("assign teams: %w", err)
	}
	if err := checkSplit(players, teamA, teamB); err != nil {
		return status, nil, err
	}

	pot, err := accrual.MulUint(cfg.RequiredItemQuantity, uint64(len(players)))
	if err != nil {
		return status, nil, fmt.Errorf("lobby pot: %w", err)
	}
	if _, err := cfg.MatchEnd(now); err != nil {
		return status, nil, fmt.Errorf("lobby match end: %w", err)
	}

	next := status.Clone()
	next.Phase = PhaseActive
	next.IsActive = true
	next.MatchStartTime = now
	next.TeamATotalTime = 0
	next.TeamBTotalTime = 0
	next.TeamAPlayers = slices.Clone(teamA)
	next.TeamBPlayers = slices.Clone(teamB)
	next.PotTotal = pot

	points := make([]controlpoint.Status, 0, len(cfg.ControlPointIDs))
	for _, pointID := range cfg.ControlPointIDs {
		points = append(points, controlpoint.Open(pointID, status.EpochStart, now))
	}

	return next, points, nil
}

// ChangeControl applies a resolved capture to one of the lobby's points.
// Changes are accepted up to and including the match end.
func ChangeControl(cfg Config, status Status, point controlpoint.Status, newTeam controlpoint.Team, now accrual.Timestamp) (controlpoint.Status, error) {
	if status.Phase != PhaseActive {
		return point, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotActive, status.Key(), status.Phase)
	}
	if !cfg.OwnsPoint(point.ObjectID) {
		return point, fmt.Errorf("%w: %s", contest.ErrUnknownControlPoint, point.ObjectID)
	}
	if point.EpochStart != status.EpochStart {
		return point, fmt.Errorf("%w: point %s does not belong to epoch %d", contest.ErrInvalidRecord, point.Key(), status.EpochStart)
	}

	end, err := cfg.MatchEnd(status.MatchStartTime)
	if err != nil {
		return point, err
	}
	if now > end {
		return point, fmt.Errorf("%w: change at %d after match end %d", contest.ErrMatchOver, now, end)
	}

	return controlpoint.OnControlChange(point, newTeam, now)
}

// Aggregate recomputes team totals from the point snapshots at
// min(now, match end). Nothing is accumulated incrementally.
func Aggregate(cfg Config, status Status, points map[contest.ObjectID]controlpoint.Status, now accrual.Timestamp) (Status, error) {
	if status.Phase != PhaseActive {
		return status, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotActive, status.Key(), status.Phase)
	}
	if now < status.MatchStartTime {
		return status, fmt.Errorf("%w: aggregate at %d before match start %d", contest.ErrStaleEvent, now, status.MatchStartTime)
	}

	end, err := cfg.MatchEnd(status.MatchStartTime)
	if err != nil {
		return status, err
	}

	teamA, teamB, err := sumPoints(cfg, status, points, accrual.Min(now, end))
	if err != nil {
		return status, err
	}

	next := status.Clone()
	next.TeamATotalTime = teamA
	next.TeamBTotalTime = teamB
	return next, nil
}

// Close freezes the totals at the match end and decides the outcome. A tie is
// a valid outcome with no winner.
func Close(cfg Config, status Status, points map[contest.ObjectID]controlpoint.Status, now accrual.Timestamp) (Status, error) {
	if status.Phase != PhaseActive {
		return status, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotActive, status.Key(), status.Phase)
	}

	played, err := accrual.Elapsed(status.MatchStartTime, now)
	if err != nil {
		return status, fmt.Errorf("close lobby %s: %w", status.Key(), err)
	}
	if played < cfg.Duration {
		return status, fmt.Errorf("%w: played %d of %d", contest.ErrNotExpiredYet, played, cfg.Duration)
	}

	end, err := cfg.MatchEnd(status.MatchStartTime)
	if err != nil {
		return status, err
	}
	teamA, teamB, err := sumPoints(cfg, status, points, end)
	if err != nil {
		return status, err
	}

	next := status.Clone()
	next.TeamATotalTime = teamA
	next.TeamBTotalTime = teamB
	next.Outcome = decide(teamA, teamB)
	next.IsActive = false
	next.Phase = PhaseClosed
	next.ClosedAt = now
	return next, nil
}

// ClaimReward pays the whole pot to the first winning player who claims it.
func ClaimReward(cfg Config, status Status, actor contest.PlayerID, now accrual.Timestamp) (Status, payout.Intent, error) {
	if err := actor.Validate(); err != nil {
		return status, payout.Intent{}, err
	}
	if status.Phase != PhaseClosed {
		return status, payout.Intent{}, fmt.Errorf("%w: lobby %s is %s", contest.ErrLobbyNotClosed, status.Key(), status.Phase)
	}
	if status.Claimed {
		return status, payout.Intent{}, fmt.Errorf("%w: lobby %s", contest.ErrAlreadyClaimed, status.Key())
	}
	if now < status.ClosedAt {
		return status, payout.Intent{}, fmt.Errorf("%w: claim at %d before close %d", contest.ErrStaleEvent, now, status.ClosedAt)
	}
	if status.Outcome == OutcomeNoWinner {
		return status, payout.Intent{}, fmt.Errorf("%w: lobby %s tied at %d", contest.ErrNoWinner, status.Key(), status.TeamATotalTime)
	}
	if !slices.Contains(status.Winners(), actor) {
		return status, payout.Intent{}, fmt.Errorf("%w: %s is not on %s", contest.ErrNotWinner, actor, status.Outcome)
	}

	next := status.Clone()
	next.Claimed = true
	next.ClaimedBy = actor

	return next, payout.Intent{
		Source:      payout.SourceLobby,
		ObjectID:    status.ObjectID,
		Epoch:       status.EpochStart,
		Recipient:   actor,
		TriggeredBy: actor,
		ItemID:      cfg.RequiredItemID,
		Amount:      status.PotTotal,
	}, nil
}

func decide(teamA, teamB accrual.Duration) Outcome {
	switch {
	case teamA > teamB:
		return OutcomeTeamA
	case teamB > teamA:
		return OutcomeTeamB
	default:
		return OutcomeNoWinner
	}
}

func sumPoints(cfg Config, status Status, points map[contest.ObjectID]controlpoint.Status, at accrual.Timestamp) (accrual.Duration, accrual.Duration, error) {
	var teamA, teamB accrual.Duration
	for _, pointID := range cfg.ControlPointIDs {
		point, ok := points[pointID]
		if !ok {
			return 0, 0, fmt.Errorf("%w: missing status for control point %s", contest.ErrInvalidRecord, pointID)
		}
		if point.EpochStart != status.EpochStart {
			return 0, 0, fmt.Errorf("%w: point %s does not belong to epoch %d", contest.ErrInvalidRecord, point.Key(), status.EpochStart)
		}

		totals, err := controlpoint.Snapshot(point, at)
		if err != nil {
			return 0, 0, err
		}
		if teamA, err = accrual.Add(teamA, totals.TeamATime); err != nil {
			return 0, 0, err
		}
		if teamB, err = accrual.Add(teamB, totals.TeamBTime); err != nil {
			return 0, 0, err
		}
	}
	return teamA, teamB, nil
}

func uniqueRoster(roster []contest.PlayerID) ([]contest.PlayerID, error) {
	seen := make(map[contest.PlayerID]struct{}, len(roster))
	out := make([]contest.PlayerID, 0, len(roster))
	for _, playerID := range roster {
		if err := playerID.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[playerID]; ok {
			continue
		}
		seen[playerID] = struct{}{}
		out = append(out, playerID)
	}
	return out, nil
}

// checkSplit verifies that teamA and teamB partition players.
func checkSplit(players, teamA, teamB []contest.PlayerID) error {
	if len(teamA) == 0 || len(teamB) == 0 {
		return fmt.Errorf("%w: both teams need at least one player", contest.ErrInvalidRecord)
	}
	if len(teamA)+len(teamB) != len(players) {
		return fmt.Errorf("%w: team split covers %d of %d players", contest.ErrInvalidRecord, len(teamA)+len(teamB), len(players))
	}

	remaining := make(map[contest.PlayerID]struct{}, len(players))
	for _, playerID := range players {
		remaining[playerID] = struct{}{}
	}
	for _, playerID := range slices.Concat(teamA, teamB) {
		if _, ok := remaining[playerID]; !ok {
			return fmt.Errorf("%w: player %s assigned twice or not in roster", contest.ErrInvalidRecord, playerID)
		}
		delete(remaining, playerID)
	}
	return nil
}
