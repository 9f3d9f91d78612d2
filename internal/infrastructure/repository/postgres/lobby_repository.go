package postgres

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	qb "github.com/riskibarqy/contested-territory/internal/platform/querybuilder"
)

type LobbyRepository struct {
	db *sqlx.DB
}

func NewLobbyRepository(db *sqlx.DB) *LobbyRepository {
	return &LobbyRepository{db: db}
}

func (r *LobbyRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (lobby.Config, bool, error) {
	query, args, err := qb.Select(lobbyConfigColumns...).From("lobby_configs").
		Where(qb.Eq("object_id", string(objectID))).
		ToSQL()
	if err != nil {
		return lobby.Config{}, false, crerr.Wrap(err, "build get lobby config query")
	}

	var row lobbyConfigTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lobby.Config{}, false, nil
		}
		return lobby.Config{}, false, crerr.Wrapf(err, "get lobby config %s", objectID)
	}

	pointIDs := make([]contest.ObjectID, 0, len(row.ControlPointIDs))
	for _, pointID := range row.ControlPointIDs {
		pointIDs = append(pointIDs, contest.ObjectID(pointID))
	}

	return lobby.Config{
		ObjectID:                 contest.ObjectID(row.ObjectID),
		Duration:                 accrual.Duration(row.Duration),
		RequiredPlayerCount:      uint64(row.RequiredPlayerCount),
		RequiredItemID:           contest.ItemID(row.RequiredItemID),
		RequiredItemQuantity:     uint64(row.RequiredItemQuantity),
		RequiredControlDepositID: contest.ItemID(row.RequiredControlDepositID),
		EpochStart:               accrual.Timestamp(row.EpochStart),
		ControlPointIDs:          pointIDs,
	}, true, nil
}

func (r *LobbyRepository) UpsertConfig(ctx context.Context, cfg lobby.Config) error {
	pointIDs := make(pq.StringArray, 0, len(cfg.ControlPointIDs))
	for _, pointID := range cfg.ControlPointIDs {
		pointIDs = append(pointIDs, string(pointID))
	}

	model := lobbyConfigTableModel{
		ObjectID:                 string(cfg.ObjectID),
		Duration:                 numeric(cfg.Duration),
		RequiredPlayerCount:      numeric(cfg.RequiredPlayerCount),
		RequiredItemID:           string(cfg.RequiredItemID),
		RequiredItemQuantity:     numeric(cfg.RequiredItemQuantity),
		RequiredControlDepositID: string(cfg.RequiredControlDepositID),
		EpochStart:               numeric(cfg.EpochStart),
		ControlPointIDs:          pointIDs,
	}

	query, args, err := qb.InsertModel("lobby_configs", model, `ON CONFLICT (object_id)
DO UPDATE SET
	duration = EXCLUDED.duration,
	required_player_count = EXCLUDED.required_player_count,
	required_item_id = EXCLUDED.required_item_id,
	required_item_quantity = EXCLUDED.required_item_quantity,
	required_control_deposit_id = EXCLUDED.required_control_deposit_id,
	epoch_start = EXCLUDED.epoch_start,
	control_point_ids = EXCLUDED.control_point_ids,
	updated_at = NOW()
WHERE lobby_configs.epoch_start < EXCLUDED.epoch_start`)
	if err != nil {
		return crerr.Wrap(err, "build upsert lobby config query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "upsert lobby config %s", cfg.ObjectID)
	}
	return requireAdvanced(res, cfg.ObjectID, cfg.EpochStart, "lobby")
}

func (r *LobbyRepository) GetStatus(ctx context.Context, key contest.RecordKey) (lobby.Status, bool, error) {
	query, args, err := qb.Select(lobbyStatusColumns...).From("lobby_statuses").
		Where(
			qb.Eq("object_id", string(key.ObjectID)),
			qb.Eq("epoch_start", numeric(key.Epoch)),
		).
		ToSQL()
	if err != nil {
		return lobby.Status{}, false, crerr.Wrap(err, "build get lobby status query")
	}

	var row lobbyStatusTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lobby.Status{}, false, nil
		}
		return lobby.Status{}, false, crerr.Wrapf(err, "get lobby status %s", key)
	}

	return lobbyStatusFromRow(row), true, nil
}

// SaveStatus upserts the status when the stored row is unclaimed, still at
// status.Version and in the configured epoch.
func (r *LobbyRepository) SaveStatus(ctx context.Context, status lobby.Status) error {
	model := lobbyStatusTableModel{
		ObjectID:       string(status.ObjectID),
		EpochStart:     numeric(status.EpochStart),
		Phase:          string(status.Phase),
		MatchStartTime: numeric(status.MatchStartTime),
		TeamATotalTime: numeric(status.TeamATotalTime),
		TeamBTotalTime: numeric(status.TeamBTotalTime),
		Claimed:        status.Claimed,
		ClaimedBy:      string(status.ClaimedBy),
		IsActive:       status.IsActive,
		TeamAPlayers:   playerArray(status.TeamAPlayers),
		TeamBPlayers:   playerArray(status.TeamBPlayers),
		PotTotal:       numeric(status.PotTotal),
		Outcome:        string(status.Outcome),
		ClosedAt:       numeric(status.ClosedAt),
		Version:        numeric(status.Version + 1),
	}

	query, args, err := qb.InsertModel("lobby_statuses", model, `ON CONFLICT (object_id, epoch_start)
DO UPDATE SET
	phase = EXCLUDED.phase,
	match_start_time = EXCLUDED.match_start_time,
	team_a_total_time = EXCLUDED.team_a_total_time,
	team_b_total_time = EXCLUDED.team_b_total_time,
	claimed = EXCLUDED.claimed,
	claimed_by = EXCLUDED.claimed_by,
	is_active = EXCLUDED.is_active,
	team_a_players = EXCLUDED.team_a_players,
	team_b_players = EXCLUDED.team_b_players,
	pot_total = EXCLUDED.pot_total,
	outcome = EXCLUDED.outcome,
	closed_at = EXCLUDED.closed_at,
	version = EXCLUDED.version,
	updated_at = NOW()
WHERE lobby_statuses.claimed = FALSE AND lobby_statuses.version = EXCLUDED.version - 1`)
	if err != nil {
		return crerr.Wrap(err, "build save lobby status query")
	}

	return saveStatus(ctx, r.db, statusWrite{
		what:        "lobby",
		table:       "lobby_statuses",
		key:         status.Key(),
		read:        status.Version,
		configTable: "lobby_configs",
		sealColumn:  "claimed",
		held:        contest.ErrConflict,
	}, query, args)
}

func (r *LobbyRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]lobby.Status, error) {
	query, args, err := qb.Select(lobbyStatusColumns...).From("lobby_statuses").
		Where(qb.Eq("object_id", string(objectID))).
		OrderBy("epoch_start DESC").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list lobby statuses query")
	}

	return r.selectStatuses(ctx, query, args)
}

func (r *LobbyRepository) ListActive(ctx context.Context) ([]lobby.Status, error) {
	query, args, err := qb.Select(lobbyStatusColumns...).From("lobby_statuses").
		Where(qb.Eq("is_active", true)).
		OrderBy("object_id", "epoch_start").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list active lobbies query")
	}

	return r.selectStatuses(ctx, query, args)
}

func (r *LobbyRepository) selectStatuses(ctx context.Context, query string, args []any) ([]lobby.Status, error) {
	var rows []lobbyStatusTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "select lobby statuses")
	}

	out := make([]lobby.Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, lobbyStatusFromRow(row))
	}
	return out, nil
}

func lobbyStatusFromRow(row lobbyStatusTableModel) lobby.Status {
	return lobby.Status{
		ObjectID:       contest.ObjectID(row.ObjectID),
		EpochStart:     accrual.Timestamp(row.EpochStart),
		Phase:          lobby.Phase(row.Phase),
		MatchStartTime: accrual.Timestamp(row.MatchStartTime),
		TeamATotalTime: accrual.Duration(row.TeamATotalTime),
		TeamBTotalTime: accrual.Duration(row.TeamBTotalTime),
		Claimed:        row.Claimed,
		ClaimedBy:      contest.PlayerID(row.ClaimedBy),
		IsActive:       row.IsActive,
		TeamAPlayers:   playerIDs(row.TeamAPlayers),
		TeamBPlayers:   playerIDs(row.TeamBPlayers),
		PotTotal:       uint64(row.PotTotal),
		Outcome:        lobby.Outcome(row.Outcome),
		ClosedAt:       accrual.Timestamp(row.ClosedAt),
		Version:        uint64(row.Version),
	}
}

func playerArray(items []contest.PlayerID) pq.StringArray {
	out := make(pq.StringArray, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

func playerIDs(items pq.StringArray) []contest.PlayerID {
	out := make([]contest.PlayerID, 0, len(items))
	for _, item := range items {
		out = append(out, contest.PlayerID(item))
	}
	return out
}
