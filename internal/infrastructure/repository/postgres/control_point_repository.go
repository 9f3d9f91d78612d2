package postgres

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	qb "github.com/riskibarqy/contested-territory/internal/platform/querybuilder"
)

type ControlPointRepository struct {
	db *sqlx.DB
}

func NewControlPointRepository(db *sqlx.DB) *ControlPointRepository {
	return &ControlPointRepository{db: db}
}

func (r *ControlPointRepository) GetStatus(ctx context.Context, key contest.RecordKey) (controlpoint.Status, bool, error) {
	query, args, err := qb.Select(controlPointStatusColumns...).From("control_point_statuses").
		Where(
			qb.Eq("object_id", string(key.ObjectID)),
			qb.Eq("epoch_start", numeric(key.Epoch)),
		).
		ToSQL()
	if err != nil {
		return controlpoint.Status{}, false, crerr.Wrap(err, "build get control point query")
	}

	var row controlPointStatusTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return controlpoint.Status{}, false, nil
		}
		return controlpoint.Status{}, false, crerr.Wrapf(err, "get control point %s", key)
	}

	return controlPointFromRow(row), true, nil
}

// SaveStatus refuses to overwrite another version or to move
// last_change_time backwards.
func (r *ControlPointRepository) SaveStatus(ctx context.Context, status controlpoint.Status) error {
	model := controlPointStatusTableModel{
		ObjectID:        string(status.ObjectID),
		EpochStart:      numeric(status.EpochStart),
		MatchStartTime:  numeric(status.MatchStartTime),
		ControllingTeam: string(status.ControllingTeam),
		LastChangeTime:  numeric(status.LastChangeTime),
		TeamATime:       numeric(status.TeamATime),
		TeamBTime:       numeric(status.TeamBTime),
		NeutralTime:     numeric(status.NeutralTime),
		Version:         numeric(status.Version + 1),
	}

	query, args, err := qb.InsertModel("control_point_statuses", model, `ON CONFLICT (object_id, epoch_start)
DO UPDATE SET
	match_start_time = EXCLUDED.match_start_time,
	controlling_team = EXCLUDED.controlling_team,
	last_change_time = EXCLUDED.last_change_time,
	team_a_time = EXCLUDED.team_a_time,
	team_b_time = EXCLUDED.team_b_time,
	neutral_time = EXCLUDED.neutral_time,
	version = EXCLUDED.version,
	updated_at = NOW()
WHERE control_point_statuses.version = EXCLUDED.version - 1
	AND control_point_statuses.last_change_time <= EXCLUDED.last_change_time`)
	if err != nil {
		return crerr.Wrap(err, "build save control point query")
	}

	return saveStatus(ctx, r.db, statusWrite{
		what:       "control point",
		table:      "control_point_statuses",
		key:        status.Key(),
		read:       status.Version,
		sealColumn: "FALSE",
		held:       contest.ErrStaleEvent,
	}, query, args)
}

func (r *ControlPointRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]controlpoint.Status, error) {
	query, args, err := qb.Select(controlPointStatusColumns...).From("control_point_statuses").
		Where(qb.Eq("object_id", string(objectID))).
		OrderBy("epoch_start DESC").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list control points query")
	}

	var rows []controlPointStatusTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list control points %s", objectID)
	}

	out := make([]controlpoint.Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, controlPointFromRow(row))
	}
	return out, nil
}

func controlPointFromRow(row controlPointStatusTableModel) controlpoint.Status {
	return controlpoint.Status{
		ObjectID:        contest.ObjectID(row.ObjectID),
		EpochStart:      accrual.Timestamp(row.EpochStart),
		MatchStartTime:  accrual.Timestamp(row.MatchStartTime),
		ControllingTeam: controlpoint.Team(row.ControllingTeam),
		LastChangeTime:  accrual.Timestamp(row.LastChangeTime),
		TeamATime:       accrual.Duration(row.TeamATime),
		TeamBTime:       accrual.Duration(row.TeamBTime),
		NeutralTime:     accrual.Duration(row.NeutralTime),
		Version:         uint64(row.Version),
	}
}
