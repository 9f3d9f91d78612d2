package postgres

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	qb "github.com/riskibarqy/contested-territory/internal/platform/querybuilder"
)

type HillRepository struct {
	db *sqlx.DB
}

func NewHillRepository(db *sqlx.DB) *HillRepository {
	return &HillRepository{db: db}
}

func (r *HillRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (hill.Config, bool, error) {
	query, args, err := qb.Select(hillConfigColumns...).From("hill_configs").
		Where(qb.Eq("object_id", string(objectID))).
		ToSQL()
	if err != nil {
		return hill.Config{}, false, crerr.Wrap(err, "build get hill config query")
	}

	var row hillConfigTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return hill.Config{}, false, nil
		}
		return hill.Config{}, false, crerr.Wrapf(err, "get hill config %s", objectID)
	}

	return hill.Config{
		ObjectID:              contest.ObjectID(row.ObjectID),
		Duration:              accrual.Duration(row.Duration),
		RequiredItemID:        contest.ItemID(row.RequiredItemID),
		RequiredItemIncrement: uint64(row.RequiredItemIncrement),
		EpochStart:            accrual.Timestamp(row.EpochStart),
	}, true, nil
}

func (r *HillRepository) UpsertConfig(ctx context.Context, cfg hill.Config) error {
	model := hillConfigTableModel{
		ObjectID:              string(cfg.ObjectID),
		Duration:              numeric(cfg.Duration),
		RequiredItemID:        string(cfg.RequiredItemID),
		RequiredItemIncrement: numeric(cfg.RequiredItemIncrement),
		EpochStart:            numeric(cfg.EpochStart),
	}

	query, args, err := qb.InsertModel("hill_configs", model, `ON CONFLICT (object_id)
DO UPDATE SET
	duration = EXCLUDED.duration,
	required_item_id = EXCLUDED.required_item_id,
	required_item_increment = EXCLUDED.required_item_increment,
	epoch_start = EXCLUDED.epoch_start,
	updated_at = NOW()
WHERE hill_configs.epoch_start < EXCLUDED.epoch_start`)
	if err != nil {
		return crerr.Wrap(err, "build upsert hill config query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "upsert hill config %s", cfg.ObjectID)
	}
	return requireAdvanced(res, cfg.ObjectID, cfg.EpochStart, "hill")
}

func (r *HillRepository) GetStatus(ctx context.Context, key contest.RecordKey) (hill.Status, bool, error) {
	query, args, err := qb.Select(hillStatusColumns...).From("hill_statuses").
		Where(
			qb.Eq("object_id", string(key.ObjectID)),
			qb.Eq("epoch_start", numeric(key.Epoch)),
		).
		ToSQL()
	if err != nil {
		return hill.Status{}, false, crerr.Wrap(err, "build get hill status query")
	}

	var row hillStatusTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return hill.Status{}, false, nil
		}
		return hill.Status{}, false, crerr.Wrapf(err, "get hill status %s", key)
	}

	return hillStatusFromRow(row), true, nil
}

// SaveStatus upserts the status when the stored row is unclaimed, still at
// status.Version and in the configured epoch.
func (r *HillRepository) SaveStatus(ctx context.Context, status hill.Status) error {
	model := hillStatusTableModel{
		ObjectID:       string(status.ObjectID),
		EpochStart:     numeric(status.EpochStart),
		Holder:         string(status.Holder),
		ClaimStartTime: numeric(status.ClaimStartTime),
		LastClaimTime:  numeric(status.LastClaimTime),
		PotTotal:       numeric(status.PotTotal),
		Claimed:        status.Claimed,
		Version:        numeric(status.Version + 1),
	}

	query, args, err := qb.InsertModel("hill_statuses", model, `ON CONFLICT (object_id, epoch_start)
DO UPDATE SET
	holder = EXCLUDED.holder,
	claim_start_time = EXCLUDED.claim_start_time,
	last_claim_time = EXCLUDED.last_claim_time,
	pot_total = EXCLUDED.pot_total,
	claimed = EXCLUDED.claimed,
	version = EXCLUDED.version,
	updated_at = NOW()
WHERE hill_statuses.claimed = FALSE AND hill_statuses.version = EXCLUDED.version - 1`)
	if err != nil {
		return crerr.Wrap(err, "build save hill status query")
	}

	return saveStatus(ctx, r.db, statusWrite{
		what:        "hill",
		table:       "hill_statuses",
		key:         status.Key(),
		read:        status.Version,
		configTable: "hill_configs",
		sealColumn:  "claimed",
		held:        contest.ErrConflict,
	}, query, args)
}

func (r *HillRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]hill.Status, error) {
	query, args, err := qb.Select(hillStatusColumns...).From("hill_statuses").
		Where(qb.Eq("object_id", string(objectID))).
		OrderBy("epoch_start DESC").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list hill statuses query")
	}

	var rows []hillStatusTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list hill statuses %s", objectID)
	}

	out := make([]hill.Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, hillStatusFromRow(row))
	}
	return out, nil
}

func hillStatusFromRow(row hillStatusTableModel) hill.Status {
	return hill.Status{
		ObjectID:       contest.ObjectID(row.ObjectID),
		EpochStart:     accrual.Timestamp(row.EpochStart),
		Holder:         contest.PlayerID(row.Holder),
		ClaimStartTime: accrual.Timestamp(row.ClaimStartTime),
		LastClaimTime:  accrual.Timestamp(row.LastClaimTime),
		PotTotal:       uint64(row.PotTotal),
		Claimed:        row.Claimed,
		Version:        uint64(row.Version),
	}
}
