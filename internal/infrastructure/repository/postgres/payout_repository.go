package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	qb "github.com/riskibarqy/contested-territory/internal/platform/querybuilder"
)

type payoutIntentTableModel struct {
	ID          string    `db:"id"`
	Source      string    `db:"source"`
	ObjectID    string    `db:"object_id"`
	EpochStart  numeric   `db:"epoch_start"`
	Recipient   string    `db:"recipient"`
	TriggeredBy string    `db:"triggered_by"`
	ItemID      string    `db:"item_id"`
	Amount      numeric   `db:"amount"`
	CreatedAt   time.Time `db:"created_at"`
}

var payoutIntentColumns = []string{
	"id", "source", "object_id", "epoch_start", "recipient", "triggered_by", "item_id", "amount", "created_at",
}

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Append(ctx context.Context, intent payout.Intent) error {
	model := payoutIntentTableModel{
		ID:          intent.ID,
		Source:      string(intent.Source),
		ObjectID:    string(intent.ObjectID),
		EpochStart:  numeric(intent.Epoch),
		Recipient:   string(intent.Recipient),
		TriggeredBy: string(intent.TriggeredBy),
		ItemID:      string(intent.ItemID),
		Amount:      numeric(intent.Amount),
		CreatedAt:   intent.CreatedAt,
	}

	query, args, err := qb.InsertModel("payout_intents", model, `ON CONFLICT (source, object_id, epoch_start) DO NOTHING`)
	if err != nil {
		return crerr.Wrap(err, "build append payout query")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "append payout %s", intent.ID)
	}
	return requireWritten(res, intent.Key(), "payout")
}

func (r *PayoutRepository) ListByObject(ctx context.Context, objectID contest.ObjectID) ([]payout.Intent, error) {
	query, args, err := qb.Select(payoutIntentColumns...).From("payout_intents").
		Where(qb.Eq("object_id", string(objectID))).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list payouts query")
	}

	var rows []payoutIntentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list payouts %s", objectID)
	}

	out := make([]payout.Intent, 0, len(rows))
	for _, row := range rows {
		out = append(out, payout.Intent{
			ID:          row.ID,
			Source:      payout.Source(row.Source),
			ObjectID:    contest.ObjectID(row.ObjectID),
			Epoch:       accrual.Timestamp(row.EpochStart),
			Recipient:   contest.PlayerID(row.Recipient),
			TriggeredBy: contest.PlayerID(row.TriggeredBy),
			ItemID:      contest.ItemID(row.ItemID),
			Amount:      uint64(row.Amount),
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}
