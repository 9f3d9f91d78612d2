package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strconv"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// numeric maps a uint64 onto a NUMERIC(20,0) column. database/sql refuses
// uint64 values with the high bit set, so values travel as decimal text.
type numeric uint64

func (n numeric) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(n), 10), nil
}

func (n *numeric) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = 0
		return nil
	case int64:
		if v < 0 {
			return crerr.Newf("negative numeric value %d", v)
		}
		*n = numeric(v)
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return crerr.Newf("unsupported numeric source %T", src)
	}
}

func (n *numeric) parse(raw string) error {
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return crerr.Wrapf(contest.ErrOverflow, "parse numeric %q: %v", raw, err)
	}
	*n = numeric(value)
	return nil
}

// requireAdvanced turns a config upsert that touched no row into ErrStaleEvent.
func requireAdvanced(res sql.Result, objectID contest.ObjectID, epoch contest.Epoch, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return crerr.Wrapf(err, "rows affected for %s config %s", what, objectID)
	}
	if affected == 0 {
		return crerr.Wrapf(contest.ErrStaleEvent, "%s %s epoch %d does not follow the stored one", what, objectID, epoch)
	}
	return nil
}

// statusWrite describes one versioned status upsert. The upsert must carry
// version = read+1 and only overwrite a row whose version is read.
type statusWrite struct {
	what  string
	table string
	key   contest.RecordKey
	read  uint64
	// configTable holds the current epoch of the object. Empty skips the fence.
	configTable string
	// sealColumn is a boolean column that makes a row final, or FALSE.
	sealColumn string
	// held is reported when a skipped row matches on version and seal.
	held error
}

// storedGuard is the part of a status row that decides whether an upsert may
// overwrite it.
type storedGuard struct {
	Version numeric `db:"version"`
	Sealed  bool    `db:"sealed"`
}

// saveStatus runs the upsert in a transaction that holds the config row FOR
// SHARE, so a config replacement waits until the status write commits.
func saveStatus(ctx context.Context, db *sqlx.DB, w statusWrite, query string, args []any) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrapf(err, "begin %s write %s", w.what, w.key)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if w.configTable != "" {
		if err := lockEpoch(ctx, tx, w.configTable, w.key); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "save %s %s", w.what, w.key)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return crerr.Wrapf(err, "rows affected for %s %s", w.what, w.key)
	}
	if affected == 0 {
		var guard storedGuard
		query := "SELECT version, " + w.sealColumn + " AS sealed FROM " + w.table + " WHERE object_id = $1 AND epoch_start = $2"
		if err := tx.GetContext(ctx, &guard, query, string(w.key.ObjectID), numeric(w.key.Epoch)); err != nil {
			if isNotFound(err) {
				return crerr.Wrapf(contest.ErrConflict, "%s %s", w.what, w.key)
			}
			return crerr.Wrapf(err, "read skipped %s %s", w.what, w.key)
		}
		return skipReason(guard, w)
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrapf(err, "commit %s %s", w.what, w.key)
	}
	return nil
}

// lockEpoch compares key against the configured epoch. An object without a
// config is not fenced.
func lockEpoch(ctx context.Context, tx *sqlx.Tx, configTable string, key contest.RecordKey) error {
	var current numeric
	query := "SELECT epoch_start FROM " + configTable + " WHERE object_id = $1 FOR SHARE"
	if err := tx.GetContext(ctx, &current, query, string(key.ObjectID)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return crerr.Wrapf(err, "lock %s epoch for %s", configTable, key)
	}
	return contest.CheckEpoch(key, accrual.Timestamp(current))
}

// skipReason names the guard that kept an upsert from touching its row.
func skipReason(guard storedGuard, w statusWrite) error {
	if guard.Sealed {
		return crerr.Wrapf(contest.ErrAlreadyClaimed, "%s %s", w.what, w.key)
	}
	if err := contest.CheckVersion(w.key, uint64(guard.Version), w.read); err != nil {
		return crerr.Wrapf(err, "%s", w.what)
	}
	return crerr.Wrapf(w.held, "%s %s", w.what, w.key)
}
