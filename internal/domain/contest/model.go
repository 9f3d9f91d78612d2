package contest

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
)

// ObjectID identifies a smart object (hill, lobby or control point).
type ObjectID string

// ItemID identifies an item kind accepted by a deposit gate.
type ItemID string

// PlayerID identifies a player account.
type PlayerID string

// Epoch is the epochStart timestamp of one reset-to-reset lifetime.
type Epoch = accrual.Timestamp

// RecordKey addresses a status record.
type RecordKey struct {
	ObjectID ObjectID
	Epoch    Epoch
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s@%d", k.ObjectID, k.Epoch)
}

func (id ObjectID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: object id is required", ErrInvalidRecord)
	}
	return nil
}

func (id PlayerID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: player id is required", ErrInvalidRecord)
	}
	return nil
}

func (id ItemID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: item id is required", ErrInvalidRecord)
	}
	return nil
}

// CheckVersion compares the version a writer read against the stored one. A
// record that was never stored has version 0.
func CheckVersion(key RecordKey, stored, read uint64) error {
	if stored != read {
		return fmt.Errorf("%w: %s is at version %d, write was based on %d", ErrConflict, key, stored, read)
	}
	return nil
}

// CheckEpoch rejects a write to any epoch but the configured one.
func CheckEpoch(key RecordKey, current Epoch) error {
	if key.Epoch != current {
		return fmt.Errorf("%w: %s, current epoch is %d", ErrEpochNotCurrent, key, current)
	}
	return nil
}
