package payout

import (
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

type Source string

const (
	SourceHill  Source = "hill"
	SourceLobby Source = "lobby"
)

// Intent is a disbursement the external ledger must perform. Engines only
// produce intents; moving items is never done in-process.
type Intent struct {
	ID          string
	Source      Source
	ObjectID    contest.ObjectID
	Epoch       contest.Epoch
	Recipient   contest.PlayerID
	TriggeredBy contest.PlayerID
	ItemID      contest.ItemID
	Amount      uint64
	CreatedAt   time.Time
}

// Key is the record that produced the intent. At most one intent exists per key.
func (i Intent) Key() contest.RecordKey {
	return contest.RecordKey{ObjectID: i.ObjectID, Epoch: i.Epoch}
}
