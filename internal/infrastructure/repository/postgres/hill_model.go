package postgres

type hillConfigTableModel struct {
	ObjectID              string  `db:"object_id"`
	Duration              numeric `db:"duration"`
	RequiredItemID        string  `db:"required_item_id"`
	RequiredItemIncrement numeric `db:"required_item_increment"`
	EpochStart            numeric `db:"epoch_start"`
}

type hillStatusTableModel struct {
	ObjectID       string  `db:"object_id"`
	EpochStart     numeric `db:"epoch_start"`
	Holder         string  `db:"holder"`
	ClaimStartTime numeric `db:"claim_start_time"`
	LastClaimTime  numeric `db:"last_claim_time"`
	PotTotal       numeric `db:"pot_total"`
	Claimed        bool    `db:"claimed"`
	Version        numeric `db:"version"`
}

var (
	hillConfigColumns = []string{"object_id", "duration", "required_item_id", "required_item_increment", "epoch_start"}
	hillStatusColumns = []string{"object_id", "epoch_start", "holder", "claim_start_time", "last_claim_time", "pot_total", "claimed", "version"}
)
