package postgres

import "github.com/lib/pq"

type lobbyConfigTableModel struct {
	ObjectID                 string         `db:"object_id"`
	Duration                 numeric        `db:"duration"`
	RequiredPlayerCount      numeric        `db:"required_player_count"`
	RequiredItemID           string         `db:"required_item_id"`
	RequiredItemQuantity     numeric        `db:"required_item_quantity"`
	RequiredControlDepositID string         `db:"required_control_deposit_id"`
	EpochStart               numeric        `db:"epoch_start"`
	ControlPointIDs          pq.StringArray `db:"control_point_ids"`
}

type lobbyStatusTableModel struct {
	ObjectID       string         `db:"object_id"`
	EpochStart     numeric        `db:"epoch_start"`
	Phase          string         `db:"phase"`
	MatchStartTime numeric        `db:"match_start_time"`
	TeamATotalTime numeric        `db:"team_a_total_time"`
	TeamBTotalTime numeric        `db:"team_b_total_time"`
	Claimed        bool           `db:"claimed"`
	ClaimedBy      string         `db:"claimed_by"`
	IsActive       bool           `db:"is_active"`
	TeamAPlayers   pq.StringArray `db:"team_a_players"`
	TeamBPlayers   pq.StringArray `db:"team_b_players"`
	PotTotal       numeric        `db:"pot_total"`
	Outcome        string         `db:"outcome"`
	ClosedAt       numeric        `db:"closed_at"`
	Version        numeric        `db:"version"`
}

type controlPointStatusTableModel struct {
	ObjectID        string  `db:"object_id"`
	EpochStart      numeric `db:"epoch_start"`
	MatchStartTime  numeric `db:"match_start_time"`
	ControllingTeam string  `db:"controlling_team"`
	LastChangeTime  numeric `db:"last_change_time"`
	TeamATime       numeric `db:"team_a_time"`
	TeamBTime       numeric `db:"team_b_time"`
	NeutralTime     numeric `db:"neutral_time"`
	Version         numeric `db:"version"`
}

var (
	lobbyConfigColumns = []string{
		"object_id", "duration", "required_player_count", "required_item_id",
		"required_item_quantity", "required_control_deposit_id", "epoch_start", "control_point_ids",
	}
	lobbyStatusColumns = []string{
		"object_id", "epoch_start", "phase", "match_start_time", "team_a_total_time", "team_b_total_time",
		"claimed", "claimed_by", "is_active", "team_a_players", "team_b_players", "pot_total", "outcome", "closed_at", "version",
	}
	controlPointStatusColumns = []string{
		"object_id", "epoch_start", "match_start_time", "controlling_team",
		"last_change_time", "team_a_time", "team_b_time", "neutral_time", "version",
	}
)
