package redis

import (
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

type hillConfigRecord struct {
	ObjectID              string `json:"object_id"`
	Duration              uint64 `json:"duration"`
	RequiredItemID        string `json:"required_item_id"`
	RequiredItemIncrement uint64 `json:"required_item_increment"`
	EpochStart            uint64 `json:"epoch_start"`
}

// configEpochRecord reads only the epoch out of a hill or lobby config.
type configEpochRecord struct {
	EpochStart uint64 `json:"epoch_start"`
}

type hillStatusRecord struct {
	ObjectID       string `json:"object_id"`
	EpochStart     uint64 `json:"epoch_start"`
	Holder         string `json:"holder,omitempty"`
	ClaimStartTime uint64 `json:"claim_start_time"`
	LastClaimTime  uint64 `json:"last_claim_time"`
	PotTotal       uint64 `json:"pot_total"`
	Claimed        bool   `json:"claimed"`
	Version        uint64 `json:"version"`
}

type lobbyConfigRecord struct {
	ObjectID                 string   `json:"object_id"`
	Duration                 uint64   `json:"duration"`
	RequiredPlayerCount      uint64   `json:"required_player_count"`
	RequiredItemID           string   `json:"required_item_id"`
	RequiredItemQuantity     uint64   `json:"required_item_quantity"`
	RequiredControlDepositID string   `json:"required_control_deposit_id"`
	EpochStart               uint64   `json:"epoch_start"`
	ControlPointIDs          []string `json:"control_point_ids"`
}

type lobbyStatusRecord struct {
	ObjectID       string   `json:"object_id"`
	EpochStart     uint64   `json:"epoch_start"`
	Phase          string   `json:"phase"`
	MatchStartTime uint64   `json:"match_start_time"`
	TeamATotalTime uint64   `json:"team_a_total_time"`
	TeamBTotalTime uint64   `json:"team_b_total_time"`
	Claimed        bool     `json:"claimed"`
	ClaimedBy      string   `json:"claimed_by,omitempty"`
	IsActive       bool     `json:"is_active"`
	TeamAPlayers   []string `json:"team_a_players"`
	TeamBPlayers   []string `json:"team_b_players"`
	PotTotal       uint64   `json:"pot_total"`
	Outcome        string   `json:"outcome,omitempty"`
	ClosedAt       uint64   `json:"closed_at"`
	Version        uint64   `json:"version"`
}

type controlPointRecord struct {
	ObjectID        string `json:"object_id"`
	EpochStart      uint64 `json:"epoch_start"`
	MatchStartTime  uint64 `json:"match_start_time"`
	ControllingTeam string `json:"controlling_team"`
	LastChangeTime  uint64 `json:"last_change_time"`
	TeamATime       uint64 `json:"team_a_time"`
	TeamBTime       uint64 `json:"team_b_time"`
	NeutralTime     uint64 `json:"neutral_time"`
	Version         uint64 `json:"version"`
}

type payoutRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	ObjectID    string `json:"object_id"`
	EpochStart  uint64 `json:"epoch_start"`
	Recipient   string `json:"recipient"`
	TriggeredBy string `json:"triggered_by"`
	ItemID      string `json:"item_id"`
	Amount      uint64 `json:"amount"`
	// CreatedAt is unix nanoseconds.
	CreatedAt int64 `json:"created_at"`
}

func encode(v any) ([]byte, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, crerr.Wrap(err, "encode redis record")
	}
	return raw, nil
}

func decode(raw []byte, v any) error {
	if err := sonic.Unmarshal(raw, v); err != nil {
		return crerr.Wrap(err, "decode redis record")
	}
	return nil
}

func hillConfigToRecord(cfg hill.Config) hillConfigRecord {
	return hillConfigRecord{
		ObjectID:              string(cfg.ObjectID),
		Duration:              uint64(cfg.Duration),
		RequiredItemID:        string(cfg.RequiredItemID),
		RequiredItemIncrement: cfg.RequiredItemIncrement,
		EpochStart:            uint64(cfg.EpochStart),
	}
}

func (r hillConfigRecord) domain() hill.Config {
	return hill.Config{
		ObjectID:              contest.ObjectID(r.ObjectID),
		Duration:              accrual.Duration(r.Duration),
		RequiredItemID:        contest.ItemID(r.RequiredItemID),
		RequiredItemIncrement: r.RequiredItemIncrement,
		EpochStart:            accrual.Timestamp(r.EpochStart),
	}
}

func hillStatusToRecord(status hill.Status) hillStatusRecord {
	return hillStatusRecord{
		ObjectID:       string(status.ObjectID),
		EpochStart:     uint64(status.EpochStart),
		Holder:         string(status.Holder),
		ClaimStartTime: uint64(status.ClaimStartTime),
		LastClaimTime:  uint64(status.LastClaimTime),
		PotTotal:       status.PotTotal,
		Claimed:        status.Claimed,
		Version:        status.Version,
	}
}

func (r hillStatusRecord) domain() hill.Status {
	return hill.Status{
		ObjectID:       contest.ObjectID(r.ObjectID),
		EpochStart:     accrual.Timestamp(r.EpochStart),
		Holder:         contest.PlayerID(r.Holder),
		ClaimStartTime: accrual.Timestamp(r.ClaimStartTime),
		LastClaimTime:  accrual.Timestamp(r.LastClaimTime),
		PotTotal:       r.PotTotal,
		Claimed:        r.Claimed,
		Version:        r.Version,
	}
}

func lobbyConfigToRecord(cfg lobby.Config) lobbyConfigRecord {
	pointIDs := make([]string, 0, len(cfg.ControlPointIDs))
	for _, pointID := range cfg.ControlPointIDs {
		pointIDs = append(pointIDs, string(pointID))
	}
	return lobbyConfigRecord{
		ObjectID:                 string(cfg.ObjectID),
		Duration:                 uint64(cfg.Duration),
		RequiredPlayerCount:      cfg.RequiredPlayerCount,
		RequiredItemID:           string(cfg.RequiredItemID),
		RequiredItemQuantity:     cfg.RequiredItemQuantity,
		RequiredControlDepositID: string(cfg.RequiredControlDepositID),
		EpochStart:               uint64(cfg.EpochStart),
		ControlPointIDs:          pointIDs,
	}
}

func (r lobbyConfigRecord) domain() lobby.Config {
	pointIDs := make([]contest.ObjectID, 0, len(r.ControlPointIDs))
	for _, pointID := range r.ControlPointIDs {
		pointIDs = append(pointIDs, contest.ObjectID(pointID))
	}
	return lobby.Config{
		ObjectID:                 contest.ObjectID(r.ObjectID),
		Duration:                 accrual.Duration(r.Duration),
		RequiredPlayerCount:      r.RequiredPlayerCount,
		RequiredItemID:           contest.ItemID(r.RequiredItemID),
		RequiredItemQuantity:     r.RequiredItemQuantity,
		RequiredControlDepositID: contest.ItemID(r.RequiredControlDepositID),
		EpochStart:               accrual.Timestamp(r.EpochStart),
		ControlPointIDs:          pointIDs,
	}
}

func lobbyStatusToRecord(status lobby.Status) lobbyStatusRecord {
	return lobbyStatusRecord{
		ObjectID:       string(status.ObjectID),
		EpochStart:     uint64(status.EpochStart),
		Phase:          string(status.Phase),
		MatchStartTime: uint64(status.MatchStartTime),
		TeamATotalTime: uint64(status.TeamATotalTime),
		TeamBTotalTime: uint64(status.TeamBTotalTime),
		Claimed:        status.Claimed,
		ClaimedBy:      string(status.ClaimedBy),
		IsActive:       status.IsActive,
		TeamAPlayers:   playerStrings(status.TeamAPlayers),
		TeamBPlayers:   playerStrings(status.TeamBPlayers),
		PotTotal:       status.PotTotal,
		Outcome:        string(status.Outcome),
		ClosedAt:       uint64(status.ClosedAt),
		Version:        status.Version,
	}
}

func (r lobbyStatusRecord) domain() lobby.Status {
	return lobby.Status{
		ObjectID:       contest.ObjectID(r.ObjectID),
		EpochStart:     accrual.Timestamp(r.EpochStart),
		Phase:          lobby.Phase(r.Phase),
		MatchStartTime: accrual.Timestamp(r.MatchStartTime),
		TeamATotalTime: accrual.Duration(r.TeamATotalTime),
		TeamBTotalTime: accrual.Duration(r.TeamBTotalTime),
		Claimed:        r.Claimed,
		ClaimedBy:      contest.PlayerID(r.ClaimedBy),
		IsActive:       r.IsActive,
		TeamAPlayers:   playerIDs(r.TeamAPlayers),
		TeamBPlayers:   playerIDs(r.TeamBPlayers),
		PotTotal:       r.PotTotal,
		Outcome:        lobby.Outcome(r.Outcome),
		ClosedAt:       accrual.Timestamp(r.ClosedAt),
		Version:        r.Version,
	}
}

func controlPointToRecord(status controlpoint.Status) controlPointRecord {
	return controlPointRecord{
		ObjectID:        string(status.ObjectID),
		EpochStart:      uint64(status.EpochStart),
		MatchStartTime:  uint64(status.MatchStartTime),
		ControllingTeam: string(status.ControllingTeam),
		LastChangeTime:  uint64(status.LastChangeTime),
		TeamATime:       uint64(status.TeamATime),
		TeamBTime:       uint64(status.TeamBTime),
		NeutralTime:     uint64(status.NeutralTime),
		Version:         status.Version,
	}
}

func (r controlPointRecord) domain() controlpoint.Status {
	return controlpoint.Status{
		ObjectID:        contest.ObjectID(r.ObjectID),
		EpochStart:      accrual.Timestamp(r.EpochStart),
		MatchStartTime:  accrual.Timestamp(r.MatchStartTime),
		ControllingTeam: controlpoint.Team(r.ControllingTeam),
		LastChangeTime:  accrual.Timestamp(r.LastChangeTime),
		TeamATime:       accrual.Duration(r.TeamATime),
		TeamBTime:       accrual.Duration(r.TeamBTime),
		NeutralTime:     accrual.Duration(r.NeutralTime),
		Version:         r.Version,
	}
}

func payoutToRecord(intent payout.Intent) payoutRecord {
	return payoutRecord{
		ID:          intent.ID,
		Source:      string(intent.Source),
		ObjectID:    string(intent.ObjectID),
		EpochStart:  uint64(intent.Epoch),
		Recipient:   string(intent.Recipient),
		TriggeredBy: string(intent.TriggeredBy),
		ItemID:      string(intent.ItemID),
		Amount:      intent.Amount,
		CreatedAt:   intent.CreatedAt.UnixNano(),
	}
}

func playerStrings(items []contest.PlayerID) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

func playerIDs(items []string) []contest.PlayerID {
	out := make([]contest.PlayerID, 0, len(items))
	for _, item := range items {
		out = append(out, contest.PlayerID(item))
	}
	return out
}
