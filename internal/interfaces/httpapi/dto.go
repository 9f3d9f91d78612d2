package httpapi

import (
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

type depositRequest struct {
	ProofID  string `json:"proof_id" validate:"required"`
	ItemID   string `json:"item_id" validate:"required"`
	Quantity uint64 `json:"quantity" validate:"gt=0"`
}

func (r depositRequest) input() usecase.DepositInput {
	return usecase.DepositInput{ProofID: r.ProofID, ItemID: r.ItemID, Quantity: r.Quantity}
}

type configureHillRequest struct {
	Duration              uint64 `json:"duration" validate:"gt=0"`
	RequiredItemID        string `json:"required_item_id" validate:"required"`
	RequiredItemIncrement uint64 `json:"required_item_increment" validate:"gt=0"`
	EpochStart            uint64 `json:"epoch_start"`
}

type hillClaimRequest struct {
	Actor   string         `json:"actor" validate:"required"`
	Deposit depositRequest `json:"deposit"`
}

type actorRequest struct {
	Actor string `json:"actor" validate:"required"`
}

type configureLobbyRequest struct {
	Duration                 uint64   `json:"duration" validate:"gt=0"`
	RequiredPlayerCount      uint64   `json:"required_player_count" validate:"gte=2"`
	RequiredItemID           string   `json:"required_item_id" validate:"required"`
	RequiredItemQuantity     uint64   `json:"required_item_quantity"`
	RequiredControlDepositID string   `json:"required_control_deposit_id" validate:"required"`
	ControlPointIDs          []string `json:"control_point_ids" validate:"required,min=1,dive,required"`
	EpochStart               uint64   `json:"epoch_start"`
}

type startLobbyRequest struct {
	Roster  []string       `json:"roster" validate:"required,min=2,dive,required"`
	Deposit depositRequest `json:"deposit"`
}

type changeControlRequest struct {
	Team string `json:"team" validate:"required,oneof=a b none"`
}

type hillConfigDTO struct {
	ObjectID              string `json:"object_id"`
	Duration              uint64 `json:"duration"`
	RequiredItemID        string `json:"required_item_id"`
	RequiredItemIncrement uint64 `json:"required_item_increment"`
	EpochStart            uint64 `json:"epoch_start"`
}

type hillStatusDTO struct {
	ObjectID       string `json:"object_id"`
	EpochStart     uint64 `json:"epoch_start"`
	Holder         string `json:"holder,omitempty"`
	ClaimStartTime uint64 `json:"claim_start_time"`
	LastClaimTime  uint64 `json:"last_claim_time"`
	PotTotal       uint64 `json:"pot_total"`
	Claimed        bool   `json:"claimed"`
}

type hillViewDTO struct {
	Config    hillConfigDTO `json:"config"`
	Status    hillStatusDTO `json:"status"`
	State     string        `json:"state"`
	Now       uint64        `json:"now"`
	ExpiresAt uint64        `json:"expires_at,omitempty"`
}

type hillResultDTO struct {
	Config hillConfigDTO `json:"config"`
	Status hillStatusDTO `json:"status"`
	State  string        `json:"state"`
	Payout *payoutDTO    `json:"payout,omitempty"`
}

type lobbyConfigDTO struct {
	ObjectID                 string   `json:"object_id"`
	Duration                 uint64   `json:"duration"`
	RequiredPlayerCount      uint64   `json:"required_player_count"`
	RequiredItemID           string   `json:"required_item_id"`
	RequiredItemQuantity     uint64   `json:"required_item_quantity"`
	RequiredControlDepositID string   `json:"required_control_deposit_id"`
	ControlPointIDs          []string `json:"control_point_ids"`
	EpochStart               uint64   `json:"epoch_start"`
}

type lobbyStatusDTO struct {
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
	ClosedAt       uint64   `json:"closed_at,omitempty"`
}

type lobbyViewDTO struct {
	Config       lobbyConfigDTO `json:"config"`
	Status       lobbyStatusDTO `json:"status"`
	Now          uint64         `json:"now"`
	LiveTeamA    uint64         `json:"live_team_a"`
	LiveTeamB    uint64         `json:"live_team_b"`
	MatchEndTime uint64         `json:"match_end_time,omitempty"`
}

type lobbyResultDTO struct {
	Config lobbyConfigDTO `json:"config"`
	Status lobbyStatusDTO `json:"status"`
	Payout *payoutDTO     `json:"payout,omitempty"`
}

type pointStatusDTO struct {
	ObjectID        string `json:"object_id"`
	EpochStart      uint64 `json:"epoch_start"`
	MatchStartTime  uint64 `json:"match_start_time"`
	ControllingTeam string `json:"controlling_team"`
	LastChangeTime  uint64 `json:"last_change_time"`
	TeamATime       uint64 `json:"team_a_time"`
	TeamBTime       uint64 `json:"team_b_time"`
	NeutralTime     uint64 `json:"neutral_time"`
}

type pointTotalsDTO struct {
	At          uint64 `json:"at"`
	Controller  string `json:"controller"`
	TeamATime   uint64 `json:"team_a_time"`
	TeamBTime   uint64 `json:"team_b_time"`
	NeutralTime uint64 `json:"neutral_time"`
}

type pointViewDTO struct {
	Status pointStatusDTO `json:"status"`
	Totals pointTotalsDTO `json:"totals"`
}

type payoutDTO struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ObjectID    string    `json:"object_id"`
	Epoch       uint64    `json:"epoch"`
	Recipient   string    `json:"recipient"`
	TriggeredBy string    `json:"triggered_by"`
	ItemID      string    `json:"item_id"`
	Amount      uint64    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func hillConfigToDTO(cfg hill.Config) hillConfigDTO {
	return hillConfigDTO{
		ObjectID:              string(cfg.ObjectID),
		Duration:              uint64(cfg.Duration),
		RequiredItemID:        string(cfg.RequiredItemID),
		RequiredItemIncrement: cfg.RequiredItemIncrement,
		EpochStart:            uint64(cfg.EpochStart),
	}
}

func hillStatusToDTO(status hill.Status) hillStatusDTO {
	return hillStatusDTO{
		ObjectID:       string(status.ObjectID),
		EpochStart:     uint64(status.EpochStart),
		Holder:         string(status.Holder),
		ClaimStartTime: uint64(status.ClaimStartTime),
		LastClaimTime:  uint64(status.LastClaimTime),
		PotTotal:       status.PotTotal,
		Claimed:        status.Claimed,
	}
}

func hillResultToDTO(result usecase.HillResult) hillResultDTO {
	return hillResultDTO{
		Config: hillConfigToDTO(result.Config),
		Status: hillStatusToDTO(result.Status),
		State:  string(result.State),
		Payout: payoutPtrToDTO(result.Payout),
	}
}

func lobbyConfigToDTO(cfg lobby.Config) lobbyConfigDTO {
	points := make([]string, 0, len(cfg.ControlPointIDs))
	for _, id := range cfg.ControlPointIDs {
		points = append(points, string(id))
	}
	return lobbyConfigDTO{
		ObjectID:                 string(cfg.ObjectID),
		Duration:                 uint64(cfg.Duration),
		RequiredPlayerCount:      cfg.RequiredPlayerCount,
		RequiredItemID:           string(cfg.RequiredItemID),
		RequiredItemQuantity:     cfg.RequiredItemQuantity,
		RequiredControlDepositID: string(cfg.RequiredControlDepositID),
		ControlPointIDs:          points,
		EpochStart:               uint64(cfg.EpochStart),
	}
}

func lobbyStatusToDTO(status lobby.Status) lobbyStatusDTO {
	return lobbyStatusDTO{
		ObjectID:       string(status.ObjectID),
		EpochStart:     uint64(status.EpochStart),
		Phase:          string(status.Phase),
		MatchStartTime: uint64(status.MatchStartTime),
		TeamATotalTime: uint64(status.TeamATotalTime),
		TeamBTotalTime: uint64(status.TeamBTotalTime),
		Claimed:        status.Claimed,
		ClaimedBy:      string(status.ClaimedBy),
		IsActive:       status.IsActive,
		TeamAPlayers:   playersToStrings(status.TeamAPlayers),
		TeamBPlayers:   playersToStrings(status.TeamBPlayers),
		PotTotal:       status.PotTotal,
		Outcome:        string(status.Outcome),
		ClosedAt:       uint64(status.ClosedAt),
	}
}

func lobbyResultToDTO(result usecase.LobbyResult) lobbyResultDTO {
	return lobbyResultDTO{
		Config: lobbyConfigToDTO(result.Config),
		Status: lobbyStatusToDTO(result.Status),
		Payout: payoutPtrToDTO(result.Payout),
	}
}

func pointStatusToDTO(status controlpoint.Status) pointStatusDTO {
	return pointStatusDTO{
		ObjectID:        string(status.ObjectID),
		EpochStart:      uint64(status.EpochStart),
		MatchStartTime:  uint64(status.MatchStartTime),
		ControllingTeam: string(status.ControllingTeam),
		LastChangeTime:  uint64(status.LastChangeTime),
		TeamATime:       uint64(status.TeamATime),
		TeamBTime:       uint64(status.TeamBTime),
		NeutralTime:     uint64(status.NeutralTime),
	}
}

func pointTotalsToDTO(totals controlpoint.Totals) pointTotalsDTO {
	return pointTotalsDTO{
		At:          uint64(totals.At),
		Controller:  string(totals.Controller),
		TeamATime:   uint64(totals.TeamATime),
		TeamBTime:   uint64(totals.TeamBTime),
		NeutralTime: uint64(totals.NeutralTime),
	}
}

func payoutToDTO(intent payout.Intent) payoutDTO {
	return payoutDTO{
		ID:          intent.ID,
		Source:      string(intent.Source),
		ObjectID:    string(intent.ObjectID),
		Epoch:       uint64(intent.Epoch),
		Recipient:   string(intent.Recipient),
		TriggeredBy: string(intent.TriggeredBy),
		ItemID:      string(intent.ItemID),
		Amount:      intent.Amount,
		CreatedAt:   intent.CreatedAt,
	}
}

func payoutPtrToDTO(intent *payout.Intent) *payoutDTO {
	if intent == nil {
		return nil
	}
	dto := payoutToDTO(*intent)
	return &dto
}

func playersToStrings(players []contest.PlayerID) []string {
	out := make([]string, 0, len(players))
	for _, player := range players {
		out = append(out, string(player))
	}
	return out
}
