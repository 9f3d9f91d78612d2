package replay

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

// Report is the deterministic end state of a replay. Payout creation times
// are left out since they come from the wall clock.
type Report struct {
	Now     uint64          `json:"now"`
	Events  []Outcome       `json:"events,omitempty"`
	Hills   []HillSummary   `json:"hills"`
	Lobbies []LobbySummary  `json:"lobbies"`
	Payouts []PayoutSummary `json:"payouts"`
}

type HillSummary struct {
	ObjectID       string `json:"object_id"`
	Epoch          uint64 `json:"epoch"`
	State          string `json:"state"`
	Holder         string `json:"holder,omitempty"`
	ClaimStartTime uint64 `json:"claim_start_time"`
	ExpiresAt      uint64 `json:"expires_at,omitempty"`
	PotTotal       uint64 `json:"pot_total"`
	Claimed        bool   `json:"claimed"`
}

type LobbySummary struct {
	ObjectID  string         `json:"object_id"`
	Epoch     uint64         `json:"epoch"`
	Phase     string         `json:"phase"`
	TeamA     []string       `json:"team_a"`
	TeamB     []string       `json:"team_b"`
	TeamATime uint64         `json:"team_a_time"`
	TeamBTime uint64         `json:"team_b_time"`
	Outcome   string         `json:"outcome,omitempty"`
	ClaimedBy string         `json:"claimed_by,omitempty"`
	PotTotal  uint64         `json:"pot_total"`
	Points    []PointSummary `json:"points"`
}

type PointSummary struct {
	PointID     string `json:"point_id"`
	Controller  string `json:"controller"`
	TeamATime   uint64 `json:"team_a_time"`
	TeamBTime   uint64 `json:"team_b_time"`
	NeutralTime uint64 `json:"neutral_time"`
}

type PayoutSummary struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	ObjectID  string `json:"object_id"`
	Epoch     uint64 `json:"epoch"`
	Recipient string `json:"recipient"`
	ItemID    string `json:"item_id"`
	Amount    uint64 `json:"amount"`
}

func hillSummary(view usecase.HillView) HillSummary {
	return HillSummary{
		ObjectID:       string(view.Status.ObjectID),
		Epoch:          uint64(view.Status.EpochStart),
		State:          string(view.State),
		Holder:         string(view.Status.Holder),
		ClaimStartTime: uint64(view.Status.ClaimStartTime),
		ExpiresAt:      uint64(view.ExpiresAt),
		PotTotal:       view.Status.PotTotal,
		Claimed:        view.Status.Claimed,
	}
}

// lobbySummary reports live totals so an active match shows its standing at
// the replay's final timestamp.
func lobbySummary(view usecase.LobbyView) LobbySummary {
	summary := LobbySummary{
		ObjectID:  string(view.Status.ObjectID),
		Epoch:     uint64(view.Status.EpochStart),
		Phase:     string(view.Status.Phase),
		TeamATime: uint64(view.LiveTeamA),
		TeamBTime: uint64(view.LiveTeamB),
		Outcome:   string(view.Status.Outcome),
		ClaimedBy: string(view.Status.ClaimedBy),
		PotTotal:  view.Status.PotTotal,
	}
	for _, p := range view.Status.TeamAPlayers {
		summary.TeamA = append(summary.TeamA, string(p))
	}
	for _, p := range view.Status.TeamBPlayers {
		summary.TeamB = append(summary.TeamB, string(p))
	}
	return summary
}

func pointSummary(view usecase.PointView) PointSummary {
	return PointSummary{
		PointID:     string(view.Status.ObjectID),
		Controller:  string(view.Totals.Controller),
		TeamATime:   uint64(view.Totals.TeamATime),
		TeamBTime:   uint64(view.Totals.TeamBTime),
		NeutralTime: uint64(view.Totals.NeutralTime),
	}
}

func payoutSummary(intent payout.Intent) PayoutSummary {
	return PayoutSummary{
		ID:        intent.ID,
		Source:    string(intent.Source),
		ObjectID:  string(intent.ObjectID),
		Epoch:     uint64(intent.Epoch),
		Recipient: string(intent.Recipient),
		ItemID:    string(intent.ItemID),
		Amount:    intent.Amount,
	}
}

// WriteJSON renders the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	out, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// WriteText renders a compact human readable summary.
func (r Report) WriteText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("replayed to t=%d\n", r.Now)
	for _, ev := range r.Events {
		if ev.Error != "" {
			printf("  rejected #%d %s t=%d %s: %s\n", ev.Index, ev.Type, ev.T, ev.ObjectID, ev.Error)
		}
	}
	for _, h := range r.Hills {
		printf("hill %s epoch=%d state=%s holder=%s pot=%d claimed=%t\n",
			h.ObjectID, h.Epoch, h.State, h.Holder, h.PotTotal, h.Claimed)
	}
	for _, l := range r.Lobbies {
		printf("lobby %s epoch=%d phase=%s a=%d b=%d outcome=%s claimed_by=%s\n",
			l.ObjectID, l.Epoch, l.Phase, l.TeamATime, l.TeamBTime, l.Outcome, l.ClaimedBy)
		for _, p := range l.Points {
			printf("  point %s controller=%s a=%d b=%d neutral=%d\n",
				p.PointID, p.Controller, p.TeamATime, p.TeamBTime, p.NeutralTime)
		}
	}
	for _, p := range r.Payouts {
		printf("payout %s %s/%s epoch=%d -> %s %d %s\n",
			p.ID, p.Source, p.ObjectID, p.Epoch, p.Recipient, p.Amount, p.ItemID)
	}
	return err
}
