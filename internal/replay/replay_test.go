package replay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/stretchr/testify/require"
)

const hillStream = `
# hill scenario
{"type":"hill.configure","t":1000,"object_id":"hill-1","duration":100,"required_item_id":"gold","required_item_increment":5}
{"type":"hill.claim","t":1000,"object_id":"hill-1","actor":"alice","deposit":{"proof_id":"p-1","item_id":"gold","quantity":5}}
{"type":"hill.resolve","t":1099,"object_id":"hill-1","actor":"alice"}
{"type":"hill.resolve","t":1100,"object_id":"hill-1","actor":"alice"}
`

const lobbyStream = `
{"type":"lobby.configure","t":1000,"object_id":"lobby-1","duration":1000,"required_player_count":2,"required_item_id":"gold","required_item_quantity":5,"required_control_deposit_id":"token","control_point_ids":["p1","p2"]}
{"type":"lobby.start","t":1000,"object_id":"lobby-1","roster":["alice","bob"],"deposit":{"proof_id":"c-1","item_id":"token","quantity":1}}
{"type":"point.control","t":1000,"object_id":"lobby-1","point_id":"p1","team":"a"}
{"type":"point.control","t":1000,"object_id":"lobby-1","point_id":"p2","team":"b"}
{"type":"point.control","t":1400,"object_id":"lobby-1","point_id":"p1","team":"b"}
{"type":"lobby.close","t":2000,"object_id":"lobby-1"}
{"type":"lobby.claim","t":2000,"object_id":"lobby-1","actor":"alice"}
{"type":"lobby.claim","t":2000,"object_id":"lobby-1","actor":"bob"}
`

func replayStream(t *testing.T, stream string) Report {
	t.Helper()

	events, err := Decode(strings.NewReader(stream))
	require.NoError(t, err)

	ctx := context.Background()
	runner := NewRunner(0, nil)
	outcomes, err := runner.Run(ctx, events, false)
	require.NoError(t, err)

	report, err := runner.Snapshot(ctx)
	require.NoError(t, err)
	report.Events = outcomes
	return report
}

func TestReplay_HillResolvesAtDuration(t *testing.T) {
	report := replayStream(t, hillStream)

	require.Len(t, report.Events, 4)
	require.Empty(t, report.Events[1].Error)
	require.Contains(t, report.Events[2].Error, "not expired")
	require.Empty(t, report.Events[3].Error)

	require.Len(t, report.Hills, 1)
	require.Equal(t, string(hill.StateClaimed), report.Hills[0].State)
	require.Equal(t, "alice", report.Hills[0].Holder)

	require.Len(t, report.Payouts, 1)
	require.Equal(t, PayoutSummary{
		ID:        "payout-1",
		Source:    "hill",
		ObjectID:  "hill-1",
		Epoch:     1000,
		Recipient: "alice",
		ItemID:    "gold",
		Amount:    5,
	}, report.Payouts[0])
}

func TestReplay_TwoPointLobbyWinnerB(t *testing.T) {
	report := replayStream(t, lobbyStream)

	require.Len(t, report.Lobbies, 1)
	summary := report.Lobbies[0]
	require.Equal(t, string(lobby.OutcomeTeamB), summary.Outcome)
	require.Equal(t, uint64(400), summary.TeamATime)
	require.Equal(t, uint64(1600), summary.TeamBTime)
	require.Equal(t, []string{"alice"}, summary.TeamA)
	require.Equal(t, []string{"bob"}, summary.TeamB)
	require.Equal(t, "bob", summary.ClaimedBy)

	require.Len(t, summary.Points, 2)
	require.Equal(t, PointSummary{PointID: "p1", Controller: "b", TeamATime: 400, TeamBTime: 600}, summary.Points[0])
	require.Equal(t, PointSummary{PointID: "p2", Controller: "b", TeamBTime: 1000}, summary.Points[1])

	require.NotEmpty(t, report.Events[6].Error, "loser claim must be rejected")
	require.Empty(t, report.Events[7].Error)
	require.Len(t, report.Payouts, 1)
	require.Equal(t, "bob", report.Payouts[0].Recipient)
	require.Equal(t, uint64(10), report.Payouts[0].Amount)
}

func TestReplay_IsDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, replayStream(t, lobbyStream).WriteJSON(&first))
	require.NoError(t, replayStream(t, lobbyStream).WriteJSON(&second))
	require.Equal(t, first.String(), second.String())
}

func TestRunner_RejectsEventsBeforeClock(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(0, nil)

	events := []Event{
		{Type: EventHillConfigure, T: 1000, ObjectID: "hill-1", Duration: 10, RequiredItemID: "gold", RequiredItemIncrement: 1},
		{Type: EventHillClaim, T: 900, ObjectID: "hill-1", Actor: "alice", Deposit: Deposit{ProofID: "p", ItemID: "gold", Quantity: 1}},
	}
	outcomes, err := runner.Run(ctx, events, false)
	require.NoError(t, err)
	require.Contains(t, outcomes[1].Error, "stale")

	_, err = NewRunner(0, nil).Run(ctx, events, true)
	require.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{name: "malformed json", stream: `{"type":`, want: "line 1"},
		{name: "unknown type", stream: "\n" + `{"type":"hill.explode","t":1,"object_id":"h"}`, want: "line 2: unknown event type"},
		{name: "unknown field", stream: `{"type":"hill.claim","t":1,"object_id":"h","bonus":1}`, want: "line 1"},
		{name: "missing object", stream: `{"type":"lobby.close","t":1}`, want: "object_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.stream))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReport_WriteText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replayStream(t, hillStream).WriteText(&out))
	require.Contains(t, out.String(), "hill hill-1 epoch=1000 state=claimed holder=alice")
	require.Contains(t, out.String(), "rejected #2 hill.resolve t=1099")
	require.Contains(t, out.String(), "payout payout-1 hill/hill-1")
}
