package redis

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

func TestEpochMemberSortsNumerically(t *testing.T) {
	members := []string{epochMember(100), epochMember(9), epochMember(1_000_000)}
	sort.Strings(members)

	want := []string{epochMember(9), epochMember(100), epochMember(1_000_000)}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("unexpected order at %d: got %s want %s", i, members[i], want[i])
		}
	}
	if len(epochMember(^contest.Epoch(0))) != 20 {
		t.Fatalf("max epoch should fit 20 digits, got %q", epochMember(^contest.Epoch(0)))
	}
}

func TestKeysShareObjectHashTag(t *testing.T) {
	key := contest.RecordKey{ObjectID: "hill-1", Epoch: 42}
	tag := "ct:{hill-1}"

	for _, got := range []string{
		configKey(hillKind, key.ObjectID),
		statusKey(hillKind, key),
		epochsKey(hillKind, key.ObjectID),
		payoutKey(payout.SourceHill, key),
		payoutIndexKey(key.ObjectID),
	} {
		if len(got) < len(tag) || got[:len(tag)] != tag {
			t.Fatalf("key %q does not start with %q", got, tag)
		}
	}
	if statusKey(hillKind, key) != memberStatusKey(hillKind, key.ObjectID, epochMember(42)) {
		t.Fatalf("status key helpers disagree")
	}
}

func TestParseActiveMember(t *testing.T) {
	key := contest.RecordKey{ObjectID: "lobby|odd", Epoch: 7}
	got, err := parseActiveMember(activeMember(key))
	if err != nil {
		t.Fatalf("parseActiveMember error: %v", err)
	}
	if got != key {
		t.Fatalf("unexpected key: got %v want %v", got, key)
	}

	for _, bad := range []string{"", "123", "x|lobby", "12|"} {
		if _, err := parseActiveMember(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLobbyStatusRecordKeepsRosters(t *testing.T) {
	status := lobby.Status{
		ObjectID:     "lobby-1",
		EpochStart:   10,
		Phase:        lobby.PhaseClosed,
		TeamAPlayers: []contest.PlayerID{"alice", "carol"},
		TeamBPlayers: []contest.PlayerID{"bob", "dave"},
		Outcome:      lobby.OutcomeTeamB,
		Claimed:      true,
		ClaimedBy:    "dave",
		PotTotal:     20,
		ClosedAt:     1010,
	}

	raw, err := encode(lobbyStatusToRecord(status))
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	var rec lobbyStatusRecord
	if err := decode(raw, &rec); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	got := rec.domain()
	if got.ClaimedBy != "dave" || got.Outcome != lobby.OutcomeTeamB || len(got.TeamBPlayers) != 2 || got.TeamBPlayers[1] != "dave" {
		t.Fatalf("unexpected status after decode: %+v", got)
	}
}

func TestPayoutRecordCreatedAtIsUTC(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 5, time.FixedZone("X", 3600))
	intent := payout.Intent{ID: "p-1", Source: payout.SourceLobby, ObjectID: "lobby-1", Epoch: 10, Amount: 20, CreatedAt: created}

	got := payoutToRecord(intent).domain()
	if !got.CreatedAt.Equal(created) || got.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected created at: %v", got.CreatedAt)
	}
	if got.Key() != intent.Key() || got.Source != payout.SourceLobby {
		t.Fatalf("unexpected intent: %+v", got)
	}
}

func TestStoredEpochFencesReplacedEpoch(t *testing.T) {
	key := contest.RecordKey{ObjectID: "hill-1", Epoch: 10}

	if err := storedEpoch(nil, key); err != nil {
		t.Fatalf("missing config must not fence: %v", err)
	}

	current, err := encode(hillConfigToRecord(hill.Config{ObjectID: "hill-1", EpochStart: 10}))
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := storedEpoch(current, key); err != nil {
		t.Fatalf("current epoch rejected: %v", err)
	}

	replaced, err := encode(lobbyConfigToRecord(lobby.Config{ObjectID: "hill-1", EpochStart: 20}))
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := storedEpoch(replaced, key); !errors.Is(err, contest.ErrEpochNotCurrent) {
		t.Fatalf("expected ErrEpochNotCurrent, got %v", err)
	}
}
