package replay

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
)

type EventType string

const (
	EventHillConfigure  EventType = "hill.configure"
	EventHillClaim      EventType = "hill.claim"
	EventHillResolve    EventType = "hill.resolve"
	EventLobbyConfigure EventType = "lobby.configure"
	EventLobbyStart     EventType = "lobby.start"
	EventPointControl   EventType = "point.control"
	EventLobbyAggregate EventType = "lobby.aggregate"
	EventLobbyClose     EventType = "lobby.close"
	EventLobbyClaim     EventType = "lobby.claim"
)

var knownEvents = map[EventType]struct{}{
	EventHillConfigure:  {},
	EventHillClaim:      {},
	EventHillResolve:    {},
	EventLobbyConfigure: {},
	EventLobbyStart:     {},
	EventPointControl:   {},
	EventLobbyAggregate: {},
	EventLobbyClose:     {},
	EventLobbyClaim:     {},
}

// Deposit mirrors the proof attached to claims and lobby starts.
type Deposit struct {
	ProofID  string `json:"proof_id"`
	ItemID   string `json:"item_id"`
	Quantity uint64 `json:"quantity"`
}

// Event is one line of a replay stream. T is the engine timestamp the event
// is applied at; the remaining fields are read according to Type.
type Event struct {
	Type     EventType `json:"type"`
	T        uint64    `json:"t"`
	ObjectID string    `json:"object_id"`

	Actor   string   `json:"actor,omitempty"`
	Deposit Deposit  `json:"deposit"`
	Roster  []string `json:"roster,omitempty"`
	PointID string   `json:"point_id,omitempty"`
	Team    string   `json:"team,omitempty"`

	Duration                 uint64   `json:"duration,omitempty"`
	RequiredItemID           string   `json:"required_item_id,omitempty"`
	RequiredItemIncrement    uint64   `json:"required_item_increment,omitempty"`
	RequiredPlayerCount      uint64   `json:"required_player_count,omitempty"`
	RequiredItemQuantity     uint64   `json:"required_item_quantity,omitempty"`
	RequiredControlDepositID string   `json:"required_control_deposit_id,omitempty"`
	ControlPointIDs          []string `json:"control_point_ids,omitempty"`
	EpochStart               uint64   `json:"epoch_start,omitempty"`
}

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

const maxLineBytes = 1 << 20

// Decode reads a JSONL stream. Blank lines and lines starting with '#' are
// skipped. Decoding stops at the first malformed line.
func Decode(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		var ev Event
		if err := strictJSON.UnmarshalFromString(raw, &ev); err != nil {
			return nil, fmt.Errorf("line %d: decode event: %w", line, err)
		}
		if _, ok := knownEvents[ev.Type]; !ok {
			return nil, fmt.Errorf("line %d: unknown event type %q", line, ev.Type)
		}
		if strings.TrimSpace(ev.ObjectID) == "" {
			return nil, fmt.Errorf("line %d: object_id is required", line)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}
