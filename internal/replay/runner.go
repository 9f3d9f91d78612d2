package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	idgen "github.com/riskibarqy/contested-territory/internal/platform/id"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

// Runner applies events to fresh in-memory stores. Time only moves when an
// event says so, so the same stream always yields the same report.
type Runner struct {
	clock   *clock.Manual
	hills   *usecase.HillService
	lobbies *usecase.LobbyService
	payouts *usecase.PayoutService
	logger  *logging.Logger

	hillIDs  []string
	lobbyIDs []string
	seen     map[string]struct{}
}

func NewRunner(start accrual.Timestamp, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}

	clk := clock.NewManual(start)
	payouts := usecase.NewPayoutService(memory.NewPayoutRepository(), &idgen.Sequence{Prefix: "payout"}, logger)
	return &Runner{
		clock:   clk,
		hills:   usecase.NewHillService(memory.NewHillRepository(), payouts, deposit.ExactGate{}, clk, logger),
		lobbies: usecase.NewLobbyService(memory.NewLobbyRepository(), memory.NewControlPointRepository(), payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, clk, logger),
		payouts: payouts,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Outcome records what happened to one event. Error is empty when the
// event was accepted.
type Outcome struct {
	Index    int       `json:"index"`
	Type     EventType `json:"type"`
	T        uint64    `json:"t"`
	ObjectID string    `json:"object_id"`
	Error    string    `json:"error,omitempty"`
}

// Run applies every event in order. Rejected events are recorded and the
// stream continues unless stopOnError is set.
func (r *Runner) Run(ctx context.Context, events []Event, stopOnError bool) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(events))
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome := Outcome{Index: i, Type: ev.Type, T: ev.T, ObjectID: ev.ObjectID}
		if err := r.Apply(ctx, ev); err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			if stopOnError {
				return outcomes, fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
			}
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Apply moves the clock to the event time and dispatches the event. An event
// older than the clock is rejected as stale without touching any record.
func (r *Runner) Apply(ctx context.Context, ev Event) error {
	now := r.clock.Now()
	at := accrual.Timestamp(ev.T)
	if at < now {
		return fmt.Errorf("%w: event at %d is before clock %d", contest.ErrStaleEvent, ev.T, uint64(now))
	}
	r.clock.Set(at)
	r.track(ev)

	var err error
	switch ev.Type {
	case EventHillConfigure:
		_, err = r.hills.ConfigureHill(ctx, usecase.ConfigureHillInput{
			ObjectID:              ev.ObjectID,
			Duration:              ev.Duration,
			RequiredItemID:        ev.RequiredItemID,
			RequiredItemIncrement: ev.RequiredItemIncrement,
			EpochStart:            ev.EpochStart,
		})
	case EventHillClaim:
		_, err = r.hills.AttemptClaim(ctx, usecase.HillClaimInput{
			ObjectID: ev.ObjectID,
			Actor:    ev.Actor,
			Deposit:  ev.Deposit.input(),
		})
	case EventHillResolve:
		_, err = r.hills.ResolveClaim(ctx, usecase.HillResolveInput{ObjectID: ev.ObjectID, Actor: ev.Actor})
	case EventLobbyConfigure:
		_, err = r.lobbies.ConfigureLobby(ctx, usecase.ConfigureLobbyInput{
			ObjectID:                 ev.ObjectID,
			Duration:                 ev.Duration,
			RequiredPlayerCount:      ev.RequiredPlayerCount,
			RequiredItemID:           ev.RequiredItemID,
			RequiredItemQuantity:     ev.RequiredItemQuantity,
			RequiredControlDepositID: ev.RequiredControlDepositID,
			ControlPointIDs:          ev.ControlPointIDs,
			EpochStart:               ev.EpochStart,
		})
	case EventLobbyStart:
		_, err = r.lobbies.Start(ctx, usecase.StartLobbyInput{
			ObjectID: ev.ObjectID,
			Roster:   ev.Roster,
			Deposit:  ev.Deposit.input(),
		})
	case EventPointControl:
		_, err = r.lobbies.ChangeControl(ctx, usecase.ChangeControlInput{
			ObjectID: ev.ObjectID,
			PointID:  ev.PointID,
			Team:     ev.Team,
		})
	case EventLobbyAggregate:
		_, err = r.lobbies.Aggregate(ctx, ev.ObjectID)
	case EventLobbyClose:
		_, err = r.lobbies.Close(ctx, ev.ObjectID)
	case EventLobbyClaim:
		_, err = r.lobbies.ClaimReward(ctx, usecase.ClaimRewardInput{ObjectID: ev.ObjectID, Actor: ev.Actor})
	default:
		err = fmt.Errorf("%w: unknown event type %q", usecase.ErrInvalidInput, ev.Type)
	}
	if err != nil {
		r.logger.DebugContext(ctx, "replay event rejected", "type", string(ev.Type), "t", ev.T, "object_id", ev.ObjectID, "error", err)
	}
	return err
}

func (r *Runner) track(ev Event) {
	if strings.TrimSpace(ev.ObjectID) == "" {
		return
	}
	key := "lobby:" + ev.ObjectID
	if ev.Type.isHill() {
		key = "hill:" + ev.ObjectID
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if ev.Type.isHill() {
		r.hillIDs = append(r.hillIDs, ev.ObjectID)
		return
	}
	r.lobbyIDs = append(r.lobbyIDs, ev.ObjectID)
}

func (t EventType) isHill() bool {
	switch t {
	case EventHillConfigure, EventHillClaim, EventHillResolve:
		return true
	default:
		return false
	}
}

func (d Deposit) input() usecase.DepositInput {
	return usecase.DepositInput{ProofID: d.ProofID, ItemID: d.ItemID, Quantity: d.Quantity}
}

// Snapshot reads the current status of every object the stream touched, in
// first-seen order. Objects that were never configured are left out.
func (r *Runner) Snapshot(ctx context.Context) (Report, error) {
	report := Report{Now: uint64(r.clock.Now())}

	for _, id := range r.hillIDs {
		view, err := r.hills.GetStatus(ctx, id)
		if errors.Is(err, usecase.ErrNotFound) {
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("hill %s: %w", id, err)
		}
		report.Hills = append(report.Hills, hillSummary(view))
		if err := r.appendPayouts(ctx, &report, id, payout.SourceHill); err != nil {
			return Report{}, err
		}
	}

	for _, id := range r.lobbyIDs {
		view, err := r.lobbies.GetStatus(ctx, id)
		if errors.Is(err, usecase.ErrNotFound) {
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("lobby %s: %w", id, err)
		}
		summary := lobbySummary(view)
		for _, pointID := range view.Config.ControlPointIDs {
			point, err := r.lobbies.GetPoint(ctx, id, string(pointID))
			if errors.Is(err, usecase.ErrNotFound) {
				continue
			}
			if err != nil {
				return Report{}, fmt.Errorf("lobby %s point %s: %w", id, pointID, err)
			}
			summary.Points = append(summary.Points, pointSummary(point))
		}
		report.Lobbies = append(report.Lobbies, summary)
		if err := r.appendPayouts(ctx, &report, id, payout.SourceLobby); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

func (r *Runner) appendPayouts(ctx context.Context, report *Report, objectID string, source payout.Source) error {
	intents, err := r.payouts.ListByObject(ctx, objectID)
	if err != nil {
		return fmt.Errorf("payouts %s: %w", objectID, err)
	}
	for _, intent := range intents {
		if intent.Source != source {
			continue
		}
		report.Payouts = append(report.Payouts, payoutSummary(intent))
	}
	return nil
}
