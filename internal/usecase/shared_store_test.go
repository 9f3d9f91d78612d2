package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	repocache "github.com/riskibarqy/contested-territory/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/contested-territory/internal/platform/cache"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

// readBarrier releases status reads only once every party has read, so
// services with separate locks all act on the same snapshot.
type readBarrier struct {
	wg sync.WaitGroup
}

func newReadBarrier(parties int) *readBarrier {
	b := &readBarrier{}
	b.wg.Add(parties)
	return b
}

func (b *readBarrier) arrive() {
	b.wg.Done()
	b.wg.Wait()
}

type barrierHillRepository struct {
	*memory.HillRepository
	barrier *readBarrier
}

func (r barrierHillRepository) GetStatus(ctx context.Context, key contest.RecordKey) (hill.Status, bool, error) {
	status, ok, err := r.HillRepository.GetStatus(ctx, key)
	r.barrier.arrive()
	return status, ok, err
}

type barrierLobbyRepository struct {
	*memory.LobbyRepository
	barrier *readBarrier
}

func (r barrierLobbyRepository) GetStatus(ctx context.Context, key contest.RecordKey) (lobby.Status, bool, error) {
	status, ok, err := r.LobbyRepository.GetStatus(ctx, key)
	r.barrier.arrive()
	return status, ok, err
}

// runBoth starts both calls together and returns their errors in order.
func runBoth(first, second func() error) [2]error {
	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	for i, call := range []func() error{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = call()
		}()
	}
	wg.Wait()
	return errs
}

// oneWinner returns the index of the call that succeeded and fails the test
// unless the other one lost with ErrConflict.
func oneWinner(t *testing.T, errs [2]error) int {
	t.Helper()

	switch {
	case errs[0] == nil && errors.Is(errs[1], contest.ErrConflict):
		return 0
	case errs[1] == nil && errors.Is(errs[0], contest.ErrConflict):
		return 1
	default:
		t.Fatalf("expected one success and one ErrConflict, got %v and %v", errs[0], errs[1])
		return -1
	}
}

func TestHillService_TwoInstancesClaimVacantHill(t *testing.T) {
	f := newHillFixture(t)
	ctx := t.Context()

	shared := barrierHillRepository{HillRepository: f.repo, barrier: newReadBarrier(2)}
	first := NewHillService(shared, f.payouts, deposit.ExactGate{}, f.clock, logging.NewNop())
	second := NewHillService(shared, f.payouts, deposit.ExactGate{}, f.clock, logging.NewNop())

	actors := [2]string{"alice", "bob"}
	errs := runBoth(
		func() error {
			_, err := first.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: actors[0], Deposit: goldDeposit("p-1")})
			return err
		},
		func() error {
			_, err := second.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: actors[1], Deposit: goldDeposit("p-2")})
			return err
		},
	)
	winner := oneWinner(t, errs)

	stored, ok, err := f.repo.GetStatus(ctx, contest.RecordKey{ObjectID: "hill-1", Epoch: 1000})
	if err != nil || !ok {
		t.Fatalf("get status: ok=%v err=%v", ok, err)
	}
	if string(stored.Holder) != actors[winner] || stored.PotTotal != 5 || stored.Version != 2 {
		t.Fatalf("stored status must hold only the winning claim, got %+v", stored)
	}
}

func TestLobbyService_TwoInstancesChangeOnePoint(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := t.Context()

	startTestLobby(t, f.service, "lobby-1")
	f.clock.Set(1200)

	shared := barrierLobbyRepository{LobbyRepository: f.repo, barrier: newReadBarrier(2)}
	first := NewLobbyService(shared, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())
	second := NewLobbyService(shared, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())

	teams := [2]controlpoint.Team{controlpoint.TeamA, controlpoint.TeamB}
	errs := runBoth(
		func() error {
			_, err := first.ChangeControl(ctx, ChangeControlInput{ObjectID: "lobby-1", PointID: "lobby-1-p1", Team: string(teams[0])})
			return err
		},
		func() error {
			_, err := second.ChangeControl(ctx, ChangeControlInput{ObjectID: "lobby-1", PointID: "lobby-1-p1", Team: string(teams[1])})
			return err
		},
	)
	winner := oneWinner(t, errs)

	point, ok, err := f.points.GetStatus(ctx, contest.RecordKey{ObjectID: "lobby-1-p1", Epoch: 1000})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, teams[winner], point.ControllingTeam)
	require.EqualValues(t, 200, point.NeutralTime)
	require.EqualValues(t, 2, point.Version)
}

func TestLobbyService_TwoInstancesStartOneLobby(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := t.Context()

	shared := barrierLobbyRepository{LobbyRepository: f.repo, barrier: newReadBarrier(2)}
	first := NewLobbyService(shared, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())
	second := NewLobbyService(shared, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())

	start := func(service *LobbyService, proof string) func() error {
		return func() error {
			_, err := service.Start(ctx, StartLobbyInput{
				ObjectID: "lobby-1",
				Roster:   []string{"alice", "bob", "carol", "dave"},
				Deposit:  DepositInput{ProofID: proof, ItemID: "token", Quantity: 1},
			})
			return err
		}
	}
	oneWinner(t, runBoth(start(first, "ctl-1"), start(second, "ctl-2")))

	status, ok, err := f.repo.GetStatus(ctx, contest.RecordKey{ObjectID: "lobby-1", Epoch: 1000})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, lobby.PhaseActive, status.Phase)
	require.EqualValues(t, 2, status.Version)

	for _, pointID := range []contest.ObjectID{"lobby-1-p1", "lobby-1-p2"} {
		point, ok, err := f.points.GetStatus(ctx, contest.RecordKey{ObjectID: pointID, Epoch: 1000})
		require.NoError(t, err)
		require.True(t, ok, pointID)
		require.EqualValues(t, 1, point.Version, pointID)
	}
}

func TestHillService_StaleConfigCannotClaimReplacedEpoch(t *testing.T) {
	f := newHillFixture(t)
	ctx := t.Context()

	cached := NewHillService(repocache.NewHillRepository(f.repo, basecache.NewStore(time.Minute)), f.payouts, deposit.ExactGate{}, f.clock, logging.NewNop())
	if _, err := cached.GetStatus(ctx, "hill-1"); err != nil {
		t.Fatalf("warm config cache: %v", err)
	}

	f.clock.Set(2000)
	if _, err := f.service.ConfigureHill(ctx, ConfigureHillInput{ObjectID: "hill-1", Duration: 100, RequiredItemID: "gold", RequiredItemIncrement: 5}); err != nil {
		t.Fatalf("reconfigure through the other instance: %v", err)
	}

	_, err := cached.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: "alice", Deposit: goldDeposit("p-1")})
	if !errors.Is(err, contest.ErrEpochNotCurrent) {
		t.Fatalf("expected ErrEpochNotCurrent from the stale instance, got %v", err)
	}
	old, _, err := f.repo.GetStatus(ctx, contest.RecordKey{ObjectID: "hill-1", Epoch: 1000})
	if err != nil {
		t.Fatalf("get old epoch: %v", err)
	}
	if old.Holder != "" || old.PotTotal != 0 {
		t.Fatalf("replaced epoch was written: %+v", old)
	}

	retried, err := cached.AttemptClaim(ctx, HillClaimInput{ObjectID: "hill-1", Actor: "alice", Deposit: goldDeposit("p-1")})
	if err != nil {
		t.Fatalf("retry after the rejected write: %v", err)
	}
	if retried.Status.EpochStart != 2000 || retried.Status.Holder != "alice" {
		t.Fatalf("expected the retry to land in the current epoch, got %+v", retried.Status)
	}
}

func TestLobbyService_StaleConfigCannotStartReplacedEpoch(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := t.Context()

	cachedRepo := repocache.NewLobbyRepository(f.repo, basecache.NewStore(time.Minute))
	cached := NewLobbyService(cachedRepo, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())
	_, err := cached.GetStatus(ctx, "lobby-1")
	require.NoError(t, err)

	f.clock.Set(3000)
	configureTestLobby(t, f.service, "lobby-1")

	_, err = cached.Start(ctx, StartLobbyInput{
		ObjectID: "lobby-1",
		Roster:   []string{"alice", "bob", "carol", "dave"},
		Deposit:  DepositInput{ProofID: "ctl-1", ItemID: "token", Quantity: 1},
	})
	require.ErrorIs(t, err, contest.ErrEpochNotCurrent)

	_, ok, err := f.points.GetStatus(ctx, contest.RecordKey{ObjectID: "lobby-1-p1", Epoch: 1000})
	require.NoError(t, err)
	require.False(t, ok, "no point may be opened in the replaced epoch")

	started := startTestLobby(t, cached, "lobby-1")
	require.EqualValues(t, 3000, started.Status.EpochStart)
}

func TestSettlementService_TwoInstancesSweepOneLobby(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := t.Context()

	startTestLobby(t, f.service, "lobby-1")
	f.clock.Set(2000)

	shared := barrierLobbyRepository{LobbyRepository: f.repo, barrier: newReadBarrier(2)}
	sweepers := [2]*SettlementService{}
	for i := range sweepers {
		service := NewLobbyService(shared, f.points, f.payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, f.clock, logging.NewNop())
		sweepers[i] = NewSettlementService(service, f.repo, f.clock, 1, logging.NewNop())
	}

	var results [2]SweepResult
	errs := runBoth(
		func() (err error) {
			results[0], err = sweepers[0].Sweep(ctx)
			return err
		},
		func() (err error) {
			results[1], err = sweepers[1].Sweep(ctx)
			return err
		},
	)
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.Equal(t, 1, results[0].Closed+results[1].Closed, "%+v", results)
	require.Equal(t, 1, results[0].Skipped+results[1].Skipped, "%+v", results)
	require.Zero(t, results[0].Failed+results[1].Failed, "%+v", results)
}
