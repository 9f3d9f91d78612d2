package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/contested-territory/internal/platform/cache"
)

type countingHillRepository struct {
	*memory.HillRepository
	configReads int
}

func (r *countingHillRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (hill.Config, bool, error) {
	r.configReads++
	return r.HillRepository.GetConfig(ctx, objectID)
}

func TestHillRepository_CachesConfigUntilUpsert(t *testing.T) {
	ctx := t.Context()
	next := &countingHillRepository{HillRepository: memory.NewHillRepository()}
	repo := NewHillRepository(next, basecache.NewStore(time.Minute))

	cfg := hill.Config{ObjectID: "hill-1", Duration: 100, RequiredItemID: "ore", RequiredItemIncrement: 1, EpochStart: 1}
	if err := repo.UpsertConfig(ctx, cfg); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for range 3 {
		got, ok, err := repo.GetConfig(ctx, "hill-1")
		if err != nil || !ok {
			t.Fatalf("get config: ok=%v err=%v", ok, err)
		}
		if got != cfg {
			t.Fatalf("unexpected config: %+v", got)
		}
	}
	if next.configReads != 1 {
		t.Fatalf("expected one backing read, got %d", next.configReads)
	}

	cfg.EpochStart = 2
	if err := repo.UpsertConfig(ctx, cfg); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, err := repo.GetConfig(ctx, "hill-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got.EpochStart != 2 {
		t.Fatalf("expected refreshed config, got %+v", got)
	}
	if next.configReads != 2 {
		t.Fatalf("expected cache invalidation on upsert, got %d reads", next.configReads)
	}
}

func TestHillRepository_StaleCacheCannotWriteReplacedEpoch(t *testing.T) {
	ctx := t.Context()
	shared := &countingHillRepository{HillRepository: memory.NewHillRepository()}
	first := NewHillRepository(shared, basecache.NewStore(time.Minute))
	second := NewHillRepository(shared, basecache.NewStore(time.Minute))

	cfg := hill.Config{ObjectID: "hill-1", Duration: 100, RequiredItemID: "ore", RequiredItemIncrement: 1, EpochStart: 1}
	if err := first.UpsertConfig(ctx, cfg); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, _, err := first.GetConfig(ctx, "hill-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	cfg.EpochStart = 2
	if err := second.UpsertConfig(ctx, cfg); err != nil {
		t.Fatalf("reconfigure through the other instance: %v", err)
	}

	cached, _, err := first.GetConfig(ctx, "hill-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cached.EpochStart != 1 {
		t.Fatalf("expected the first instance to still hold epoch 1, got %d", cached.EpochStart)
	}

	err = first.SaveStatus(ctx, hill.Status{ObjectID: "hill-1", EpochStart: cached.EpochStart, Holder: "alice", PotTotal: 1})
	if !errors.Is(err, contest.ErrEpochNotCurrent) {
		t.Fatalf("expected ErrEpochNotCurrent, got %v", err)
	}

	refreshed, _, err := first.GetConfig(ctx, "hill-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if refreshed.EpochStart != 2 {
		t.Fatalf("expected the rejected write to drop the cached config, got epoch %d", refreshed.EpochStart)
	}
}
