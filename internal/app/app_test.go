package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/config"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/ledger"
	cacherepo "github.com/riskibarqy/contested-territory/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		HTTPAddr:       ":0",
		StorageDriver:  config.StorageMemory,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		SettleWorkers:  2,
		SettleInterval: time.Second,
	}
}

func TestNew_MemoryStorageServesHealthz(t *testing.T) {
	app, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	if app.Settlement == nil {
		t.Fatalf("expected settlement service to be wired")
	}

	rec := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected healthz status: %d", rec.Code)
	}
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}

func TestNewDepositGate(t *testing.T) {
	t.Run("ledger disabled", func(t *testing.T) {
		gate, err := newDepositGate(memoryConfig(), logging.NewNop())
		if err != nil {
			t.Fatalf("new gate: %v", err)
		}
		if _, ok := gate.(deposit.ExactGate); !ok {
			t.Fatalf("expected exact gate, got %T", gate)
		}
	})

	t.Run("ledger enabled", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.LedgerEnabled = true
		cfg.LedgerBaseURL = "http://ledger.local"
		gate, err := newDepositGate(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("new gate: %v", err)
		}
		if _, ok := gate.(*ledger.Gate); !ok {
			t.Fatalf("expected ledger gate, got %T", gate)
		}
	})

	t.Run("ledger enabled with bad url", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.LedgerEnabled = true
		cfg.LedgerBaseURL = "not a url"
		if _, err := newDepositGate(cfg, logging.NewNop()); err == nil {
			t.Fatalf("expected error for invalid ledger url")
		}
	})
}

func TestWithConfigCache(t *testing.T) {
	cfg := memoryConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Second

	hills, lobbies := withConfigCache(cfg, memory.NewHillRepository(), memory.NewLobbyRepository())
	if _, ok := hills.(*cacherepo.HillRepository); !ok {
		t.Fatalf("expected cached hill repository, got %T", hills)
	}
	if _, ok := lobbies.(*cacherepo.LobbyRepository); !ok {
		t.Fatalf("expected cached lobby repository, got %T", lobbies)
	}

	cfg.CacheEnabled = false
	hills, _ = withConfigCache(cfg, memory.NewHillRepository(), memory.NewLobbyRepository())
	if _, ok := hills.(*memory.HillRepository); !ok {
		t.Fatalf("expected raw memory repository, got %T", hills)
	}
}
