package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/contested-territory/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Fatalf("unexpected default storage driver: %q", cfg.StorageDriver)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default http addr: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected default log level: %s", cfg.LogLevel)
	}
	if cfg.SettleInterval != 10*time.Second || cfg.SettleWorkers != 4 {
		t.Fatalf("unexpected settle defaults: %s/%d", cfg.SettleInterval, cfg.SettleWorkers)
	}
	if cfg.LedgerEnabled {
		t.Fatalf("expected ledger disabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_StorageDriverRules(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})

	t.Run("postgres requires db url", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("DB_URL", "  ")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when STORAGE_DRIVER=postgres without DB_URL")
		}
	})

	t.Run("redis addrs are trimmed", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", " Redis ")
		t.Setenv("REDIS_ADDRS", " 10.0.0.1:6379, ,10.0.0.2:6379 ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StorageRedis {
			t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
		}
		if len(cfg.RedisAddrs) != 2 || cfg.RedisAddrs[1] != "10.0.0.2:6379" {
			t.Fatalf("unexpected redis addrs: %+v", cfg.RedisAddrs)
		}
	})
}

func TestLoad_LedgerRequiresBaseURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LEDGER_ENABLED", "true")
	t.Setenv("LEDGER_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when LEDGER_ENABLED=true without LEDGER_BASE_URL")
	}
}

func TestLoad_LedgerConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("LEDGER_ENABLED", "true")
	t.Setenv("LEDGER_BASE_URL", "https://ledger.internal")
	t.Setenv("LEDGER_TOKEN", " secret ")
	t.Setenv("LEDGER_TIMEOUT", "2s")
	t.Setenv("LEDGER_CIRCUIT_FAILURE_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LedgerToken != "secret" {
		t.Fatalf("expected trimmed ledger token, got %q", cfg.LedgerToken)
	}
	if cfg.LedgerTimeout != 2*time.Second {
		t.Fatalf("unexpected ledger timeout: %s", cfg.LedgerTimeout)
	}
	if cfg.LedgerCircuitFailureCount != 3 {
		t.Fatalf("unexpected failure count: %d", cfg.LedgerCircuitFailureCount)
	}

	t.Run("failure count must be positive", func(t *testing.T) {
		t.Setenv("LEDGER_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for LEDGER_CIRCUIT_FAILURE_COUNT=0")
		}
	})
}

func TestLoad_SettleRules(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("SETTLE_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SETTLE_WORKERS=0")
		}
	})

	t.Run("disabled skips checks", func(t *testing.T) {
		t.Setenv("SETTLE_ENABLED", "false")
		t.Setenv("SETTLE_WORKERS", "0")
		if _, err := Load(); err != nil {
			t.Fatalf("load config: %v", err)
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("SETTLE_INTERVAL", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SETTLE_INTERVAL")
		}
	})
}

func TestLoad_UptraceDSNFallsBackToOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev/1"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PprofRequiresAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PPROF_ENABLED=true with blank PPROF_ADDR")
	}
}

func TestLoad_CORSOriginsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[0] != "https://a.example.com" || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Fatalf("unexpected CORS origins: %+v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_LOG_LEVEL", "chatty")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_LOG_LEVEL")
	}
}
