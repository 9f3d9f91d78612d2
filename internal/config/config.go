package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"dev"`
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"contested-territory"`
	ServiceVersion string        `env:"SERVICE_VERSION" envDefault:"dev"`
	HTTPAddr       string        `env:"APP_HTTP_ADDR" envDefault:":8080"`
	LogLevel       logging.Level `env:"APP_LOG_LEVEL" envDefault:"info"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AdminToken         string   `env:"ADMIN_TOKEN"`

	StorageDriver           string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	DBURL                   string        `env:"DB_URL"`
	DBDisablePreparedBinary bool          `env:"DB_DISABLE_PREPARED_BINARY_RESULT" envDefault:"false"`
	RedisAddrs              []string      `env:"REDIS_ADDRS" envSeparator:","`
	RedisPassword           string        `env:"REDIS_PASSWORD"`
	RedisDB                 int           `env:"REDIS_DB" envDefault:"0"`
	CacheEnabled            bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheTTL                time.Duration `env:"CACHE_TTL" envDefault:"2s"`

	LedgerEnabled               bool          `env:"LEDGER_ENABLED" envDefault:"false"`
	LedgerBaseURL               string        `env:"LEDGER_BASE_URL"`
	LedgerToken                 string        `env:"LEDGER_TOKEN"`
	LedgerTimeout               time.Duration `env:"LEDGER_TIMEOUT" envDefault:"5s"`
	LedgerCircuitEnabled        bool          `env:"LEDGER_CIRCUIT_ENABLED" envDefault:"true"`
	LedgerCircuitFailureCount   int           `env:"LEDGER_CIRCUIT_FAILURE_COUNT" envDefault:"5"`
	LedgerCircuitOpenTimeout    time.Duration `env:"LEDGER_CIRCUIT_OPEN_TIMEOUT" envDefault:"15s"`
	LedgerCircuitHalfOpenMaxReq int           `env:"LEDGER_CIRCUIT_HALF_OPEN_MAX_REQ" envDefault:"2"`

	SettleEnabled  bool          `env:"SETTLE_ENABLED" envDefault:"true"`
	SettleInterval time.Duration `env:"SETTLE_INTERVAL" envDefault:"10s"`
	SettleWorkers  int           `env:"SETTLE_WORKERS" envDefault:"4"`

	UptraceEnabled     bool   `env:"UPTRACE_ENABLED" envDefault:"false"`
	UptraceDSN         string `env:"UPTRACE_DSN"`
	UptraceLogsEnabled bool   `env:"UPTRACE_LOGS_ENABLED" envDefault:"true"`
	OTLPHeaders        string `env:"OTEL_EXPORTER_OTLP_HEADERS"`

	PprofEnabled bool   `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAddr    string `env:"PPROF_ADDR" envDefault:":6060"`

	PyroscopeEnabled           bool          `env:"PYROSCOPE_ENABLED" envDefault:"false"`
	PyroscopeServerAddress     string        `env:"PYROSCOPE_SERVER_ADDRESS"`
	PyroscopeAppName           string        `env:"PYROSCOPE_APP_NAME" envDefault:"contested-territory"`
	PyroscopeAuthToken         string        `env:"PYROSCOPE_AUTH_TOKEN"`
	PyroscopeBasicAuthUser     string        `env:"PYROSCOPE_BASIC_AUTH_USER"`
	PyroscopeBasicAuthPassword string        `env:"PYROSCOPE_BASIC_AUTH_PASSWORD"`
	PyroscopeUploadRate        time.Duration `env:"PYROSCOPE_UPLOAD_RATE" envDefault:"15s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DBURL = strings.TrimSpace(c.DBURL)
	c.AdminToken = strings.TrimSpace(c.AdminToken)
	c.LedgerBaseURL = strings.TrimSpace(c.LedgerBaseURL)
	c.LedgerToken = strings.TrimSpace(c.LedgerToken)
	c.PprofAddr = strings.TrimSpace(c.PprofAddr)
	c.PyroscopeServerAddress = strings.TrimSpace(c.PyroscopeServerAddress)
	c.CORSAllowedOrigins = compactCSV(c.CORSAllowedOrigins)
	c.RedisAddrs = compactCSV(c.RedisAddrs)

	c.UptraceDSN = strings.TrimSpace(c.UptraceDSN)
	if c.UptraceDSN == "" {
		c.UptraceDSN = parseUptraceDSNFromOTLPHeaders(c.OTLPHeaders)
	}
}

func (c Config) validate() error {
	if _, err := parseAppEnv(c.AppEnv); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be > 0")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be > 0")
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageRedis:
		if len(c.RedisAddrs) == 0 {
			return fmt.Errorf("REDIS_ADDRS is required when STORAGE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s, %s", c.StorageDriver, StorageMemory, StoragePostgres, StorageRedis)
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}

	if c.LedgerEnabled {
		if c.LedgerBaseURL == "" {
			return fmt.Errorf("LEDGER_BASE_URL is required when LEDGER_ENABLED=true")
		}
		if c.LedgerTimeout <= 0 {
			return fmt.Errorf("LEDGER_TIMEOUT must be > 0")
		}
		if c.LedgerCircuitFailureCount < 1 {
			return fmt.Errorf("LEDGER_CIRCUIT_FAILURE_COUNT must be >= 1")
		}
		if c.LedgerCircuitOpenTimeout <= 0 {
			return fmt.Errorf("LEDGER_CIRCUIT_OPEN_TIMEOUT must be > 0")
		}
		if c.LedgerCircuitHalfOpenMaxReq < 1 {
			return fmt.Errorf("LEDGER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
		}
	}

	if c.SettleEnabled {
		if c.SettleInterval <= 0 {
			return fmt.Errorf("SETTLE_INTERVAL must be > 0")
		}
		if c.SettleWorkers < 1 {
			return fmt.Errorf("SETTLE_WORKERS must be >= 1")
		}
	}

	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.PprofEnabled && c.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if c.PyroscopeEnabled && c.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if c.PyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	return nil
}

func compactCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
