package app

import (
	"context"
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/contested-territory/internal/config"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/ledger"
	cacherepo "github.com/riskibarqy/contested-territory/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/postgres"
	redisrepo "github.com/riskibarqy/contested-territory/internal/infrastructure/repository/redis"
	"github.com/riskibarqy/contested-territory/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/contested-territory/internal/platform/cache"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	idgen "github.com/riskibarqy/contested-territory/internal/platform/id"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/platform/resilience"
	"github.com/riskibarqy/contested-territory/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// App holds the wired HTTP server and the background settlement sweep.
type App struct {
	Server     *http.Server
	Settlement *usecase.SettlementService

	closers []func() error
}

type stores struct {
	hills   hill.Repository
	lobbies lobby.Repository
	points  controlpoint.Repository
	payouts payout.Repository
	close   func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{}
	if repos.close != nil {
		app.closers = append(app.closers, repos.close)
	}

	gate, err := newDepositGate(cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	clk := clock.NewSystem()
	payoutSvc := usecase.NewPayoutService(repos.payouts, idgen.NewUUIDGenerator(), logger)
	hillSvc := usecase.NewHillService(repos.hills, payoutSvc, gate, clk, logger)
	lobbySvc := usecase.NewLobbyService(repos.lobbies, repos.points, payoutSvc, gate, lobby.AlternatingAssigner{}, clk, logger)
	app.Settlement = usecase.NewSettlementService(lobbySvc, repos.lobbies, clk, cfg.SettleWorkers, logger)

	handler := httpapi.NewHandler(hillSvc, lobbySvc, payoutSvc, app.Settlement, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		AdminToken:         cfg.AdminToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return app, nil
}

// Close releases storage connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = crerr.CombineErrors(errs, err)
		}
	}
	a.closers = nil
	return errs
}

func openStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (stores, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return openPostgresStores(cfg, logger)
	case config.StorageRedis:
		return openRedisStores(ctx, cfg, logger)
	default:
		logger.Info("using in-memory storage")
		return stores{
			hills:   memory.NewHillRepository(),
			lobbies: memory.NewLobbyRepository(),
			points:  memory.NewControlPointRepository(),
			payouts: memory.NewPayoutRepository(),
		}, nil
	}
}

func openPostgresStores(cfg config.Config, logger *logging.Logger) (stores, error) {
	dbURL := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	opts := []otelsql.Option{
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbName(dbURL); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dbURL, opts...)
	if err != nil {
		return stores{}, crerr.Wrap(err, "open postgres")
	}
	logger.Info("using postgres storage", "db_name", dbName(dbURL))

	hills := hill.Repository(postgres.NewHillRepository(db))
	lobbies := lobby.Repository(postgres.NewLobbyRepository(db))
	hills, lobbies = withConfigCache(cfg, hills, lobbies)

	return stores{
		hills:   hills,
		lobbies: lobbies,
		points:  postgres.NewControlPointRepository(db),
		payouts: postgres.NewPayoutRepository(db),
		close:   db.Close,
	}, nil
}

func openRedisStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (stores, error) {
	client, err := redisrepo.NewClient(ctx, cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return stores{}, err
	}
	logger.Info("using redis storage", "addrs", cfg.RedisAddrs)

	hills := hill.Repository(redisrepo.NewHillRepository(client))
	lobbies := lobby.Repository(redisrepo.NewLobbyRepository(client))
	hills, lobbies = withConfigCache(cfg, hills, lobbies)

	return stores{
		hills:   hills,
		lobbies: lobbies,
		points:  redisrepo.NewControlPointRepository(client),
		payouts: redisrepo.NewPayoutRepository(client),
		close:   client.Close,
	}, nil
}

// withConfigCache fronts config reads with a short-lived in-process cache.
// Statuses are never cached.
func withConfigCache(cfg config.Config, hills hill.Repository, lobbies lobby.Repository) (hill.Repository, lobby.Repository) {
	if !cfg.CacheEnabled || cfg.CacheTTL <= 0 {
		return hills, lobbies
	}
	store := basecache.NewStore(cfg.CacheTTL)
	return cacherepo.NewHillRepository(hills, store), cacherepo.NewLobbyRepository(lobbies, store)
}

func newDepositGate(cfg config.Config, logger *logging.Logger) (deposit.Gate, error) {
	if !cfg.LedgerEnabled {
		logger.Info("ledger disabled, deposits checked against config only")
		return deposit.ExactGate{}, nil
	}

	gate, err := ledger.NewGate(ledger.GateConfig{
		BaseURL: cfg.LedgerBaseURL,
		Token:   cfg.LedgerToken,
		Timeout: cfg.LedgerTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LedgerCircuitEnabled,
			FailureThreshold: cfg.LedgerCircuitFailureCount,
			OpenTimeout:      cfg.LedgerCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LedgerCircuitHalfOpenMaxReq,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return gate, nil
}
