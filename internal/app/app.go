// Package app assembles the stores, clients and services shared by the
// HTTP server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/config"
	"github.com/iliyamo/booking-resolver/internal/database"
	"github.com/iliyamo/booking-resolver/internal/primary"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/repository"
	"github.com/iliyamo/booking-resolver/internal/service"
)

// App holds the wired dependency graph.  Optional backends are nil when
// not configured or unreachable.
type App struct {
	Config config.Config
	Log    *zap.Logger

	Redis     *redis.Client
	DB        *sql.DB
	Primary   *primary.Client
	Publisher queue.Publisher

	Mirror   repository.BookingStore
	Ledger   *repository.CompositeLedger
	Writer   *service.RepairWriter
	Resolver *service.Resolver
	Engine   *service.Engine
	Diag     *service.Diagnostics
}

// New connects the configured backends and builds the services.  Redis is
// optional: without it the Mirror lives in process memory.  A configured
// MySQL ledger that cannot be opened or migrated is an error.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Publisher: queue.Nop{}}
	storeCfg := config.LoadStoreConfig()

	a.Redis = config.NewRedisClient()
	if a.Redis == nil {
		log.Warn("redis unavailable; mirror kept in memory")
	}

	if cfg.LedgerDBEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open ledger database: %w", err)
		}
		a.DB = db
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate ledger database: %w", err)
		}
		if v, err := database.Version(ctx, db); err == nil {
			log.Info("ledger database ready", zap.Int64("schema_version", v))
		}
	}

	a.Primary = primary.NewClient(cfg.PrimaryBaseURL, cfg.PrimaryToken, cfg.PrimaryTimeout)
	if cfg.RabbitURL != "" {
		a.Publisher = queue.NewAMQPPublisher(cfg.RabbitURL, log)
	}

	a.Mirror = newMirror(a.Redis, storeCfg, log)
	a.Ledger = newLedger(storeCfg, a.Primary, a.DB, a.Redis, log)

	synth := service.NewSynthesizer()
	synth.Location = cfg.Location
	a.Writer = service.NewRepairWriter(a.Mirror, a.Publisher, log)

	// A typed nil would defeat the strategies' nil checks.
	var (
		fetcher   service.BookingFetcher
		canceller service.Canceller
	)
	if a.Primary.Enabled() {
		fetcher, canceller = a.Primary, a.Primary
	} else {
		log.Warn("PRIMARY_BASE_URL not set; resolving and cancelling locally only")
	}

	a.Resolver = service.NewDefaultResolver(fetcher, a.Mirror, a.Ledger, a.Writer, synth, log)
	a.Engine = service.NewEngine(a.Resolver, canceller, a.Writer, a.Publisher, log)
	a.Engine.MinLeadTime = cfg.CancelMinLeadTime
	a.Engine.Location = cfg.Location
	a.Diag = service.NewDiagnostics(a.Mirror, a.Ledger, a.Writer, a.Engine, synth, a.Publisher, log)
	return a, nil
}

// Close releases the backend connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func newMirror(rdb *redis.Client, cfg config.StoreConfig, log *zap.Logger) repository.BookingStore {
	if rdb == nil {
		return repository.NewMemoryMirror()
	}
	log.Info("mirror backed by redis", zap.String("key", cfg.MirrorKey))
	return repository.NewRedisMirror(rdb, cfg.MirrorKey)
}

// newLedger assembles the payment sources in the configured order,
// skipping those whose backend is not available.
func newLedger(cfg config.StoreConfig, client *primary.Client, db *sql.DB, rdb *redis.Client, log *zap.Logger) *repository.CompositeLedger {
	var sources []repository.NamedLedger
	for _, name := range cfg.LedgerSources {
		switch name {
		case "remote":
			if client.Enabled() {
				sources = append(sources, repository.NamedLedger{Name: name, Store: repository.NewRemoteLedger(client)})
			}
		case "mysql":
			if db != nil {
				sources = append(sources, repository.NamedLedger{Name: name, Store: repository.NewPaymentRepo(db)})
			}
		case "redis":
			if rdb != nil {
				sources = append(sources, repository.NamedLedger{Name: name, Store: repository.NewRedisLedger(rdb, cfg.LedgerKey)})
			}
		default:
			log.Warn("unknown ledger source ignored", zap.String("source", name))
		}
	}
	return repository.NewCompositeLedger(log, sources...)
}
