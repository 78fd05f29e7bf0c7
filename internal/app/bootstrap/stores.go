package bootstrap

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/braidbook/internal/appointments"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/catalog"
	"github.com/wolfman30/braidbook/internal/clients"
	appconfig "github.com/wolfman30/braidbook/internal/config"
	"github.com/wolfman30/braidbook/internal/events"
	"github.com/wolfman30/braidbook/internal/settings"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// Stores is the persistence layer selected by configuration.
type Stores struct {
	Calendar     calendar.Store
	Catalog      catalog.Store
	Clients      clients.Store
	Appointments appointments.Repository
	Settings     *settings.Store
	Outbox       events.Source

	// Memory is true when nothing survives a restart.
	Memory bool

	closers []func()
}

// Close releases pools and clients.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildStores wires PostgreSQL and Redis, or in-process stores when
// USE_MEMORY_STORE is set. Memory stores are seeded with a demo salon.
func BuildStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	defaults := settings.DefaultsFromConfig(cfg)

	if cfg.UseMemoryStore {
		stores := buildMemoryStores(defaults)
		if err := SeedDemo(ctx, stores.Calendar, stores.Catalog); err != nil {
			return nil, err
		}
		logger.Warn("using in-memory stores; data is lost on restart")
		return stores, nil
	}

	pool, err := BuildPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errors.New("bootstrap: DATABASE_URL is required unless USE_MEMORY_STORE=true")
	}
	stores := buildPostgresStores(pool, BuildRedisClient(ctx, cfg, logger, true), defaults)
	if stores.Settings == nil {
		logger.Warn("redis not configured; settings changes will not persist")
		stores.Settings = settings.NewMemoryStore(defaults)
	}
	return stores, nil
}

func buildMemoryStores(defaults settings.Defaults) *Stores {
	cal := calendar.NewMemoryStore()
	outbox := events.NewMemoryOutbox()
	return &Stores{
		Calendar:     cal,
		Catalog:      catalog.NewMemoryStore(),
		Clients:      clients.NewMemoryStore(),
		Appointments: appointments.NewMemoryRepository(cal, outbox),
		Settings:     settings.NewMemoryStore(defaults),
		Outbox:       outbox,
		Memory:       true,
	}
}

func buildPostgresStores(pool *pgxpool.Pool, rdb *redis.Client, defaults settings.Defaults) *Stores {
	stores := &Stores{
		Calendar:     calendar.NewPostgresStore(pool),
		Catalog:      catalog.NewPostgresStore(pool),
		Clients:      clients.NewPostgresStore(pool),
		Appointments: appointments.NewPostgresRepository(pool),
		Outbox:       events.NewOutboxStore(pool),
		closers:      []func(){pool.Close},
	}
	if rdb != nil {
		stores.Settings = settings.NewStore(rdb, defaults)
		stores.closers = append(stores.closers, func() { _ = rdb.Close() })
	}
	return stores
}
