// Package app wires configuration, storage backends and services together
// for the server and CLI entrypoints.
package app

import (
	"fmt"

	"github.com/andresuchdata/farmrisk/internal/api"
	"github.com/andresuchdata/farmrisk/internal/cache"
	"github.com/andresuchdata/farmrisk/internal/config"
	"github.com/andresuchdata/farmrisk/internal/repository/postgres"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/andresuchdata/farmrisk/internal/service"
	"github.com/andresuchdata/farmrisk/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type App struct {
	Services *api.Services
	redis    *redis.Client
}

// Build creates the repositories and services on top of db. Redis and object
// storage are optional; when Redis is unreachable the app runs without the
// refresh lock and alert events.
func Build(cfg *config.Config, db *postgres.DB) (*App, error) {
	loc, err := cfg.Risk.Location()
	if err != nil {
		return nil, err
	}
	clock := risk.NewSystemClock(loc)
	defaults := service.RiskDefaultsFromConfig(cfg.Risk)

	redisClient, err := cache.Connect(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without refresh lock and alert events")
		redisClient = nil
	}

	objectStore, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}

	ledger := postgres.NewLedgerRepository(db)
	alerts := postgres.NewAlertRepository(db)
	notifications := postgres.NewNotificationRepository(db)
	identity := postgres.NewIdentityRepository(db)

	services := &api.Services{
		Inventory: service.NewInventoryHealthService(ledger, clock, defaults),
		Alerts: service.NewAlertService(
			ledger,
			alerts,
			cache.NewRefreshLocker(redisClient, cfg.Cache),
			storage.NewRefreshArchiver(objectStore),
			clock,
			defaults,
		),
		Notifications: service.NewNotificationDispatcher(
			alerts,
			notifications,
			identity,
			cache.NewAlertEventPublisher(redisClient, cfg.Cache),
			clock,
		),
	}

	return &App{Services: services, redis: redisClient}, nil
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
