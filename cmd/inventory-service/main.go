package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
	"storefront/internal/service/inventory/infrastructure"
	"storefront/internal/service/inventory/interfaces"
)

const serviceName = "inventory-service"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	var ledger domain.StockLedger
	switch cfg.Inventory.Store {
	case "mysql":
		db, err := infrastructure.OpenMySQL(cfg.Infra.MySQL.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		ledger, err = infrastructure.NewGormLedger(db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize mysql ledger")
		}
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Infra.Redis.Addr})
		var err error
		ledger, err = infrastructure.NewRedisLedger(client)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis ledger")
		}
	default:
		ledger = infrastructure.NewMemoryLedger()
	}

	service := application.NewInventoryService(ledger)
	handler := interfaces.NewInventoryHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.Inventory.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
