package main

import (
	"github.com/rs/zerolog/log"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/service/shipping/application"
	"storefront/internal/service/shipping/domain"
	"storefront/internal/service/shipping/infrastructure"
	"storefront/internal/service/shipping/interfaces"
)

const serviceName = "shipping-service"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	var repo domain.ShipmentRepository
	switch cfg.Shipping.Store {
	case "mysql":
		db, err := infrastructure.OpenMySQL(cfg.Infra.MySQL.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		repo, err = infrastructure.NewGormShipmentRepository(db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize shipment repository")
		}
	default:
		repo = infrastructure.NewMemoryShipmentRepository()
	}

	service := application.NewShippingService(repo)
	handler := interfaces.NewShippingHandler(service)
	consumer := application.NewShipmentConsumer(
		cfg.Infra.Kafka.Brokers,
		cfg.Infra.Kafka.OrderTopic,
		cfg.Infra.Kafka.GroupID,
		service,
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.Shipping.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
			appCtx.AddTask(consumer)
		},
	})
}
