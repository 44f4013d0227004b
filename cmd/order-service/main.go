package main

import (
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/infrastructure/adapter"
	"storefront/internal/service/order/interfaces"
)

const serviceName = "order-service"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	var repo domain.OrderRepository
	switch cfg.Order.Store {
	case "mysql":
		db, err := infrastructure.OpenMySQL(cfg.Infra.MySQL.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		repo, err = infrastructure.NewGormOrderRepository(db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize order repository")
		}
	default:
		repo = infrastructure.NewMemoryOrderRepository()
	}

	tracer := otel.Tracer(serviceName)
	stock := adapter.NewInventoryHTTPAdapter(httpclient.NewClient(tracer), cfg.Order.InventoryURL, cfg.Order.RemoteTimeout)

	writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderTopic)
	publisher := adapter.NewKafkaEventPublisher(writer)
	defer publisher.Close()

	service := application.NewOrderApplicationService(repo, stock, publisher, tracer)
	handler := interfaces.NewOrderHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.Order.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
