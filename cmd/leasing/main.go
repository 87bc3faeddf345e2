package main

import (
	"github.com/julienschmidt/httprouter"

	leasehandler "autolease/internal/leases/handler"
	leaserepo "autolease/internal/leases/repository"
	leaseservice "autolease/internal/leases/service"
	"autolease/internal/lifecycle"
	reshandler "autolease/internal/reservations/handler"
	resrepo "autolease/internal/reservations/repository"
	resservice "autolease/internal/reservations/service"
	resvalidator "autolease/internal/reservations/validator"
	vehiclehandler "autolease/internal/vehicles/handler"
	vehiclerepo "autolease/internal/vehicles/repository"
	vehicleservice "autolease/internal/vehicles/service"
	"autolease/pkg/app"
	"autolease/pkg/config"
	"autolease/pkg/contracts"
	"autolease/pkg/kafka"
	kafka_config "autolease/pkg/kafka/config"
)

const ServiceName = "leasing"

// apiHandler mounts every domain handler on one router.
type apiHandler struct {
	handlers []contracts.Handler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting leasing service")

	producer := initProducer(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, producer))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.Topic, kafkaCfg.DLQTopic)
	if err != nil {
		// Event delivery is best effort; the engine runs without it.
		cfg.Log.Warn("Kafka producer unavailable, lifecycle events disabled", "error", err)
		return nil
	}
	return producer
}

func initHandlers(cfg *config.Config, producer *kafka.Producer) contracts.Handler {
	vehicleRepo := vehiclerepo.NewMongoVehicleRepository(cfg)
	lockRepo := vehiclerepo.NewVehicleLockRepository(cfg)
	reservationRepo := resrepo.NewMongoReservationRepository(cfg)
	leaseRepo := leaserepo.NewMongoLeaseRepository(cfg)

	reservationValidator := resvalidator.NewReservationValidator(cfg.Log)

	var publisher lifecycle.EventPublisher
	if producer != nil {
		publisher = producer
	}
	coordinator := lifecycle.NewCoordinator(
		vehicleRepo,
		lockRepo,
		reservationRepo,
		leaseRepo,
		reservationValidator,
		publisher,
		cfg,
	)

	vehicleService := vehicleservice.NewVehicleService(vehicleRepo, cfg)
	reservationService := resservice.NewReservationService(reservationRepo, cfg)
	leaseService := leaseservice.NewLeaseService(leaseRepo, cfg)

	cfg.Log.Info("Leasing services initialized", "database", cfg.MongoDatabaseName)

	return &apiHandler{handlers: []contracts.Handler{
		vehiclehandler.NewVehicleHandler(vehicleService, cfg.Log),
		reshandler.NewReservationHandler(reservationService, coordinator, cfg.Log),
		leasehandler.NewLeaseHandler(leaseService, coordinator, cfg.Log),
	}}
}
