package main

import (
	"time"

	"slotbook/internal/bookings/handler"
	"slotbook/internal/bookings/repository"
	"slotbook/internal/bookings/service"
	"slotbook/internal/bookings/validator"
	"slotbook/internal/events"
	"slotbook/internal/sessions"
	"slotbook/internal/slots"
	"slotbook/internal/workflow"
	"slotbook/pkg/app"
	"slotbook/pkg/config"
)

const ServiceName = "bookings"

const (
	sessionTTL           = 30 * time.Minute
	sessionSweepInterval = 5 * time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting bookings service")

	bookingService := initBookingService(cfg)
	registry := initSessions(cfg, bookingService)
	defer registry.Stop()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		sessions.NewSessionHandler(registry, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.Run()
}

func initBookingService(cfg *config.Config) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	bookingService := service.NewBookingService(bookingRepo, bookingValidator, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initSessions(cfg *config.Config, store workflow.BookingStore) *sessions.Registry {
	availability := slots.NewRandomAvailability(time.Now().UnixNano(), cfg.SlotAvailabilityRate)
	slotSource := slots.NewGenerator(cfg.SlotStartHour, cfg.SlotEndHour, availability)

	workflowCfg := workflow.Config{
		MaxDays:     cfg.BookingMaxDays,
		SettleDelay: cfg.SlotSettleDelay,
	}

	var opts []workflow.Option
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, ServiceName, cfg.Log)
		opts = append(opts, workflow.WithEventPublisher(publisher))
		cfg.Log.Info("Booking event publishing enabled", "topic", cfg.KafkaEventsTopic)
	}

	factory := func(notifier workflow.Notifier) *workflow.Workflow {
		return workflow.New(workflowCfg, store, slotSource, notifier, cfg.Log, opts...)
	}

	return sessions.NewRegistry(factory, sessionTTL, sessionSweepInterval)
}
