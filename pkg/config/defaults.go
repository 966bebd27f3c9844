package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Booking window: today plus the following four days.
	DefaultBookingMaxDays = 5

	// Bookable day runs 09:00..16:30, end hour exclusive.
	DefaultSlotStartHour = 9
	DefaultSlotEndHour   = 17

	// Placeholder availability ratio until a real capacity feed exists.
	DefaultSlotAvailabilityRate = 0.7

	// Simulated settling delay between a date change and the slot list
	// becoming visible.
	DefaultSlotSettleDelay = 1 * time.Second

	DefaultKafkaEventsTopic = "booking-events"
)
