package model

import (
	"time"
)

// Booking is a persisted record binding a user name to one date and time slot.
// Date and Time are stored in their canonical interchange forms: "2006-01-02"
// dates and "15:04" 24-hour slot labels.
type Booking struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserName  string    `json:"user_name" bson:"user_name" validate:"required,min=1,max=100"`
	Date      string    `json:"date" bson:"date" validate:"required,dateonly"`
	Time      string    `json:"time" bson:"time" validate:"required,slottime"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// TimeSlot is a fixed 30-minute time-of-day candidate for booking.
// Slots are generated fresh per date request and never persisted.
type TimeSlot struct {
	Time        string `json:"time"`
	IsAvailable bool   `json:"is_available"`
}
