// Package slots produces the bookable time-slot candidates for a day:
// fixed 30-minute boundaries between a start hour and an exclusive end hour.
package slots

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"slotbook/pkg/model"
)

// AvailabilitySource decides whether a generated slot is bookable. It stands
// in for a real capacity feed; implementations carry no fairness or
// reproducibility guarantees beyond their own contract.
type AvailabilitySource interface {
	IsAvailable(date time.Time, label string) bool
}

type Generator struct {
	startHour int
	endHour   int
	source    AvailabilitySource
}

// NewGenerator builds a generator for slots in [startHour, endHour), with
// availability decided by source.
func NewGenerator(startHour, endHour int, source AvailabilitySource) *Generator {
	return &Generator{
		startHour: startHour,
		endHour:   endHour,
		source:    source,
	}
}

// Generate returns a fresh slot list for the date: one slot per 30-minute
// boundary, labels zero-padded 24-hour HH:MM, strictly increasing. The date
// does not influence the labels today; the signature accepts it so a real
// availability feed can be keyed by day.
func (g *Generator) Generate(date time.Time) []model.TimeSlot {
	out := make([]model.TimeSlot, 0, 2*(g.endHour-g.startHour))
	for hour := g.startHour; hour < g.endHour; hour++ {
		for _, minute := range []int{0, 30} {
			label := fmt.Sprintf("%02d:%02d", hour, minute)
			out = append(out, model.TimeSlot{
				Time:        label,
				IsAvailable: g.source.IsAvailable(date, label),
			})
		}
	}
	return out
}

type randomAvailability struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rate float64
}

// NewRandomAvailability draws each slot's availability with the given
// probability from a seeded generator, so a fixed seed yields a
// reproducible sequence.
func NewRandomAvailability(seed int64, rate float64) AvailabilitySource {
	return &randomAvailability{
		rng:  rand.New(rand.NewSource(seed)),
		rate: rate,
	}
}

func (a *randomAvailability) IsAvailable(_ time.Time, _ string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64() < a.rate
}

// TableAvailability marks exactly the listed labels unavailable; every other
// slot is bookable. Useful for tests and for a hand-maintained block list.
type TableAvailability map[string]bool

func (t TableAvailability) IsAvailable(_ time.Time, label string) bool {
	blocked, ok := t[label]
	return !ok || !blocked
}
