// Package workflow implements the stateful coordinator governing the booking
// user journey: name entry, bounded date navigation, slot selection,
// confirmation against the booking store, and the manage/cancel path.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slotbook/pkg/dateutil"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

type State string

const (
	StateAwaitingName State = "awaiting_name"
	StateBrowsing     State = "browsing"
	StateSlotLoading  State = "slot_loading"
	StateSlotSelected State = "slot_selected"
)

// Store actions guarded against re-entrant triggers while a call is
// outstanding.
const (
	actionConfirm       = "confirm"
	actionManage        = "manage"
	actionCancelBooking = "cancel_booking"
)

// BookingStore is the document-store boundary the workflow drives. Each call
// is independent; no transactional guarantees are assumed across them.
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) (string, error)
	FindFirstByUserName(ctx context.Context, userName string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

// SlotSource produces the candidate slots for a date.
type SlotSource interface {
	Generate(date time.Time) []model.TimeSlot
}

// EventPublisher receives booking lifecycle events after successful store
// operations.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
}

type noopPublisher struct{}

func (noopPublisher) BookingConfirmed(context.Context, *model.Booking) {}
func (noopPublisher) BookingCancelled(context.Context, *model.Booking) {}

// Config carries the workflow's tunables.
type Config struct {
	// MaxDays bounds the selectable window to [today, today+MaxDays-1].
	MaxDays int
	// SettleDelay is the simulated latency between a date change and the
	// regenerated slots becoming visible. Zero completes synchronously.
	SettleDelay time.Duration
}

// Snapshot is a read-only view of the workflow state.
type Snapshot struct {
	State          State            `json:"state"`
	UserName       string           `json:"user_name,omitempty"`
	SelectedDate   string           `json:"selected_date,omitempty"`
	SelectedTime   string           `json:"selected_time,omitempty"`
	Slots          []model.TimeSlot `json:"slots,omitempty"`
	ManageOpen     bool             `json:"manage_open"`
	CurrentBooking *model.Booking   `json:"current_booking,omitempty"`
}

// Workflow owns one user session's booking state exclusively. All methods
// are safe for concurrent use; store calls run outside the state lock.
type Workflow struct {
	cfg      Config
	store    BookingStore
	slots    SlotSource
	notifier Notifier
	events   EventPublisher
	log      *logger.Logger
	clock    func() time.Time

	mu             sync.Mutex
	state          State
	userName       string
	selectedDate   time.Time
	selectedTime   string
	slotList       []model.TimeSlot
	manageOpen     bool
	currentBooking *model.Booking
	inFlight       map[string]bool

	// loadGen identifies the active slot load; a superseding SelectDate
	// bumps it and cancels the stale timer.
	loadGen   uint64
	loadTimer *time.Timer
}

type Option func(*Workflow)

// WithClock replaces the wall clock, fixing "today" for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Workflow) { w.clock = clock }
}

// WithEventPublisher attaches a booking event publisher.
func WithEventPublisher(events EventPublisher) Option {
	return func(w *Workflow) { w.events = events }
}

func New(cfg Config, store BookingStore, slotSource SlotSource, notifier Notifier, log *logger.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		cfg:      cfg,
		store:    store,
		slots:    slotSource,
		notifier: notifier,
		events:   noopPublisher{},
		log:      log,
		clock:    time.Now,
		state:    StateAwaitingName,
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SubmitName moves the session out of name entry. Empty or whitespace-only
// names are rejected with no state change; the caller re-prompts.
func (w *Workflow) SubmitName(name string) bool {
	name = sanitizer.NormalizeUserName(name)

	w.mu.Lock()
	if w.state != StateAwaitingName || name == "" {
		w.mu.Unlock()
		if name == "" {
			w.notifier.Error("Please enter your name")
		}
		return false
	}

	w.userName = name
	w.selectedDate = dateutil.StartOfDay(w.clock())
	w.slotList = w.slots.Generate(w.selectedDate)
	w.state = StateBrowsing
	w.mu.Unlock()

	w.log.Info("Session started", "user_name", name)
	return true
}

// SelectDate switches the session to the given date if it falls inside the
// booking window, clears any pending slot selection and schedules slot
// regeneration. A date change while a prior load is settling supersedes it.
func (w *Workflow) SelectDate(date time.Time) bool {
	w.mu.Lock()
	if w.state != StateBrowsing && w.state != StateSlotLoading {
		w.mu.Unlock()
		return false
	}

	today := dateutil.StartOfDay(w.clock())
	if !dateutil.IsSelectable(date, today, w.cfg.MaxDays) {
		w.mu.Unlock()
		return false
	}

	date = dateutil.StartOfDay(date)
	w.selectedDate = date
	w.selectedTime = ""
	w.state = StateSlotLoading

	w.loadGen++
	gen := w.loadGen
	if w.loadTimer != nil {
		w.loadTimer.Stop()
		w.loadTimer = nil
	}

	if w.cfg.SettleDelay <= 0 {
		w.finishSlotLoadLocked(gen, date)
		w.mu.Unlock()
		return true
	}

	w.loadTimer = time.AfterFunc(w.cfg.SettleDelay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.finishSlotLoadLocked(gen, date)
	})
	w.mu.Unlock()
	return true
}

// finishSlotLoadLocked publishes the freshly generated slots unless a newer
// load superseded this one. Callers hold w.mu.
func (w *Workflow) finishSlotLoadLocked(gen uint64, date time.Time) {
	if gen != w.loadGen {
		return
	}
	w.slotList = w.slots.Generate(date)
	w.state = StateBrowsing
	w.loadTimer = nil
}

// StepDate navigates one day backward or forward, rejecting steps that
// would leave the booking window.
func (w *Workflow) StepDate(dir dateutil.Direction) bool {
	w.mu.Lock()
	current := w.selectedDate
	today := dateutil.StartOfDay(w.clock())
	maxDays := w.cfg.MaxDays
	w.mu.Unlock()

	stepped, ok := dateutil.ClampStep(current, dir, today, maxDays)
	if !ok {
		return false
	}
	return w.SelectDate(stepped)
}

// SelectSlot marks the slot with the given label as the pending choice.
// Unknown and unavailable slots are rejected with no state change.
func (w *Workflow) SelectSlot(label string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateBrowsing {
		return false
	}

	for _, slot := range w.slotList {
		if slot.Time == label {
			if !slot.IsAvailable {
				return false
			}
			w.selectedTime = label
			w.state = StateSlotSelected
			return true
		}
	}
	return false
}

// CancelSelection abandons the pending slot without touching the store.
func (w *Workflow) CancelSelection() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSlotSelected {
		return false
	}
	w.selectedTime = ""
	w.state = StateBrowsing
	return true
}

// Confirm persists the pending selection. On success the selection is
// cleared; on failure the selected time is preserved so the user can retry
// the same slot. Either way the session returns to browsing.
func (w *Workflow) Confirm(ctx context.Context) bool {
	w.mu.Lock()
	if w.state != StateSlotSelected || w.inFlight[actionConfirm] {
		w.mu.Unlock()
		return false
	}
	w.inFlight[actionConfirm] = true
	booking := &model.Booking{
		UserName: w.userName,
		Date:     dateutil.FormatDate(w.selectedDate),
		Time:     w.selectedTime,
	}
	w.mu.Unlock()

	id, err := w.store.Create(ctx, booking)

	w.mu.Lock()
	delete(w.inFlight, actionConfirm)
	w.state = StateBrowsing
	if err == nil {
		w.selectedTime = ""
	}
	date := w.selectedDate
	w.mu.Unlock()

	if err != nil {
		w.log.Error("Booking confirmation failed", "user_name", booking.UserName, "error", err)
		w.notifier.Error("Failed to book appointment. Please try again.")
		return false
	}

	booking.ID = id
	w.notifier.Success(fmt.Sprintf("Appointment booked for %s at %s",
		displayDate(date), displayTime(booking.Time)))
	w.events.BookingConfirmed(ctx, booking)
	return true
}

// RequestManage looks up the user's current booking and opens the manage
// view when one exists.
func (w *Workflow) RequestManage(ctx context.Context) bool {
	w.mu.Lock()
	if w.state != StateBrowsing || w.manageOpen || w.inFlight[actionManage] {
		w.mu.Unlock()
		return false
	}
	w.inFlight[actionManage] = true
	userName := w.userName
	w.mu.Unlock()

	booking, err := w.store.FindFirstByUserName(ctx, userName)

	w.mu.Lock()
	delete(w.inFlight, actionManage)
	if err == nil {
		w.currentBooking = booking
		w.manageOpen = true
	}
	w.mu.Unlock()

	if err != nil {
		if apperrors.AsAppError(err).Code == apperrors.CodeNotFound {
			w.notifier.Info("No current booking found.")
		} else {
			w.log.Error("Booking lookup failed", "user_name", userName, "error", err)
			w.notifier.Error("Failed to fetch booking details.")
		}
		return false
	}
	return true
}

// CloseManage dismisses the manage view, keeping the booking intact.
func (w *Workflow) CloseManage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.manageOpen = false
	w.currentBooking = nil
}

// CancelBooking deletes the booking shown in the manage view. On failure
// the view stays open with the booking untouched.
func (w *Workflow) CancelBooking(ctx context.Context) bool {
	w.mu.Lock()
	if !w.manageOpen || w.currentBooking == nil || w.inFlight[actionCancelBooking] {
		w.mu.Unlock()
		return false
	}
	w.inFlight[actionCancelBooking] = true
	booking := w.currentBooking
	w.mu.Unlock()

	err := w.store.Delete(ctx, booking.ID)

	w.mu.Lock()
	delete(w.inFlight, actionCancelBooking)
	if err == nil {
		w.currentBooking = nil
		w.manageOpen = false
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Error("Booking cancellation failed", "id", booking.ID, "error", err)
		w.notifier.Error("Failed to cancel booking")
		return false
	}

	w.notifier.Success("Booking cancelled successfully")
	w.events.BookingCancelled(ctx, booking)
	return true
}

// Snapshot returns a copy of the current session state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		State:          w.state,
		UserName:       w.userName,
		SelectedTime:   w.selectedTime,
		ManageOpen:     w.manageOpen,
		CurrentBooking: w.currentBooking,
	}
	if !w.selectedDate.IsZero() {
		snap.SelectedDate = dateutil.FormatDate(w.selectedDate)
	}
	if w.slotList != nil {
		snap.Slots = make([]model.TimeSlot, len(w.slotList))
		copy(snap.Slots, w.slotList)
	}
	return snap
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func displayDate(date time.Time) string {
	return date.Format("January 2")
}

func displayTime(label string) string {
	t, err := time.Parse(dateutil.TimeLabel, label)
	if err != nil {
		return label
	}
	return t.Format("3:04 PM")
}
