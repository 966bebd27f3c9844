package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/slots"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

var fixedToday = time.Date(2024, time.January, 10, 8, 30, 0, 0, time.Local)

func fixedClock() time.Time { return fixedToday }

// In-memory booking store speaking the service's error taxonomy.
type fakeStore struct {
	mu          sync.Mutex
	bookings    map[string]*model.Booking
	nextID      int
	createErr   error
	findErr     error
	deleteErr   error
	createCalls int
	blockCreate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[string]*model.Booking)}
}

func (s *fakeStore) Create(ctx context.Context, booking *model.Booking) (string, error) {
	s.mu.Lock()
	s.createCalls++
	block := s.blockCreate
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	id := fmt.Sprintf("65b00000000000000000%04d", s.nextID)
	stored := *booking
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.bookings[id] = &stored
	return id, nil
}

func (s *fakeStore) FindFirstByUserName(ctx context.Context, userName string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var first *model.Booking
	for _, b := range s.bookings {
		if b.UserName != userName {
			continue
		}
		if first == nil || b.CreatedAt.Before(first.CreatedAt) {
			first = b
		}
	}
	if first == nil {
		return nil, apperrors.NotFound("Booking")
	}
	cp := *first
	return &cp, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.bookings[id]; !ok {
		return apperrors.NotFoundWithID("Booking", id)
	}
	delete(s.bookings, id)
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	infos     []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func newTestWorkflow(store BookingStore, notifier Notifier, opts ...Option) *Workflow {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	gen := slots.NewGenerator(9, 17, slots.TableAvailability{"09:30": true})
	cfg := Config{MaxDays: 5, SettleDelay: 0}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(cfg, store, gen, notifier, log, opts...)
}

func TestSubmitName(t *testing.T) {
	t.Run("empty and whitespace names are rejected", func(t *testing.T) {
		store := newFakeStore()
		notifier := &recordingNotifier{}
		w := newTestWorkflow(store, notifier)

		assert.False(t, w.SubmitName(""))
		assert.False(t, w.SubmitName("   \t "))
		assert.Equal(t, StateAwaitingName, w.State())
		assert.Zero(t, store.createCalls)
		assert.Len(t, notifier.errors, 2)
	})

	t.Run("valid name starts browsing on today with slots", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &recordingNotifier{})

		require.True(t, w.SubmitName("  Alice  "))

		snap := w.Snapshot()
		assert.Equal(t, StateBrowsing, snap.State)
		assert.Equal(t, "Alice", snap.UserName)
		assert.Equal(t, "2024-01-10", snap.SelectedDate)
		assert.Len(t, snap.Slots, 16)
	})

	t.Run("name is immutable once set", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &recordingNotifier{})
		require.True(t, w.SubmitName("Alice"))
		assert.False(t, w.SubmitName("Bob"))
		assert.Equal(t, "Alice", w.Snapshot().UserName)
	})
}

func TestSelectDate(t *testing.T) {
	w := newTestWorkflow(newFakeStore(), &recordingNotifier{})
	require.True(t, w.SubmitName("Alice"))

	t.Run("inside the window", func(t *testing.T) {
		ok := w.SelectDate(time.Date(2024, time.January, 14, 0, 0, 0, 0, time.Local))
		assert.True(t, ok)
		assert.Equal(t, "2024-01-14", w.Snapshot().SelectedDate)
	})

	t.Run("past the window is rejected", func(t *testing.T) {
		before := w.Snapshot().SelectedDate
		ok := w.SelectDate(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local))
		assert.False(t, ok)
		assert.Equal(t, before, w.Snapshot().SelectedDate)
	})

	t.Run("before today is rejected", func(t *testing.T) {
		ok := w.SelectDate(time.Date(2024, time.January, 9, 0, 0, 0, 0, time.Local))
		assert.False(t, ok)
	})

	t.Run("no date change while a slot is pending", func(t *testing.T) {
		require.True(t, w.SelectDate(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local)))
		require.True(t, w.SelectSlot("09:00"))
		assert.False(t, w.SelectDate(time.Date(2024, time.January, 11, 0, 0, 0, 0, time.Local)))
		require.True(t, w.CancelSelection())
	})

	t.Run("date change clears a preserved selection", func(t *testing.T) {
		// A failed confirmation leaves the selected time behind for retry;
		// navigating to another date discards it.
		store := newFakeStore()
		store.createErr = apperrors.Unavailable("Booking store")
		wf := newTestWorkflow(store, &recordingNotifier{})
		require.True(t, wf.SubmitName("Alice"))
		require.True(t, wf.SelectSlot("09:00"))
		require.False(t, wf.Confirm(context.Background()))
		assert.Equal(t, "09:00", wf.Snapshot().SelectedTime)

		require.True(t, wf.SelectDate(time.Date(2024, time.January, 11, 0, 0, 0, 0, time.Local)))
		assert.Empty(t, wf.Snapshot().SelectedTime)
	})
}

func TestStepDate(t *testing.T) {
	w := newTestWorkflow(newFakeStore(), &recordingNotifier{})
	require.True(t, w.SubmitName("Alice"))

	t.Run("backward from today is a no-op", func(t *testing.T) {
		assert.False(t, w.StepDate(-1))
		assert.Equal(t, "2024-01-10", w.Snapshot().SelectedDate)
	})

	t.Run("forward steps through the window", func(t *testing.T) {
		for _, want := range []string{"2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"} {
			require.True(t, w.StepDate(1))
			assert.Equal(t, want, w.Snapshot().SelectedDate)
		}
	})

	t.Run("forward from the last day is a no-op", func(t *testing.T) {
		assert.False(t, w.StepDate(1))
		assert.Equal(t, "2024-01-14", w.Snapshot().SelectedDate)
	})
}

func TestSelectSlot(t *testing.T) {
	w := newTestWorkflow(newFakeStore(), &recordingNotifier{})
	require.True(t, w.SubmitName("Alice"))

	t.Run("unavailable slot causes no transition", func(t *testing.T) {
		assert.False(t, w.SelectSlot("09:30"))
		assert.Equal(t, StateBrowsing, w.State())
		assert.Empty(t, w.Snapshot().SelectedTime)
	})

	t.Run("unknown label causes no transition", func(t *testing.T) {
		assert.False(t, w.SelectSlot("08:00"))
		assert.Equal(t, StateBrowsing, w.State())
	})

	t.Run("available slot becomes the pending choice", func(t *testing.T) {
		require.True(t, w.SelectSlot("09:00"))
		snap := w.Snapshot()
		assert.Equal(t, StateSlotSelected, snap.State)
		assert.Equal(t, "09:00", snap.SelectedTime)
	})

	t.Run("no selection while one is already pending", func(t *testing.T) {
		assert.False(t, w.SelectSlot("10:00"))
		assert.Equal(t, "09:00", w.Snapshot().SelectedTime)
	})
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &recordingNotifier{}
	w := newTestWorkflow(store, notifier)

	require.True(t, w.SubmitName("Alice"))
	require.True(t, w.SelectDate(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local)))
	require.True(t, w.SelectSlot("09:00"))
	require.True(t, w.Confirm(ctx))

	// Store received the canonical interchange forms.
	stored, err := store.FindFirstByUserName(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.UserName)
	assert.Equal(t, "2024-01-10", stored.Date)
	assert.Equal(t, "09:00", stored.Time)

	snap := w.Snapshot()
	assert.Equal(t, StateBrowsing, snap.State)
	assert.Empty(t, snap.SelectedTime)
	require.Len(t, notifier.successes, 1)
	assert.Equal(t, "Appointment booked for January 10 at 9:00 AM", notifier.successes[0])

	// Manage shows the booking, cancellation removes it.
	require.True(t, w.RequestManage(ctx))
	snap = w.Snapshot()
	assert.True(t, snap.ManageOpen)
	require.NotNil(t, snap.CurrentBooking)
	assert.Equal(t, stored.ID, snap.CurrentBooking.ID)

	require.True(t, w.CancelBooking(ctx))
	snap = w.Snapshot()
	assert.False(t, snap.ManageOpen)
	assert.Nil(t, snap.CurrentBooking)
	assert.Contains(t, notifier.successes, "Booking cancelled successfully")

	// A fresh manage request finds nothing.
	assert.False(t, w.RequestManage(ctx))
	assert.Contains(t, notifier.infos, "No current booking found.")
}

func TestConfirm_FailurePreservesSelection(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.createErr = apperrors.Unavailable("Booking store")
	notifier := &recordingNotifier{}
	w := newTestWorkflow(store, notifier)

	require.True(t, w.SubmitName("Alice"))
	require.True(t, w.SelectSlot("09:00"))
	assert.False(t, w.Confirm(ctx))

	snap := w.Snapshot()
	assert.Equal(t, StateBrowsing, snap.State)
	assert.Equal(t, "09:00", snap.SelectedTime, "failed confirmation keeps the slot for retry")
	assert.Equal(t, "Failed to book appointment. Please try again.", notifier.lastError())

	// Retry succeeds once the store recovers.
	store.mu.Lock()
	store.createErr = nil
	store.mu.Unlock()
	require.True(t, w.SelectSlot("09:00"))
	assert.True(t, w.Confirm(ctx))
}

func TestConfirm_RequiresPendingSelection(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &recordingNotifier{})
	require.True(t, w.SubmitName("Alice"))

	assert.False(t, w.Confirm(context.Background()))
	assert.Zero(t, store.createCalls)
}

func TestConfirm_InFlightGuard(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.blockCreate = make(chan struct{})
	w := newTestWorkflow(store, &recordingNotifier{})

	require.True(t, w.SubmitName("Alice"))
	require.True(t, w.SelectSlot("09:00"))

	first := make(chan bool)
	go func() { first <- w.Confirm(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.createCalls == 1
	}, time.Second, time.Millisecond)

	// Re-entrant confirm is rejected while the first call is outstanding.
	assert.False(t, w.Confirm(ctx))

	close(store.blockCreate)
	assert.True(t, <-first)

	store.mu.Lock()
	assert.Equal(t, 1, store.createCalls)
	store.mu.Unlock()
}

func TestRequestManage_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.findErr = apperrors.Unavailable("Booking store")
	notifier := &recordingNotifier{}
	w := newTestWorkflow(store, notifier)

	require.True(t, w.SubmitName("Alice"))
	assert.False(t, w.RequestManage(context.Background()))
	assert.Equal(t, "Failed to fetch booking details.", notifier.lastError())
	assert.False(t, w.Snapshot().ManageOpen)
}

func TestCancelBooking_FailureKeepsManageOpen(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &recordingNotifier{}
	w := newTestWorkflow(store, notifier)

	require.True(t, w.SubmitName("Alice"))
	require.True(t, w.SelectSlot("09:00"))
	require.True(t, w.Confirm(ctx))
	require.True(t, w.RequestManage(ctx))

	store.mu.Lock()
	store.deleteErr = apperrors.Unavailable("Booking store")
	store.mu.Unlock()

	assert.False(t, w.CancelBooking(ctx))
	snap := w.Snapshot()
	assert.True(t, snap.ManageOpen, "failed cancellation leaves the manage view open")
	assert.NotNil(t, snap.CurrentBooking)
	assert.Equal(t, "Failed to cancel booking", notifier.lastError())
}

// dateRecordingSlots tags each generated slot list with the date it was
// generated for, so a test can tell which load won.
type dateRecordingSlots struct{}

func (dateRecordingSlots) Generate(date time.Time) []model.TimeSlot {
	return []model.TimeSlot{{Time: date.Format("2006-01-02"), IsAvailable: true}}
}

func TestSelectDate_SupersededLoadIsCancelled(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	cfg := Config{MaxDays: 5, SettleDelay: 20 * time.Millisecond}
	w := New(cfg, newFakeStore(), dateRecordingSlots{}, &recordingNotifier{}, log, WithClock(fixedClock))

	require.True(t, w.SubmitName("Alice"))
	require.True(t, w.SelectDate(time.Date(2024, time.January, 11, 0, 0, 0, 0, time.Local)))
	require.True(t, w.SelectDate(time.Date(2024, time.January, 12, 0, 0, 0, 0, time.Local)))

	require.Eventually(t, func() bool {
		return w.State() == StateBrowsing
	}, time.Second, time.Millisecond)

	snap := w.Snapshot()
	require.Len(t, snap.Slots, 1)
	assert.Equal(t, "2024-01-12", snap.Slots[0].Time, "only the newest load may publish slots")
	assert.Equal(t, "2024-01-12", snap.SelectedDate)

	// The stale timer never flips the state back.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateBrowsing, w.State())
	assert.Equal(t, "2024-01-12", w.Snapshot().Slots[0].Time)
}
