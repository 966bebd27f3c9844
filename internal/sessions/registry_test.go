package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/slots"
	"slotbook/internal/workflow"
	"slotbook/pkg/logger"
)

func testFactory() Factory {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	gen := slots.NewGenerator(9, 17, slots.TableAvailability{})
	return func(notifier workflow.Notifier) *workflow.Workflow {
		return workflow.New(workflow.Config{MaxDays: 5}, nil, gen, notifier, log)
	}
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	registry := NewRegistry(testFactory(), 0, 0)

	session := registry.Create()
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Get(session.ID)
	require.True(t, ok)
	assert.Same(t, session, got)

	_, ok = registry.Get("missing")
	assert.False(t, ok)

	registry.Delete(session.ID)
	assert.Zero(t, registry.Len())
}

func TestRegistry_SweepsIdleSessions(t *testing.T) {
	registry := NewRegistry(testFactory(), 10*time.Millisecond, 5*time.Millisecond)
	defer registry.Stop()

	registry.Create()

	// Get refreshes the idle timer, so watch the count instead.
	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, time.Second, time.Millisecond, "idle session should be evicted")
}

func TestBufferedNotifier_Drain(t *testing.T) {
	n := &BufferedNotifier{}
	n.Success("booked")
	n.Info("fyi")
	n.Error("oops")

	got := n.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, Notification{Kind: "success", Message: "booked"}, got[0])
	assert.Equal(t, Notification{Kind: "info", Message: "fyi"}, got[1])
	assert.Equal(t, Notification{Kind: "error", Message: "oops"}, got[2])

	assert.Empty(t, n.Drain(), "drain clears the buffer")
}
