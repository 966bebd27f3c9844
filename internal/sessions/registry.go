// Package sessions exposes the booking workflow over HTTP: each browser
// session gets its own workflow instance, addressed by an opaque session ID.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/workflow"
)

// Notification is a buffered user-facing message, drained into the next
// HTTP response for the session.
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BufferedNotifier collects workflow notifications until the presentation
// layer picks them up.
type BufferedNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *BufferedNotifier) Success(message string) { n.append("success", message) }
func (n *BufferedNotifier) Error(message string)   { n.append("error", message) }
func (n *BufferedNotifier) Info(message string)    { n.append("info", message) }

func (n *BufferedNotifier) append(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Kind: kind, Message: message})
}

// Drain returns and clears the buffered notifications.
func (n *BufferedNotifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	return out
}

type Session struct {
	ID       string
	Workflow *workflow.Workflow
	Notifier *BufferedNotifier

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Factory builds a workflow bound to the given notifier.
type Factory func(notifier workflow.Notifier) *workflow.Workflow

// Registry tracks live sessions and evicts ones idle past the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(factory Factory, ttl time.Duration, sweepInterval time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 && sweepInterval > 0 {
		go r.sweep(sweepInterval)
	}
	return r
}

// Create starts a new session with a fresh workflow.
func (r *Registry) Create() *Session {
	notifier := &BufferedNotifier{}
	session := &Session{
		ID:       uuid.NewString(),
		Workflow: r.factory(notifier),
		Notifier: notifier,
		lastSeen: time.Now(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session
}

// Get returns the session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		session.touch(time.Now())
	}
	return session, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, session := range r.sessions {
				if session.idleSince(now) > r.ttl {
					delete(r.sessions, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
