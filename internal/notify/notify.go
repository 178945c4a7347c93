// Package notify carries short user-facing messages from a mutation to the next
// page render.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Notification struct {
	Title string `json:"title"`
}

// Notifier accepts notifications without reporting failures back.
type Notifier interface {
	Notify(n Notification)
}

// FlashStore keeps pending notifications per browser session until drained.
type FlashStore interface {
	Push(ctx context.Context, session string, n Notification) error
	Drain(ctx context.Context, session string) ([]Notification, error)
}

type sessionNotifier struct {
	store   FlashStore
	session string
	log     logrus.FieldLogger
	timeout time.Duration
}

// ForSession adapts store to a Notifier bound to one session. Push failures are
// logged and dropped.
func ForSession(store FlashStore, session string, log logrus.FieldLogger) Notifier {
	if log == nil {
		log = logrus.New()
	}
	return &sessionNotifier{store: store, session: session, log: log, timeout: 2 * time.Second}
}

func (s *sessionNotifier) Notify(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Push(ctx, s.session, n); err != nil {
		s.log.WithField("title", n.Title).WithError(err).Warn("failed to store notification")
	}
}

type memoryEntry struct {
	items   []Notification
	expires time.Time
}

// MemoryStore is a process-local FlashStore.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		pending: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Push(_ context.Context, session string, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.evictLocked(now)
	e, ok := m.pending[session]
	if !ok {
		e = &memoryEntry{}
		m.pending[session] = e
	}
	e.items = append(e.items, n)
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	return nil
}

func (m *MemoryStore) Drain(_ context.Context, session string) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked(m.now())
	e, ok := m.pending[session]
	if !ok {
		return nil, nil
	}
	delete(m.pending, session)
	return e.items, nil
}

func (m *MemoryStore) evictLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for k, e := range m.pending {
		if now.After(e.expires) {
			delete(m.pending, k)
		}
	}
}

// Recorder collects notifications in memory. Handy where a Notifier is needed
// without a session, e.g. in tests and tools.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Title
	}
	return out
}
