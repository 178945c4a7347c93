// Package cartstore keeps a client-side copy of one user's cart and keeps it in
// step with the cart API.
//
// Mutations are optimistic: the local snapshot changes first, then the backend
// is called. A successful call replaces the snapshot with the authoritative cart
// the backend returns. A failed call leaves the snapshot as it is; callers decide
// whether to reconcile with SyncFromServer.
package cartstore

import (
	"context"
	"sync"

	"cartview/internal/domain"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WholeLine as a removal quantity drops the line regardless of its quantity.
const WholeLine = 0

// Backend is the remote cart API. Every call returns the authoritative cart
// after the operation; a nil slice on success means "not reported".
type Backend interface {
	Fetch(ctx context.Context) ([]domain.CartLine, error)
	Remove(ctx context.Context, itemID string, quantity int) ([]domain.CartLine, error)
	Clear(ctx context.Context) ([]domain.CartLine, error)
}

// Observer receives a private copy of the snapshot after every change.
type Observer func(lines []domain.CartLine)

type Store struct {
	mu      sync.Mutex
	backend Backend
	lines   []domain.CartLine
	subs    map[uint64]Observer
	nextSub uint64
	log     logrus.FieldLogger
}

func New(backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		backend: backend,
		lines:   []domain.CartLine{},
		subs:    make(map[uint64]Observer),
		log:     log,
	}
}

// Items returns a copy of the current snapshot in cart order.
func (s *Store) Items() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription and is safe to call more than once.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Remove decrements itemID by quantity, or drops the line when quantity is
// WholeLine. Lines reaching zero are pruned.
func (s *Store) Remove(ctx context.Context, itemID string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	s.update(func(lines []domain.CartLine) []domain.CartLine {
		return removeLocal(lines, itemID, quantity)
	})

	lines, err := s.currentBackend().Remove(ctx, itemID, quantity)
	if err != nil {
		return errors.Wrapf(err, "remove item %s", itemID)
	}
	if lines != nil {
		s.replace(lines)
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.update(func([]domain.CartLine) []domain.CartLine {
		return []domain.CartLine{}
	})

	lines, err := s.currentBackend().Clear(ctx)
	if err != nil {
		return errors.Wrap(err, "clear cart")
	}
	if lines != nil {
		s.replace(lines)
	}
	return nil
}

// SyncFromServer replaces the snapshot with the backend's authoritative cart.
func (s *Store) SyncFromServer(ctx context.Context) error {
	lines, err := s.currentBackend().Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch cart")
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	s.replace(lines)
	return nil
}

func (s *Store) currentBackend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

func (s *Store) setBackend(b Backend) {
	s.mu.Lock()
	s.backend = b
	s.mu.Unlock()
}

func (s *Store) replace(lines []domain.CartLine) {
	s.update(func([]domain.CartLine) []domain.CartLine {
		return domain.CloneLines(lines)
	})
}

func (s *Store) update(fn func([]domain.CartLine) []domain.CartLine) {
	s.mu.Lock()
	s.lines = fn(s.lines)
	observers := make([]Observer, 0, len(s.subs))
	for _, o := range s.subs {
		observers = append(observers, o)
	}
	snapshot := s.lines
	s.mu.Unlock()

	for _, o := range observers {
		o(domain.CloneLines(snapshot))
	}
}

func removeLocal(lines []domain.CartLine, itemID string, quantity int) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ItemID != itemID {
			out = append(out, l)
			continue
		}
		if quantity == WholeLine || l.Quantity <= quantity {
			continue
		}
		l.Quantity -= quantity
		out = append(out, l)
	}
	return out
}
