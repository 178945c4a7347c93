package cartstore

import (
	"context"
	"sync"

	"cartview/internal/domain"
	"github.com/sirupsen/logrus"
)

// BackendFactory binds a Backend to one user's credentials.
type BackendFactory func(token string) Backend

type entry struct {
	store *Store
	token string
}

// Registry hands out one Store per user, populating it from the backend the
// first time it is requested.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*entry
	factory BackendFactory
	log     logrus.FieldLogger
}

func NewRegistry(factory BackendFactory, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		stores:  make(map[string]*entry),
		factory: factory,
		log:     log,
	}
}

// For returns the store of user, creating and syncing it on first use. A new
// token for a known user rebinds the existing store's backend.
func (r *Registry) For(ctx context.Context, user domain.User, token string) (*Store, error) {
	r.mu.Lock()
	e, ok := r.stores[user.ID]
	if ok {
		if e.token != token {
			e.store.setBackend(r.factory(token))
			e.token = token
		}
		r.mu.Unlock()
		return e.store, nil
	}
	r.mu.Unlock()

	store := New(r.factory(token), r.log.WithField("user_id", user.ID))
	if err := store.SyncFromServer(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.stores[user.ID]; ok {
		return e.store, nil
	}
	r.stores[user.ID] = &entry{store: store, token: token}
	r.log.WithField("user_id", user.ID).Debug("cart store initialized")
	return store, nil
}

// Forget drops the store of userID, e.g. on logout.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.stores, userID)
	r.mu.Unlock()
}

// Len reports how many user stores are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close drops every store.
func (r *Registry) Close() {
	r.mu.Lock()
	r.stores = make(map[string]*entry)
	r.mu.Unlock()
}

type emptyBackend struct{}

func (emptyBackend) Fetch(context.Context) ([]domain.CartLine, error) {
	return []domain.CartLine{}, nil
}

func (emptyBackend) Remove(context.Context, string, int) ([]domain.CartLine, error) {
	return []domain.CartLine{}, nil
}

func (emptyBackend) Clear(context.Context) ([]domain.CartLine, error) {
	return []domain.CartLine{}, nil
}

// Empty returns a store that always holds an empty cart, for anonymous visitors.
func Empty() *Store {
	return New(emptyBackend{}, nil)
}
