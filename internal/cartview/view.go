// Package cartview is the cart screen: it renders the signed-in user's cart and
// mediates the remove, decrement and clear interactions against a cart store.
//
// Every mutation follows the same contract. It is a no-op without a user. It
// marks its class busy for the whole call, notifies a fixed success or failure
// message, and after a failure re-pulls the authoritative cart so no optimistic
// assumption survives. Raw store errors are logged, never shown.
package cartview

import (
	"context"
	"sync"

	"cartview/internal/auth"
	"cartview/internal/cartstore"
	"cartview/internal/domain"
	"cartview/internal/notify"
	"github.com/sirupsen/logrus"
)

const (
	MsgItemRemoved  = "Item removed from cart"
	MsgRemoveFailed = "Failed to remove item from cart"
	MsgCartCleared  = "Cart cleared"
	MsgClearFailed  = "Failed to clear cart"
)

// Store is the cart store the view reads from and mutates through.
type Store interface {
	Items() []domain.CartLine
	Remove(ctx context.Context, itemID string, quantity int) error
	Clear(ctx context.Context) error
	SyncFromServer(ctx context.Context) error
	Subscribe(fn cartstore.Observer) (unsubscribe func())
}

type View struct {
	auth     auth.Context
	store    Store
	notifier notify.Notifier
	log      logrus.FieldLogger
	currency string

	mu         sync.Mutex
	phases     phases
	dialogOpen bool
}

type Option func(*View)

func WithLogger(log logrus.FieldLogger) Option {
	return func(v *View) { v.log = log }
}

// WithCurrency sets the symbol prefixed to rendered amounts.
func WithCurrency(symbol string) Option {
	return func(v *View) { v.currency = symbol }
}

func New(authCtx auth.Context, store Store, notifier notify.Notifier, opts ...Option) *View {
	v := &View{
		auth:     authCtx,
		store:    store,
		notifier: notifier,
		log:      logrus.New(),
		currency: "$",
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RemoveOne decrements itemID by one unit.
func (v *View) RemoveOne(ctx context.Context, itemID string) Result {
	return v.mutate(ctx, RemoveClass, MsgItemRemoved, MsgRemoveFailed, func(ctx context.Context) error {
		return v.store.Remove(ctx, itemID, 1)
	}, logrus.Fields{"item_id": itemID, "quantity": 1})
}

// RemoveAll drops the whole line of itemID.
func (v *View) RemoveAll(ctx context.Context, itemID string) Result {
	return v.mutate(ctx, RemoveClass, MsgItemRemoved, MsgRemoveFailed, func(ctx context.Context) error {
		return v.store.Remove(ctx, itemID, cartstore.WholeLine)
	}, logrus.Fields{"item_id": itemID})
}

// RequestClear opens the clear confirmation. It never touches the store and is
// ignored while the cart is empty or a clear is in flight.
func (v *View) RequestClear() {
	if len(v.store.Items()) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phases[ClearClass].Busy() {
		return
	}
	v.dialogOpen = true
}

// CancelClear closes the confirmation without clearing.
func (v *View) CancelClear() {
	v.mu.Lock()
	v.dialogOpen = false
	v.mu.Unlock()
}

// ConfirmClear empties the cart. It only acts when the confirmation dialog is
// open, and closes it.
func (v *View) ConfirmClear(ctx context.Context) Result {
	if v.auth.User() == nil {
		return Skipped
	}
	v.mu.Lock()
	open := v.dialogOpen
	if open && !v.phases[ClearClass].Busy() {
		v.dialogOpen = false
	}
	v.mu.Unlock()
	if !open {
		return Unconfirmed
	}
	return v.mutate(ctx, ClearClass, MsgCartCleared, MsgClearFailed, v.store.Clear, nil)
}

// Phase reports the current state of class c.
func (v *View) Phase(c Class) Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phases[c]
}

func (v *View) mutate(ctx context.Context, class Class, okMsg, failMsg string, op func(context.Context) error, fields logrus.Fields) Result {
	user := v.auth.User()
	if user == nil {
		return Skipped
	}
	log := v.log.WithFields(fields).WithFields(logrus.Fields{"class": class.String(), "user_id": user.ID})

	v.mu.Lock()
	started := v.phases.begin(class)
	v.mu.Unlock()
	if !started {
		log.Debug("mutation already in flight")
		return Busy
	}

	ok := false
	defer func() {
		v.mu.Lock()
		v.phases.finish(class, ok)
		v.mu.Unlock()
	}()

	if err := op(ctx); err != nil {
		log.WithError(err).Warn("cart mutation failed, reconciling")
		v.notifier.Notify(notify.Notification{Title: failMsg})
		// Reconcile even when the request that triggered the mutation is gone.
		if err := v.store.SyncFromServer(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("cart reconciliation failed")
		}
		return FailedResult
	}

	ok = true
	log.Info("cart mutation succeeded")
	v.notifier.Notify(notify.Notification{Title: okMsg})
	return Succeeded
}
