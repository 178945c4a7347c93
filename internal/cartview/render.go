package cartview

import (
	"context"

	"cartview/internal/domain"
)

// LineView is one rendered cart row.
type LineView struct {
	ItemID   string
	Title    string
	Image    string
	Quantity int
	Subtotal string
}

// Page is everything the cart template needs for one render.
type Page struct {
	Authenticated bool
	Lines         []LineView
	Empty         bool
	// ShowClear is true only for a non-empty cart.
	ShowClear  bool
	DialogOpen bool
	// RemoveDisabled disables every decrement and remove control.
	RemoveDisabled bool
	// ClearDisabled disables the clear trigger and its confirm action.
	ClearDisabled bool
	TotalCents    int64
	Total         string
	Currency      string
}

// Render snapshots the store once and derives rows and total from that snapshot.
func (v *View) Render() Page {
	lines := v.store.Items()

	v.mu.Lock()
	removePhase := v.phases[RemoveClass]
	clearPhase := v.phases[ClearClass]
	dialogOpen := v.dialogOpen
	v.mu.Unlock()

	rows := make([]LineView, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, LineView{
			ItemID:   l.ItemID,
			Title:    l.Title(),
			Image:    l.Image(),
			Quantity: l.Quantity,
			Subtotal: domain.FormatCents(l.Subtotal()),
		})
	}
	total := domain.Total(lines)

	return Page{
		Authenticated:  v.auth.User() != nil,
		Lines:          rows,
		Empty:          len(lines) == 0,
		ShowClear:      len(lines) > 0,
		DialogOpen:     dialogOpen && len(lines) > 0,
		RemoveDisabled: removePhase.Busy(),
		ClearDisabled:  clearPhase.Busy(),
		TotalCents:     total,
		Total:          domain.FormatCents(total),
		Currency:       v.currency,
	}
}

// Watch signals on the returned channel whenever the store changes. The
// subscription ends when ctx is done. The channel is never closed, so callers
// select on ctx.Done() as well.
func (v *View) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	unsubscribe := v.store.Subscribe(func([]domain.CartLine) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return ch
}
