package cartview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cartview/internal/auth"
	"cartview/internal/cartstore"
	"cartview/internal/domain"
	"cartview/internal/logging"
	"cartview/internal/notify"
	"github.com/google/go-cmp/cmp"
)

// events is an ordered log shared by the fake store and notifier.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.log = append(e.log, s)
	e.mu.Unlock()
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type eventNotifier struct{ ev *events }

func (n eventNotifier) Notify(note notify.Notification) { n.ev.add("notify:" + note.Title) }

type fakeStore struct {
	ev *events

	mu        sync.Mutex
	lines     []domain.CartLine
	removeErr error
	clearErr  error
	syncErr   error
	lastItem  string
	lastQty   int
	removes   int
	clears    int
	syncs     int
	observers map[int]cartstore.Observer
	nextID    int

	// gate, when set, blocks Remove and Clear until closed. entered is
	// signalled once the call is blocked.
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeStore) Items() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

func (s *fakeStore) wait() {
	if s.gate == nil {
		return
	}
	s.entered <- struct{}{}
	<-s.gate
}

func (s *fakeStore) Remove(_ context.Context, itemID string, quantity int) error {
	s.mu.Lock()
	s.removes++
	s.lastItem, s.lastQty = itemID, quantity
	err := s.removeErr
	s.mu.Unlock()
	s.ev.add("remove")
	s.wait()
	return err
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	s.clears++
	err := s.clearErr
	s.mu.Unlock()
	s.ev.add("clear")
	s.wait()
	return err
}

func (s *fakeStore) SyncFromServer(ctx context.Context) error {
	s.mu.Lock()
	s.syncs++
	err := s.syncErr
	s.mu.Unlock()
	s.ev.add("sync")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *fakeStore) Subscribe(fn cartstore.Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = map[int]cartstore.Observer{}
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *fakeStore) emit() {
	s.mu.Lock()
	obs := make([]cartstore.Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	lines := domain.CloneLines(s.lines)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(lines)
	}
}

func (s *fakeStore) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// stubBackend is an authoritative cart that always succeeds.
type stubBackend struct{}

func (stubBackend) Fetch(context.Context) ([]domain.CartLine, error) { return cartLines(), nil }

func (stubBackend) Remove(context.Context, string, int) ([]domain.CartLine, error) {
	return cartLines()[1:], nil
}

func (stubBackend) Clear(context.Context) ([]domain.CartLine, error) { return nil, nil }

var alice = &domain.User{ID: "u1", Email: "alice@example.com"}

func cartLines() []domain.CartLine {
	return []domain.CartLine{
		{ItemID: "1", Quantity: 2, Item: &domain.ItemSnapshot{Title: "Mug", Image: "/mug.png", PriceCents: 1000}},
		{ItemID: "2", Quantity: 1, Item: &domain.ItemSnapshot{Title: "Shirt", PriceCents: 500}},
	}
}

func newView(user *domain.User) (*View, *fakeStore, *events) {
	ev := &events{}
	store := &fakeStore{ev: ev, lines: cartLines()}
	v := New(auth.Fixed(user), store, eventNotifier{ev: ev}, WithLogger(logging.Discard()))
	return v, store, ev
}

func TestRenderScenarioTotal(t *testing.T) {
	v, _, _ := newView(alice)
	page := v.Render()
	if page.Total != "25.00" || page.TotalCents != 2500 {
		t.Fatalf("unexpected total %q (%d)", page.Total, page.TotalCents)
	}
	want := []LineView{
		{ItemID: "1", Title: "Mug", Image: "/mug.png", Quantity: 2, Subtotal: "20.00"},
		{ItemID: "2", Title: "Shirt", Quantity: 1, Subtotal: "5.00"},
	}
	if diff := cmp.Diff(want, page.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if page.Empty || !page.ShowClear || page.DialogOpen || page.RemoveDisabled || page.ClearDisabled {
		t.Fatalf("unexpected flags %+v", page)
	}
	if !page.Authenticated || page.Currency != "$" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestRenderEmptyCart(t *testing.T) {
	v, store, _ := newView(alice)
	store.lines = nil
	page := v.Render()
	if !page.Empty || page.ShowClear || len(page.Lines) != 0 || page.Total != "0.00" {
		t.Fatalf("unexpected empty page %+v", page)
	}
}

func TestRenderMissingSnapshot(t *testing.T) {
	v, store, _ := newView(alice)
	store.lines = []domain.CartLine{{ItemID: "9", Quantity: 3}}
	page := v.Render()
	if page.Lines[0].Title != "" || page.Lines[0].Subtotal != "0.00" || page.Total != "0.00" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestRemoveOneSuccess(t *testing.T) {
	v, store, ev := newView(alice)
	if res := v.RemoveOne(context.Background(), "1"); res != Succeeded {
		t.Fatalf("expected succeeded, got %s", res)
	}
	if store.lastItem != "1" || store.lastQty != 1 {
		t.Fatalf("unexpected remove(%q, %d)", store.lastItem, store.lastQty)
	}
	want := []string{"remove", "notify:" + MsgItemRemoved}
	if diff := cmp.Diff(want, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if v.Phase(RemoveClass) != Idle {
		t.Fatalf("expected idle, got %s", v.Phase(RemoveClass))
	}
}

func TestRemoveAllUsesWholeLine(t *testing.T) {
	v, store, ev := newView(alice)
	if res := v.RemoveAll(context.Background(), "2"); res != Succeeded {
		t.Fatalf("expected succeeded, got %s", res)
	}
	if store.lastItem != "2" || store.lastQty != cartstore.WholeLine {
		t.Fatalf("unexpected remove(%q, %d)", store.lastItem, store.lastQty)
	}
	if store.syncs != 0 {
		t.Fatalf("expected no sync on success, got %d", store.syncs)
	}
	if diff := cmp.Diff([]string{"remove", "notify:" + MsgItemRemoved}, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveFailureNotifiesThenSyncsOnce(t *testing.T) {
	v, store, ev := newView(alice)
	store.removeErr = errors.New("connection reset by peer")
	if res := v.RemoveAll(context.Background(), "1"); res != FailedResult {
		t.Fatalf("expected failed, got %s", res)
	}
	want := []string{"remove", "notify:" + MsgRemoveFailed, "sync"}
	if diff := cmp.Diff(want, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if v.Phase(RemoveClass) != Failed {
		t.Fatalf("expected failed phase, got %s", v.Phase(RemoveClass))
	}
	if v.Render().RemoveDisabled {
		t.Fatalf("controls must be enabled after failure")
	}

	// Failed accepts a new attempt.
	store.removeErr = nil
	if res := v.RemoveOne(context.Background(), "1"); res != Succeeded {
		t.Fatalf("expected retry to succeed, got %s", res)
	}
	if v.Phase(RemoveClass) != Idle {
		t.Fatalf("expected idle, got %s", v.Phase(RemoveClass))
	}
}

func TestSyncErrorIsSwallowed(t *testing.T) {
	v, store, ev := newView(alice)
	store.removeErr = errors.New("boom")
	store.syncErr = errors.New("still down")
	if res := v.RemoveOne(context.Background(), "1"); res != FailedResult {
		t.Fatalf("expected failed, got %s", res)
	}
	if diff := cmp.Diff([]string{"remove", "notify:" + MsgRemoveFailed, "sync"}, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if v.Phase(RemoveClass) != Failed {
		t.Fatalf("expected failed phase, got %s", v.Phase(RemoveClass))
	}
}

func TestSyncRunsAfterRequestCancelled(t *testing.T) {
	v, store, _ := newView(alice)
	store.removeErr = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v.RemoveOne(ctx, "1")
	if store.syncs != 1 {
		t.Fatalf("expected one sync, got %d", store.syncs)
	}
}

func TestUnauthenticatedIsNoop(t *testing.T) {
	v, store, ev := newView(nil)
	ctx := context.Background()
	if res := v.RemoveOne(ctx, "1"); res != Skipped {
		t.Fatalf("expected skipped, got %s", res)
	}
	if res := v.RemoveAll(ctx, "1"); res != Skipped {
		t.Fatalf("expected skipped, got %s", res)
	}
	v.RequestClear()
	if res := v.ConfirmClear(ctx); res != Skipped {
		t.Fatalf("expected skipped, got %s", res)
	}
	if store.removes != 0 || store.clears != 0 || store.syncs != 0 {
		t.Fatalf("unexpected store calls %d/%d/%d", store.removes, store.clears, store.syncs)
	}
	if got := ev.list(); len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
	if v.Render().Authenticated {
		t.Fatalf("expected unauthenticated page")
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	v, store, ev := newView(alice)

	v.RequestClear()
	if !v.Render().DialogOpen {
		t.Fatalf("expected dialog open")
	}
	if store.clears != 0 {
		t.Fatalf("request alone must not clear")
	}

	v.CancelClear()
	if v.Render().DialogOpen || store.clears != 0 {
		t.Fatalf("cancel must close without clearing")
	}

	if res := v.ConfirmClear(context.Background()); res != Unconfirmed {
		t.Fatalf("expected unconfirmed, got %s", res)
	}
	if store.clears != 0 {
		t.Fatalf("confirm without dialog must not clear")
	}

	v.RequestClear()
	if res := v.ConfirmClear(context.Background()); res != Succeeded {
		t.Fatalf("expected succeeded, got %s", res)
	}
	if store.clears != 1 {
		t.Fatalf("expected one clear, got %d", store.clears)
	}
	if v.Render().DialogOpen {
		t.Fatalf("confirm must close the dialog")
	}
	if diff := cmp.Diff([]string{"clear", "notify:" + MsgCartCleared}, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClearFailure(t *testing.T) {
	v, store, ev := newView(alice)
	store.clearErr = errors.New("503")
	v.RequestClear()
	if res := v.ConfirmClear(context.Background()); res != FailedResult {
		t.Fatalf("expected failed, got %s", res)
	}
	want := []string{"clear", "notify:" + MsgClearFailed, "sync"}
	if diff := cmp.Diff(want, ev.list()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if v.Phase(ClearClass) != Failed || v.Phase(RemoveClass) != Idle {
		t.Fatalf("unexpected phases %s/%s", v.Phase(ClearClass), v.Phase(RemoveClass))
	}
}

func TestRequestClearIgnoredOnEmptyCart(t *testing.T) {
	v, store, _ := newView(alice)
	store.lines = nil
	v.RequestClear()
	if v.Render().DialogOpen {
		t.Fatalf("dialog must not open for an empty cart")
	}
}

func blockingView(t *testing.T) (*View, *fakeStore) {
	t.Helper()
	v, store, _ := newView(alice)
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	return v, store
}

func waitEntered(t *testing.T, store *fakeStore) {
	t.Helper()
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("store call never started")
	}
}

func TestRemoveControlsDisabledWhilePending(t *testing.T) {
	v, store := blockingView(t)

	done := make(chan Result, 1)
	go func() { done <- v.RemoveOne(context.Background(), "1") }()
	waitEntered(t, store)

	page := v.Render()
	if !page.RemoveDisabled {
		t.Fatalf("remove controls must be disabled while pending")
	}
	if page.ClearDisabled {
		t.Fatalf("clear control must stay enabled during a remove")
	}
	if v.Phase(RemoveClass) != Pending {
		t.Fatalf("expected pending, got %s", v.Phase(RemoveClass))
	}
	if res := v.RemoveAll(context.Background(), "2"); res != Busy {
		t.Fatalf("expected busy, got %s", res)
	}

	close(store.gate)
	if res := <-done; res != Succeeded {
		t.Fatalf("expected succeeded, got %s", res)
	}
	if v.Render().RemoveDisabled {
		t.Fatalf("remove controls must be enabled after completion")
	}
	if store.removes != 1 {
		t.Fatalf("expected one remove call, got %d", store.removes)
	}
}

func TestClearPendingLeavesRemoveEnabled(t *testing.T) {
	v, store := blockingView(t)
	v.RequestClear()

	done := make(chan Result, 1)
	go func() { done <- v.ConfirmClear(context.Background()) }()
	waitEntered(t, store)

	page := v.Render()
	if !page.ClearDisabled || page.RemoveDisabled {
		t.Fatalf("unexpected flags while clearing %+v", page)
	}
	v.RequestClear()
	if v.Render().DialogOpen {
		t.Fatalf("trigger must be inert while clearing")
	}

	close(store.gate)
	if res := <-done; res != Succeeded {
		t.Fatalf("expected succeeded, got %s", res)
	}
	if v.Render().ClearDisabled {
		t.Fatalf("clear control must be enabled after completion")
	}
}

func TestWatchSignalsAndUnsubscribes(t *testing.T) {
	v, store, _ := newView(alice)
	ctx, cancel := context.WithCancel(context.Background())
	changes := v.Watch(ctx)
	if store.subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}

	store.emit()
	store.emit()
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatalf("expected a change signal")
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for store.subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected unsubscribe on cancel")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWatchSurvivesCancelDuringFanOut(t *testing.T) {
	for i := 0; i < 50; i++ {
		store := cartstore.New(&stubBackend{}, logging.Discard())
		v := New(auth.Fixed(alice), store, &notify.Recorder{}, WithLogger(logging.Discard()))

		ctx, cancel := context.WithCancel(context.Background())
		v.Watch(ctx)
		// A second observer ends the stream while the store is still
		// fanning out the same change.
		unsubscribe := store.Subscribe(func([]domain.CartLine) {
			cancel()
			time.Sleep(time.Millisecond)
		})

		if err := store.Remove(context.Background(), "1", 1); err != nil {
			t.Fatalf("remove: %v", err)
		}
		unsubscribe()
		cancel()
	}
}

func TestWithCurrency(t *testing.T) {
	v := New(auth.Fixed(alice), &fakeStore{ev: &events{}}, &notify.Recorder{}, WithCurrency("€"))
	if v.Render().Currency != "€" {
		t.Fatalf("unexpected currency")
	}
}
