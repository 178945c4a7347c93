package webserver

import (
	"sync"
	"time"

	"cartview/internal/cartstore"
	"cartview/internal/cartview"
)

type viewEntry struct {
	view     *cartview.View
	store    *cartstore.Store
	lastSeen time.Time
}

// viewSet keeps one cart view per session and user, so busy state and the
// clear dialog survive across requests.
type viewSet struct {
	mu    sync.Mutex
	views map[string]*viewEntry
	now   func() time.Time
}

func newViewSet() *viewSet {
	return &viewSet{views: make(map[string]*viewEntry), now: time.Now}
}

func viewKey(session, userID string) string {
	return session + "\x00" + userID
}

// get returns the view for key, building a new one when none exists or the
// store behind it was replaced.
func (vs *viewSet) get(key string, store *cartstore.Store, build func() *cartview.View) *cartview.View {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	e, ok := vs.views[key]
	if !ok || e.store != store {
		e = &viewEntry{view: build(), store: store}
		vs.views[key] = e
	}
	e.lastSeen = vs.now()
	return e.view
}

// sweep drops views idle for longer than maxIdle. Views with a mutation in
// flight are kept.
func (vs *viewSet) sweep(maxIdle time.Duration) int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	cutoff := vs.now().Add(-maxIdle)
	n := 0
	for key, e := range vs.views {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.view.Phase(cartview.RemoveClass).Busy() || e.view.Phase(cartview.ClearClass).Busy() {
			continue
		}
		delete(vs.views, key)
		n++
	}
	return n
}

func (vs *viewSet) len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}
