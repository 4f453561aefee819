package threat

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("threat not found")

// Source exposes the current alert snapshot to readers such as the
// response generator.
type Source interface {
	Snapshot() []Alert
}

// Stream is a Source that also pushes every new snapshot.
type Stream interface {
	Source
	Subscribe() (<-chan []Alert, func())
}

// Feed holds the ordered list of active alerts, newest first, and notifies
// listeners whenever it changes.
type Feed struct {
	// changeMu serialises mutate-and-notify so listeners see snapshots in order.
	changeMu  sync.Mutex
	mu        sync.RWMutex
	items     []Alert
	listeners []func([]Alert)
	subs      map[int]chan []Alert
	nextSub   int
}

// NewFeed returns a Feed preloaded with the supplied alerts, newest first.
func NewFeed(items []Alert) *Feed {
	seeded := make([]Alert, 0, len(items))
	for _, a := range items {
		seeded = append(seeded, withID(a))
	}
	return &Feed{items: seeded}
}

// Snapshot returns a copy of the current alert list.
func (f *Feed) Snapshot() []Alert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Alert(nil), f.items...)
}

// Len returns the number of active alerts.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// FindByID looks up an active alert by identifier.
func (f *Feed) FindByID(id string) (Alert, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, item := range f.items {
		if item.ID == id {
			return item, true
		}
	}
	return Alert{}, false
}

// OnChange registers fn to receive the snapshot after every mutation.
// Listeners must not mutate the feed.
func (f *Feed) OnChange(fn func([]Alert)) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Subscribe streams the snapshot after every mutation until cancel is called.
// Only the latest snapshot is kept for a slow reader; intermediate ones are
// dropped. Received slices are shared and must not be modified.
func (f *Feed) Subscribe() (<-chan []Alert, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs == nil {
		f.subs = make(map[int]chan []Alert)
	}
	id := f.nextSub
	f.nextSub++
	ch := make(chan []Alert, 1)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.changeMu.Lock()
			defer f.changeMu.Unlock()
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Push prepends alerts, given oldest first, so the last one becomes the
// current threat.
// Alerts without an ID are assigned one.
func (f *Feed) Push(alerts ...Alert) {
	if len(alerts) == 0 {
		return
	}
	f.changeMu.Lock()
	defer f.changeMu.Unlock()

	fresh := make([]Alert, 0, len(alerts))
	for i := len(alerts) - 1; i >= 0; i-- {
		fresh = append(fresh, withID(alerts[i]))
	}

	f.mu.Lock()
	f.items = append(fresh, f.items...)
	f.mu.Unlock()
	f.notify()
}

// Replace swaps the whole snapshot.
func (f *Feed) Replace(alerts []Alert) {
	f.changeMu.Lock()
	defer f.changeMu.Unlock()

	items := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, withID(alert))
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	f.notify()
}

// Resolve removes the alert with the given ID and reports whether it existed.
func (f *Feed) Resolve(id string) bool {
	f.changeMu.Lock()
	defer f.changeMu.Unlock()

	f.mu.Lock()
	idx := -1
	for i, item := range f.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		f.mu.Unlock()
		return false
	}
	f.items = append(f.items[:idx:idx], f.items[idx+1:]...)
	f.mu.Unlock()
	f.notify()
	return true
}

func (f *Feed) notify() {
	f.mu.RLock()
	snapshot := make([]Alert, len(f.items))
	copy(snapshot, f.items)
	listeners := make([]func([]Alert), len(f.listeners))
	copy(listeners, f.listeners)
	subs := make([]chan []Alert, 0, len(f.subs))
	for _, ch := range f.subs {
		subs = append(subs, ch)
	}
	f.mu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	for _, ch := range subs {
		offerLatest(ch, snapshot)
	}
}

// offerLatest replaces a pending snapshot nobody has read yet. Callers hold
// changeMu, so no other sender races on ch.
func offerLatest(ch chan []Alert, snapshot []Alert) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}

func withID(a Alert) Alert {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return a
}

// Dismiss resolves id on behalf of a conversation and reports unknown IDs as
// ErrNotFound.
func (f *Feed) Dismiss(_ context.Context, id string) error {
	if !f.Resolve(id) {
		return ErrNotFound
	}
	return nil
}
