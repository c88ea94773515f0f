package appcontext

import (
	"sort"
	"sync"
)

// JurisdictionChange is delivered when the selected jurisdiction changes.
type JurisdictionChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// JurisdictionTracker remembers the last observed jurisdiction code and
// notifies listeners when a later observation differs. Nothing fires until
// a non-empty code has been seen.
type JurisdictionTracker struct {
	mu        sync.Mutex
	prev      string
	nextID    int
	listeners map[int]func(JurisdictionChange)
}

func NewJurisdictionTracker() *JurisdictionTracker {
	return &JurisdictionTracker{listeners: make(map[int]func(JurisdictionChange))}
}

// OnChange registers fn and returns a function that removes it.
func (t *JurisdictionTracker) OnChange(fn func(JurisdictionChange)) (remove func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Observe records code and reports whether listeners were notified.
func (t *JurisdictionTracker) Observe(code string) bool {
	t.mu.Lock()
	prev := t.prev
	t.prev = code
	if prev == "" || prev == code {
		t.mu.Unlock()
		return false
	}
	ids := make([]int, 0, len(t.listeners))
	for id := range t.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(JurisdictionChange), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, t.listeners[id])
	}
	t.mu.Unlock()

	ev := JurisdictionChange{From: prev, To: code}
	for _, fn := range fns {
		fn(ev)
	}
	return true
}

// Current returns the last observed code.
func (t *JurisdictionTracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prev
}
