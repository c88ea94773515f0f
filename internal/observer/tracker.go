package observer

import "sync"

// Intersection tracks whether one target is intersecting. With
// UnobserveOnEnter it stops observing after the first intersecting entry,
// which suits lazy loading; without it the value follows the target in and
// out, which suits carousels.
type Intersection struct {
	binding          Binding
	target           string
	unobserveOnEnter bool

	mu           sync.Mutex
	intersecting bool
	active       bool
}

// NewIntersection starts tracking target. The tracker reports false forever
// when the host capability is unavailable.
func NewIntersection(p *Pool, target string, opts Options, unobserveOnEnter bool) (*Intersection, error) {
	it := &Intersection{
		binding:          p.Observer(opts),
		target:           target,
		unobserveOnEnter: unobserveOnEnter,
		active:           true,
	}
	if err := it.binding.Observe(target, it.handle); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *Intersection) handle(e Entry) {
	it.mu.Lock()
	if !it.active {
		it.mu.Unlock()
		return
	}
	it.intersecting = e.Intersecting
	done := e.Intersecting && it.unobserveOnEnter
	it.mu.Unlock()

	if done {
		it.binding.Unobserve(it.target)
	}
}

// IsIntersecting returns the last reported state.
func (it *Intersection) IsIntersecting() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.intersecting
}

// Close ignores further entries and releases the target.
func (it *Intersection) Close() {
	it.mu.Lock()
	wasActive := it.active
	it.active = false
	it.mu.Unlock()

	if wasActive {
		it.binding.Unobserve(it.target)
	}
}

// Resize recomputes a boolean from every size entry of one target, for
// example "wider than the desktop breakpoint".
type Resize struct {
	binding   Binding
	target    string
	determine func(Entry) bool

	mu     sync.Mutex
	value  bool
	closed bool
}

// NewResize starts tracking target with determine.
func NewResize(p *Pool, target string, opts Options, determine func(Entry) bool) (*Resize, error) {
	r := &Resize{
		binding:   p.Observer(opts),
		target:    target,
		determine: determine,
	}
	if err := r.binding.Observe(target, r.handle); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resize) handle(e Entry) {
	v := r.determine(e)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.value = v
	}
}

// Value returns the last computed value.
func (r *Resize) Value() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Close releases the target.
func (r *Resize) Close() {
	r.mu.Lock()
	wasClosed := r.closed
	r.closed = true
	r.mu.Unlock()

	if !wasClosed {
		r.binding.Unobserve(r.target)
	}
}
