package observer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pool owns the registry of shared host observers. The zero value is not
// usable; create one with NewPool. All methods are safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	factory   Factory
	instances map[string]*instance
	disabled  bool
	log       *slog.Logger
	now       func() time.Time
}

type instance struct {
	id        uuid.UUID
	signature string
	host      Observer
	elements  map[string]Callback
	createdAt time.Time
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) { p.log = log }
}

// NewPool creates a Pool backed by factory. A nil factory behaves like Noop.
func NewPool(factory Factory, opts ...PoolOption) *Pool {
	p := &Pool{
		factory:   factory,
		instances: make(map[string]*instance),
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if factory == nil {
		p.disabled = true
	}
	return p
}

// Supported reports whether the host capability is available. It turns
// false permanently the first time the factory returns ErrUnsupported.
func (p *Pool) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.disabled
}

// Observe registers cb for target under the host for opts, creating that
// host on first use. An empty target is ignored so callers can pass refs
// that are not attached yet.
func (p *Pool) Observe(target string, cb Callback, opts Options) error {
	if target == "" {
		return nil
	}
	sig, err := Signature(opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	var orphan Observer
	defer func() {
		p.mu.Unlock()
		if orphan != nil {
			orphan.Disconnect()
		}
	}()

	if p.disabled {
		return nil
	}

	inst, ok := p.instances[sig]
	if !ok {
		inst = &instance{
			id:        uuid.New(),
			signature: sig,
			elements:  make(map[string]Callback),
			createdAt: p.now(),
		}
		host, err := p.factory(func(entries []Entry) { p.deliver(inst, entries) }, opts)
		if errors.Is(err, ErrUnsupported) {
			p.disabled = true
			p.log.Warn("observer capability unavailable, observation disabled")
			return nil
		}
		if err != nil {
			return fmt.Errorf("create observer %s: %w", sig, err)
		}
		inst.host = host
		p.instances[sig] = inst
		p.log.Debug("observer created", "signature", sig, "instance_id", inst.id)
	}

	prev, replacing := inst.elements[target]
	inst.elements[target] = cb
	if err := inst.host.Observe(target); err != nil {
		if replacing {
			inst.elements[target] = prev
			return fmt.Errorf("observe %s: %w", target, err)
		}
		delete(inst.elements, target)
		if len(inst.elements) == 0 {
			orphan = p.removeLocked(inst)
		}
		return fmt.Errorf("observe %s: %w", target, err)
	}
	return nil
}

// Unobserve stops observing target under the host for opts. When it was the
// host's last target the host is disconnected and forgotten.
func (p *Pool) Unobserve(target string, opts Options) {
	if target == "" {
		return
	}
	sig, err := Signature(opts)
	if err != nil {
		return
	}

	p.mu.Lock()
	inst, ok := p.instances[sig]
	if !ok {
		p.mu.Unlock()
		return
	}
	inst.host.Unobserve(target)
	delete(inst.elements, target)
	var orphan Observer
	if len(inst.elements) == 0 {
		orphan = p.removeLocked(inst)
	}
	p.mu.Unlock()

	if orphan != nil {
		orphan.Disconnect()
	}
}

// Disconnect tears down the host for opts regardless of how many targets it
// still has.
func (p *Pool) Disconnect(opts Options) {
	sig, err := Signature(opts)
	if err != nil {
		return
	}

	p.mu.Lock()
	inst, ok := p.instances[sig]
	var orphan Observer
	if ok {
		orphan = p.removeLocked(inst)
	}
	p.mu.Unlock()

	if orphan != nil {
		orphan.Disconnect()
	}
}

// Reset disconnects every host and empties the registry.
func (p *Pool) Reset() {
	p.mu.Lock()
	orphans := make([]Observer, 0, len(p.instances))
	for _, inst := range p.instances {
		orphans = append(orphans, p.removeLocked(inst))
	}
	p.mu.Unlock()

	for _, o := range orphans {
		o.Disconnect()
	}
}

// removeLocked drops inst from the registry and returns its host. Hosts are
// disconnected after the lock is released because a host may be blocked
// delivering entries back into the pool.
func (p *Pool) removeLocked(inst *instance) Observer {
	inst.elements = make(map[string]Callback)
	delete(p.instances, inst.signature)
	p.log.Debug("observer disconnected", "signature", inst.signature, "instance_id", inst.id)
	return inst.host
}

// deliver routes a host batch to the registered callbacks. Callbacks run
// without the lock held so they may unobserve their own target.
func (p *Pool) deliver(inst *instance, entries []Entry) {
	type call struct {
		cb    Callback
		entry Entry
	}

	p.mu.Lock()
	calls := make([]call, 0, len(entries))
	for _, e := range entries {
		if cb, ok := inst.elements[e.Target]; ok && cb != nil {
			calls = append(calls, call{cb: cb, entry: e})
		}
	}
	p.mu.Unlock()

	for _, c := range calls {
		c.cb(c.entry)
	}
}

// Len returns the number of live hosts.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.instances)
}

// InstanceStats describes one live host.
type InstanceStats struct {
	Signature  string    `json:"signature"`
	InstanceID string    `json:"instance_id"`
	Targets    []string  `json:"targets"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats returns a snapshot of live hosts ordered by signature.
func (p *Pool) Stats() []InstanceStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]InstanceStats, 0, len(p.instances))
	for _, inst := range p.instances {
		targets := make([]string, 0, len(inst.elements))
		for t := range inst.elements {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		out = append(out, InstanceStats{
			Signature:  inst.signature,
			InstanceID: inst.id.String(),
			Targets:    targets,
			CreatedAt:  inst.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Binding is a Pool bound to one options value.
type Binding struct {
	pool *Pool
	opts Options
}

// Observer binds opts so callers can observe and unobserve without passing
// the options each time.
func (p *Pool) Observer(opts Options) Binding {
	return Binding{pool: p, opts: opts}
}

func (b Binding) Observe(target string, cb Callback) error {
	return b.pool.Observe(target, cb, b.opts)
}

func (b Binding) Unobserve(target string) {
	b.pool.Unobserve(target, b.opts)
}

func (b Binding) Disconnect() {
	b.pool.Disconnect(b.opts)
}
