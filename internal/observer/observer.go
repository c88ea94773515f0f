// Package observer shares one host observer per distinct configuration and
// fans its notifications out to per-target callbacks.
//
// A host observer is anything that can watch targets and report batches of
// entries: viewport intersection, element resize, filesystem changes. The
// Pool creates one host per canonical options Signature on first use and
// tears it down when its last target is unobserved, so identical
// configurations never produce duplicate hosts.
package observer

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by a Factory when the host capability is not
// available. The Pool treats it as permanent and degrades to no-ops.
var ErrUnsupported = errors.New("observer: host capability unavailable")

// Options configures a host observer. Equal options share a host.
type Options map[string]any

// Entry is one notification about an observed target. Hosts fill the fields
// that apply to them.
type Entry struct {
	Target string    // Observed target the entry belongs to.
	Time   time.Time // When the host recorded the change.

	Intersecting bool    // Intersection hosts.
	Ratio        float64 // Intersection hosts: visible fraction, 0..1.

	Width  float64 // Resize hosts.
	Height float64

	Name string // Filesystem hosts: the path that changed (may be inside Target).
	Op   string // Filesystem hosts: CREATE, WRITE, REMOVE, RENAME or CHMOD.
}

// Callback receives entries for one target.
type Callback func(Entry)

// NotifyFunc receives a batch of entries from a host.
type NotifyFunc func([]Entry)

// Observer is the host capability. Implementations must not call the
// NotifyFunc synchronously from Observe or Unobserve.
type Observer interface {
	Observe(target string) error
	Unobserve(target string)
	Disconnect()
}

// Factory creates a host observer for opts that reports through notify.
type Factory func(notify NotifyFunc, opts Options) (Observer, error)

// Noop is the Factory for environments without the capability: every
// observation is silently ignored.
func Noop(NotifyFunc, Options) (Observer, error) {
	return nil, ErrUnsupported
}
