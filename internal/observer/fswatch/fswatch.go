// Package fswatch is an observer host backed by fsnotify. Targets are
// filesystem paths; a directory target also reports changes to its entries.
package fswatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/navcore/internal/observer"
	"github.com/fsnotify/fsnotify"
)

// Option keys understood by the host.
const (
	OptionDebounce = "debounce" // Duration string, e.g. "250ms". Zero delivers immediately.
	OptionOps      = "ops"      // List of create, write, remove, rename, chmod.
)

const defaultOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Factory returns an observer.Factory creating fsnotify hosts.
func Factory(log *slog.Logger) observer.Factory {
	if log == nil {
		log = slog.Default()
	}
	return func(notify observer.NotifyFunc, opts observer.Options) (observer.Observer, error) {
		return New(notify, opts, log)
	}
}

// Watcher is one fsnotify-backed host.
type Watcher struct {
	watcher  *fsnotify.Watcher
	notify   observer.NotifyFunc
	ops      fsnotify.Op
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	targets map[string]bool
	pending map[string]observer.Entry
	timer   *time.Timer

	queue     chan []observer.Entry
	done      chan struct{}
	wg        sync.WaitGroup // event loop only
	closeOnce sync.Once
}

// New starts an fsnotify watcher reporting through notify.
func New(notify observer.NotifyFunc, opts observer.Options, log *slog.Logger) (*Watcher, error) {
	ops, err := parseOps(opts[OptionOps])
	if err != nil {
		return nil, err
	}
	debounce, err := parseDebounce(opts[OptionDebounce])
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		notify:   notify,
		ops:      ops,
		debounce: debounce,
		log:      log,
		targets:  make(map[string]bool),
		pending:  make(map[string]observer.Entry),
		queue:    make(chan []observer.Entry, 16),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	go w.dispatch()
	return w, nil
}

func (w *Watcher) Observe(target string) error {
	path := filepath.Clean(target)
	if err := w.watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.mu.Lock()
	w.targets[path] = true
	w.mu.Unlock()
	return nil
}

func (w *Watcher) Unobserve(target string) {
	path := filepath.Clean(target)
	w.mu.Lock()
	delete(w.targets, path)
	delete(w.pending, path)
	w.mu.Unlock()
	// The watch may already be gone if the path was removed.
	_ = w.watcher.Remove(path)
}

// Disconnect stops the watcher and waits for the event loop to exit. It may be
// called from inside a notification; the dispatcher returns once that
// notification does.
func (w *Watcher) Disconnect() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pending = make(map[string]observer.Entry)
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.log.Warn("close fsnotify watcher", "error", err)
		}
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&w.ops == 0 {
		return
	}

	w.mu.Lock()
	target := w.resolveTarget(ev.Name)
	if target == "" {
		w.mu.Unlock()
		return
	}
	entry := observer.Entry{
		Target: target,
		Time:   time.Now(),
		Name:   ev.Name,
		Op:     opName(ev.Op),
	}

	if w.debounce <= 0 {
		w.mu.Unlock()
		w.deliver([]observer.Entry{entry})
		return
	}

	// Rapid saves collapse into the last entry per target.
	w.pending[target] = entry
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
	w.mu.Unlock()
}

// resolveTarget maps an event path to the observed target it belongs to.
func (w *Watcher) resolveTarget(name string) string {
	path := filepath.Clean(name)
	if w.targets[path] {
		return path
	}
	if dir := filepath.Dir(path); w.targets[dir] {
		return dir
	}
	return ""
}

func (w *Watcher) flush() {
	w.mu.Lock()
	entries := make([]observer.Entry, 0, len(w.pending))
	for _, e := range w.pending {
		entries = append(entries, e)
	}
	w.pending = make(map[string]observer.Entry)
	w.mu.Unlock()

	if len(entries) > 0 {
		w.deliver(entries)
	}
}

func (w *Watcher) deliver(entries []observer.Entry) {
	select {
	case <-w.done:
	case w.queue <- entries:
	}
}

// dispatch runs notifications off the event loop.
func (w *Watcher) dispatch() {
	for {
		select {
		case <-w.done:
			return
		case entries := <-w.queue:
			select {
			case <-w.done:
				return
			default:
			}
			w.notify(entries)
		}
	}
}

func parseOps(v any) (fsnotify.Op, error) {
	if v == nil {
		return defaultOps, nil
	}
	var names []string
	switch t := v.(type) {
	case []string:
		names = t
	case []any:
		for _, x := range t {
			s, ok := x.(string)
			if !ok {
				return 0, fmt.Errorf("option %s: expected strings, got %T", OptionOps, x)
			}
			names = append(names, s)
		}
	case string:
		names = strings.Split(t, ",")
	default:
		return 0, fmt.Errorf("option %s: unsupported type %T", OptionOps, v)
	}

	var ops fsnotify.Op
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "create":
			ops |= fsnotify.Create
		case "write":
			ops |= fsnotify.Write
		case "remove":
			ops |= fsnotify.Remove
		case "rename":
			ops |= fsnotify.Rename
		case "chmod":
			ops |= fsnotify.Chmod
		case "":
		default:
			return 0, fmt.Errorf("option %s: unknown op %q", OptionOps, n)
		}
	}
	if ops == 0 {
		return defaultOps, nil
	}
	return ops, nil
}

func parseDebounce(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", OptionDebounce, err)
		}
		return d, nil
	case time.Duration:
		return t, nil
	default:
		return 0, fmt.Errorf("option %s: unsupported type %T", OptionDebounce, v)
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "CREATE"
	case op.Has(fsnotify.Write):
		return "WRITE"
	case op.Has(fsnotify.Remove):
		return "REMOVE"
	case op.Has(fsnotify.Rename):
		return "RENAME"
	default:
		return "CHMOD"
	}
}
