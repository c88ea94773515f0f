package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/navcore/internal/observer"
	"github.com/dgallion1/navcore/internal/observer/fswatch"
	"go.uber.org/goleak"
)

const menuJSON = `{"title": "Main", "fields": {"items": [
  {"fields": {"Page": {"value": {"href": "/a", "text": "A"}}, "items": [
    {"fields": {"Page": {"value": {"href": "/a/b", "text": "B"}}}}
  ]}}
]}}`

const footerMD = "- [Contact](/contact)\n- [Careers](/careers)\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// manualHost records observed targets and lets tests push entries.
type manualHost struct {
	mu      sync.Mutex
	notify  observer.NotifyFunc
	targets map[string]bool
	closed  bool
}

func (h *manualHost) Observe(target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.targets[target] = true
	return nil
}

func (h *manualHost) Unobserve(target string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.targets, target)
}

func (h *manualHost) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *manualHost) emit(e observer.Entry) { h.notify([]observer.Entry{e}) }

func manualPool() (*observer.Pool, *manualHost) {
	host := &manualHost{targets: make(map[string]bool)}
	pool := observer.NewPool(func(notify observer.NotifyFunc, _ observer.Options) (observer.Observer, error) {
		host.notify = notify
		return host, nil
	})
	return pool, host
}

func TestLoadDirAndGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.json"), menuJSON)
	writeFile(t, filepath.Join(dir, "footer.md"), footerMD)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	c := New()
	n, err := c.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d sources, want 2", n)
	}

	comp, snap, err := c.Get("main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if comp.Title != "Main" || snap.ItemCount != 2 {
		t.Errorf("main: title=%q items=%d", comp.Title, snap.ItemCount)
	}
	if snap.ContentHash != ContentHashHex([]byte(menuJSON)) {
		t.Errorf("unexpected content hash %s", snap.ContentHash)
	}

	list := c.List()
	if len(list) != 2 || list[0].Name != "footer" || list[1].Name != "main" {
		t.Errorf("List order = %+v", list)
	}

	if _, _, err := c.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadDirReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.json"), menuJSON)
	writeFile(t, filepath.Join(dir, "bad.json"), `{"fields":`)

	c := New()
	n, err := c.LoadDir(dir)
	if err == nil {
		t.Fatal("expected error for bad.json")
	}
	if n != 1 {
		t.Errorf("loaded %d, want 1", n)
	}
}

func TestAddDuplicateAndTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.json")
	writeFile(t, path, menuJSON)

	c := New(WithMaxBytes(16))
	if err := c.Add("main", path); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	c = New()
	if err := c.Add("main", path); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("main", path); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "footer.md")
	writeFile(t, path, footerMD)

	c := New()
	if err := c.Add("footer", path); err != nil {
		t.Fatal(err)
	}

	changed, err := c.Reload("footer")
	if err != nil || changed {
		t.Fatalf("unchanged reload: changed=%v err=%v", changed, err)
	}

	writeFile(t, path, footerMD+"- [Press](/press)\n")
	changed, err = c.Reload("footer")
	if err != nil || !changed {
		t.Fatalf("changed reload: changed=%v err=%v", changed, err)
	}
	_, snap, _ := c.Get("footer")
	if snap.ItemCount != 3 || snap.Reloads != 1 {
		t.Errorf("after reload items=%d reloads=%d", snap.ItemCount, snap.Reloads)
	}

	if _, err := c.Reload("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got := c.Stats().Count; got != 1 {
		t.Errorf("stats count = %d, want 1", got)
	}
}

func TestReloadFailureKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.json")
	writeFile(t, path, menuJSON)

	c := New()
	if err := c.Add("main", path); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, `{"fields": [`)

	if _, err := c.Reload("main"); err == nil {
		t.Fatal("expected parse error")
	}
	comp, snap, err := c.Get("main")
	if err != nil {
		t.Fatal(err)
	}
	if comp.Title != "Main" {
		t.Errorf("expected previous component to remain, got %q", comp.Title)
	}
	if snap.LastError == "" {
		t.Error("expected LastError to be recorded")
	}
	if c.Stats().Failures != 1 {
		t.Errorf("failures = %d, want 1", c.Stats().Failures)
	}
}

func TestWatchWithManualHost(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.json")
	footerPath := filepath.Join(dir, "footer.md")
	writeFile(t, mainPath, menuJSON)
	writeFile(t, footerPath, footerMD)

	pool, host := manualPool()
	c := New(WithObserver(pool, nil))
	if _, err := c.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := c.Watch(ctx); err == nil {
		t.Error("second Watch should fail")
	}

	absDir, _ := filepath.Abs(dir)
	if pool.Len() != 1 || !host.targets[absDir] {
		t.Fatalf("expected one host observing %s, got %+v", absDir, pool.Stats())
	}

	writeFile(t, footerPath, "- [Only](/only)\n")
	absFooter, _ := filepath.Abs(footerPath)
	host.emit(observer.Entry{Target: absDir, Name: absFooter, Op: "WRITE"})

	_, snap, _ := c.Get("footer")
	if snap.ItemCount != 1 {
		t.Errorf("footer items after event = %d, want 1", snap.ItemCount)
	}

	// Removal events keep the last good copy.
	host.emit(observer.Entry{Target: absDir, Name: absFooter, Op: "REMOVE"})
	if _, _, err := c.Get("footer"); err != nil {
		t.Errorf("footer should survive remove event: %v", err)
	}

	if err := c.Remove("footer"); err != nil {
		t.Fatal(err)
	}
	if pool.Len() != 1 {
		t.Fatal("dir watch should stay while main.json remains")
	}
	if err := c.Remove("main"); err != nil {
		t.Fatal(err)
	}
	if pool.Len() != 0 || !host.closed {
		t.Error("removing the last source should tear the host down")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.json"), menuJSON)

	pool, _ := manualPool()
	c := New(WithObserver(pool, nil))
	if _, err := c.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Watch(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for pool.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watch was not released after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchWithFsnotify(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "footer.md")
	writeFile(t, path, footerMD)

	pool := observer.NewPool(fswatch.Factory(nil))
	c := New(WithObserver(pool, observer.Options{fswatch.OptionDebounce: "20ms"}))
	if err := c.Add("footer", path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Watch(ctx); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, footerMD+"- [Press](/press)\n")

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, snap, _ := c.Get("footer")
		if snap.ItemCount == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("source not reloaded, items=%d", snap.ItemCount)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	deadline = time.Now().Add(2 * time.Second)
	for pool.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher not released")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
