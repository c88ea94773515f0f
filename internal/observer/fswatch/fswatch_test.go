package fswatch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/navcore/internal/observer"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/goleak"
)

func waitEntry(t *testing.T, ch <-chan observer.Entry) observer.Entry {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for entry")
		return observer.Entry{}
	}
}

func TestPoolDeliversDirectoryEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	pool := observer.NewPool(Factory(nil))
	got := make(chan observer.Entry, 16)

	opts := observer.Options{OptionOps: []string{"create", "write"}}
	if err := pool.Observe(dir, func(e observer.Entry) { got <- e }, opts); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if pool.Len() != 1 {
		t.Fatalf("Len = %d, want 1", pool.Len())
	}

	file := filepath.Join(dir, "nav.json")
	if err := os.WriteFile(file, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	e := waitEntry(t, got)
	if e.Target != filepath.Clean(dir) {
		t.Errorf("Target = %q, want %q", e.Target, dir)
	}
	if e.Name != file {
		t.Errorf("Name = %q, want %q", e.Name, file)
	}
	if e.Op != "CREATE" && e.Op != "WRITE" {
		t.Errorf("Op = %q", e.Op)
	}

	pool.Unobserve(dir, opts)
	if pool.Len() != 0 {
		t.Fatalf("Len after unobserve = %d, want 0", pool.Len())
	}
}

func TestUnobserveFromCallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	pool := observer.NewPool(Factory(nil))
	opts := observer.Options{}
	returned := make(chan struct{})
	var once sync.Once

	err := pool.Observe(dir, func(observer.Entry) {
		once.Do(func() {
			pool.Unobserve(dir, opts)
			close(returned)
		})
	}, opts)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nav.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Unobserve inside a callback did not return")
	}
	if pool.Len() != 0 {
		t.Errorf("Len = %d, want 0", pool.Len())
	}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	batches := make(chan []observer.Entry, 16)
	w, err := New(func(es []observer.Entry) { batches <- es }, observer.Options{OptionDebounce: "100ms"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Disconnect()

	if err := w.Observe(dir); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "menu.yaml")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(file, []byte("items: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case es := <-batches:
		if len(es) != 1 {
			t.Fatalf("batch len = %d, want 1", len(es))
		}
		if es[0].Name != file {
			t.Errorf("Name = %q, want %q", es[0].Name, file)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}
}

func TestUnrelatedPathsIgnored(t *testing.T) {
	w := &Watcher{targets: map[string]bool{"/srv/nav": true}}
	cases := map[string]string{
		"/srv/nav":            "/srv/nav",
		"/srv/nav/a.json":     "/srv/nav",
		"/srv/nav/sub/a.json": "",
		"/srv/other/a.json":   "",
	}
	for name, want := range cases {
		if got := w.resolveTarget(name); got != want {
			t.Errorf("resolveTarget(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(func([]observer.Entry) {}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Disconnect()
	w.Disconnect()
}

func TestObserveMissingPath(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := observer.NewPool(Factory(nil))
	err := pool.Observe(filepath.Join(t.TempDir(), "missing"), func(observer.Entry) {}, nil)
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if pool.Len() != 0 {
		t.Errorf("Len = %d, want 0 after failed observe", pool.Len())
	}
}

func TestParseOps(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    fsnotify.Op
		wantErr bool
	}{
		{"nil", nil, defaultOps, false},
		{"strings", []string{"create", "Write"}, fsnotify.Create | fsnotify.Write, false},
		{"any slice", []any{"remove"}, fsnotify.Remove, false},
		{"comma string", "rename, chmod", fsnotify.Rename | fsnotify.Chmod, false},
		{"empty string", "", defaultOps, false},
		{"unknown op", []string{"truncate"}, 0, true},
		{"non-string element", []any{1}, 0, true},
		{"wrong type", 42, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOps(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ops = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDebounce(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    time.Duration
		wantErr bool
	}{
		{"nil", nil, 0, false},
		{"string", "250ms", 250 * time.Millisecond, false},
		{"duration", 2 * time.Second, 2 * time.Second, false},
		{"bad string", "soon", 0, true},
		{"wrong type", 3.5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDebounce(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("debounce = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpName(t *testing.T) {
	if got := opName(fsnotify.Write); got != "WRITE" {
		t.Errorf("opName(Write) = %q", got)
	}
	if got := opName(fsnotify.Chmod); got != "CHMOD" {
		t.Errorf("opName(Chmod) = %q", got)
	}
}
