package catalog

import (
	"path/filepath"
	"testing"
)

func TestSuggest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main-nav.json"), menuJSON)
	writeFile(t, filepath.Join(dir, "footer.md"), footerMD)

	c := New()
	if _, err := c.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"main-nav", "main-nav", true},
		{"mainnav", "main-nav", true},
		{"Footr", "footer", true},
		{"header", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Suggest(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
