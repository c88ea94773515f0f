package navtree

import (
	"encoding/json"
	"testing"
)

func TestIsNotJurisdictionMatch(t *testing.T) {
	restricted := (&Item{}).Restrict(NC01, SC01).Fields.Jurisdictions

	tests := []struct {
		name     string
		selected string
		want     bool
	}{
		{name: "no selection never matches", selected: "", want: true},
		{name: "listed code matches", selected: NC01, want: false},
		{name: "second listed code matches", selected: SC01, want: false},
		{name: "unlisted code", selected: FL01, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotJurisdictionMatch(restricted, tt.selected); got != tt.want {
				t.Errorf("IsNotJurisdictionMatch(%q) = %v, want %v", tt.selected, got, tt.want)
			}
		})
	}
}

func TestItemExcluded_Unrestricted(t *testing.T) {
	it := NewItem("Home", "/home")
	if it.Excluded("") {
		t.Error("unrestricted item should be visible without a jurisdiction")
	}
	if it.Excluded(FL01) {
		t.Error("unrestricted item should be visible for any jurisdiction")
	}
}

func TestItemExcluded_IncompleteCodeEntry(t *testing.T) {
	it := NewItem("Home", "/home")
	it.Fields.Jurisdictions = []Jurisdiction{{}}
	if !it.Excluded(NC01) {
		t.Error("item restricted by an empty code should not match NC01")
	}
}

func TestDecodeCMSShape(t *testing.T) {
	raw := `{
		"fields": {
			"items": [{
				"name": "home",
				"fields": {
					"Page": {"value": {"href": "/home", "text": "Home", "id": "{ABC}"}},
					"Jurisdictions": [{"fields": {"code": {"value": "NC01"}}}],
					"Show In Secondary Nav": {"value": true},
					"Section Page": {"value": false},
					"Root Segment": {"value": "/home"},
					"items": [{"fields": {"Page": {"value": {"href": "/home/a", "text": "A"}}, "Jurisdictions": []}}]
				}
			}]
		}
	}`
	var c Component
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	home := items[0]
	if home.Name != "home" {
		t.Errorf("expected name %q, got %q", "home", home.Name)
	}
	if l := home.Link(); l == nil || l.ID != "{ABC}" || l.Href != "/home" {
		t.Errorf("unexpected link %+v", l)
	}
	if home.Fields.ShowInSecondaryNav == nil || !home.Fields.ShowInSecondaryNav.Value {
		t.Error("expected Show In Secondary Nav to be true")
	}
	if home.Fields.HomeOrBusinessDetection != nil {
		t.Error("expected missing Home or Business Detection to decode as nil")
	}
	if got := home.Fields.Jurisdictions[0].Code(); got != NC01 {
		t.Errorf("expected code %q, got %q", NC01, got)
	}
	if n := Count(items); n != 2 {
		t.Errorf("expected 2 items in tree, got %d", n)
	}
}

func TestIsKnownJurisdiction(t *testing.T) {
	if !IsKnownJurisdiction(OH01) {
		t.Error("OH01 should be known")
	}
	if IsKnownJurisdiction("TX01") {
		t.Error("TX01 should not be known")
	}
}
