package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONParser_Component(t *testing.T) {
	input := `{
  "title": "Header",
  "fields": {
    "items": [
      {
        "name": "outages",
        "fields": {
          "Page": {"value": {"href": "/outages", "text": "Outages"}},
          "Jurisdictions": [{"fields": {"code": {"value": "NC01"}}}],
          "Show In Secondary Nav": {"value": true},
          "items": [
            {"fields": {"Page": {"value": {"href": "/outages/map", "text": "Map"}}, "Jurisdictions": []}}
          ]
        }
      }
    ]
  }
}`
	p := &JSONParser{}
	c, err := p.Parse(strings.NewReader(input), "header.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Header" {
		t.Errorf("expected title %q, got %q", "Header", c.Title)
	}
	want := []string{
		"Outages /outages [NC01]",
		"  Map /outages/map",
	}
	if diff := cmp.Diff(want, outline(c.Items())); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
	if c.Items()[0].Name != "outages" {
		t.Errorf("expected name to survive decoding, got %q", c.Items()[0].Name)
	}
}

func TestJSONParser_BareArray(t *testing.T) {
	input := `[{"fields": {"Page": {"value": {"href": "/a", "text": "A"}}}}]`
	p := &JSONParser{}
	c, err := p.Parse(strings.NewReader(input), "nav/footer.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "footer" {
		t.Errorf("expected title %q, got %q", "footer", c.Title)
	}
	if diff := cmp.Diff([]string{"A /a"}, outline(c.Items())); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONParser_Invalid(t *testing.T) {
	p := &JSONParser{}
	if _, err := p.Parse(strings.NewReader(`{"fields": `), "bad.json"); err == nil {
		t.Fatal("expected error for truncated json")
	}
	c, err := p.Parse(strings.NewReader("  \n"), "blank.json")
	if err != nil {
		t.Fatalf("unexpected error for blank input: %v", err)
	}
	if len(c.Items()) != 0 {
		t.Errorf("expected no items, got %d", len(c.Items()))
	}
}

func TestYAMLParser(t *testing.T) {
	input := `
title: Main
fields:
  items:
    - name: billing
      fields:
        page:
          value: {href: /billing, text: Billing}
        jurisdictions:
          - fields: {code: {value: SC01}}
        section_page: {value: true}
        items:
          - fields:
              page:
                value: {href: /billing/autopay, text: Autopay}
`
	p := &YAMLParser{}
	c, err := p.Parse(strings.NewReader(input), "main.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Main" {
		t.Errorf("expected title %q, got %q", "Main", c.Title)
	}
	want := []string{
		"Billing /billing [SC01]",
		"  Autopay /billing/autopay",
	}
	if diff := cmp.Diff(want, outline(c.Items())); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
	if sp := c.Items()[0].Fields.SectionPage; sp == nil || !sp.Value {
		t.Error("expected section_page to decode")
	}
}

func TestYAMLParser_SequenceAndErrors(t *testing.T) {
	p := &YAMLParser{}
	c, err := p.Parse(strings.NewReader("- fields: {page: {value: {href: /x, text: X}}}\n"), "list.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"X /x"}, outline(c.Items())); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}

	if _, err := p.Parse(strings.NewReader("fields: [unterminated"), "bad.yaml"); err == nil {
		t.Error("expected error for malformed yaml")
	}
	if _, err := p.Parse(strings.NewReader("just a string"), "scalar.yaml"); err == nil {
		t.Error("expected error for scalar document")
	}
	c, err = p.Parse(strings.NewReader(""), "empty.yaml")
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if len(c.Items()) != 0 {
		t.Errorf("expected no items, got %d", len(c.Items()))
	}
}
