package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
)

// CSVParser reads one item per row. The header row names the columns:
// level (1-based nesting), text (or title), href, and optionally
// jurisdictions, secondary_nav, section_page, root_segment and
// segment_detection.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return newComponent(baseTitle(filename), nil), nil
	}

	cols := make(map[string]int)
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["text"]; !ok {
		if i, ok := cols["title"]; ok {
			cols["text"] = i
		}
	}
	for _, required := range []string{"level", "text"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("parse csv: missing %q column", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var b levelBuilder
	for n, row := range records[1:] {
		line := n + 2
		raw := cell(row, "level")
		if raw == "" && cell(row, "text") == "" {
			continue
		}
		level, err := strconv.Atoi(raw)
		if err != nil || level < 1 {
			return nil, fmt.Errorf("parse csv: line %d: invalid level %q", line, raw)
		}

		item := navtree.NewItem(cell(row, "text"), cell(row, "href"))
		if codes := splitCodes(cell(row, "jurisdictions")); len(codes) > 0 {
			item.Restrict(codes...)
		}
		if err := applyCSVFlags(item, func(name string) string { return cell(row, name) }); err != nil {
			return nil, fmt.Errorf("parse csv: line %d: %w", line, err)
		}
		b.add(level, item)
	}
	return newComponent(baseTitle(filename), b.roots), nil
}

func applyCSVFlags(item *navtree.Item, cell func(string) string) error {
	f := item.Fields
	flags := []struct {
		name string
		dst  **navtree.BoolField
	}{
		{"secondary_nav", &f.ShowInSecondaryNav},
		{"section_page", &f.SectionPage},
		{"segment_detection", &f.HomeOrBusinessDetection},
	}
	var errs []error
	for _, fl := range flags {
		raw := cell(fl.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("column %s: %w", fl.name, err))
			continue
		}
		*fl.dst = &navtree.BoolField{Value: v}
	}
	if v := cell("root_segment"); v != "" {
		f.RootSegment = &navtree.StringField{Value: v}
	}
	return errors.Join(errs...)
}
