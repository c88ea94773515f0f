package parser

import (
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
)

// levelBuilder assembles a tree from a flat sequence of (level, item)
// pairs, the way headings nest in a document outline. Levels start at 1.
type levelBuilder struct {
	roots []*navtree.Item
	stack []levelEntry
}

type levelEntry struct {
	item  *navtree.Item
	level int
	slug  string
}

// add places item under the nearest preceding entry with a lower level.
// Skipped levels attach to whatever is open, so a level 3 directly after a
// level 1 becomes its child.
func (b *levelBuilder) add(level int, item *navtree.Item) {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	if len(b.stack) == 0 {
		b.roots = append(b.roots, item)
	} else {
		b.stack[len(b.stack)-1].item.AddChild(item)
	}
	b.stack = append(b.stack, levelEntry{item: item, level: level})
}

// addTitled adds an item whose href is derived from its title and the
// titles of its open ancestors, e.g. "/outages/report-an-outage".
func (b *levelBuilder) addTitled(level int, title string) *navtree.Item {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parts := make([]string, 0, len(b.stack)+1)
	for _, e := range b.stack {
		parts = append(parts, e.slug)
	}
	slug := Slugify(title)
	parts = append(parts, slug)

	item := navtree.NewItem(title, "/"+strings.Join(parts, "/"))
	b.add(level, item)
	b.stack[len(b.stack)-1].slug = slug
	return item
}

// Slugify converts a title to a URL path segment: letters are lowercased,
// digits and hyphens kept, runs of spaces become one hyphen, everything
// else is dropped.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.TrimSpace(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
			lastHyphen = false
		case r == '-' || r == ' ' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// splitCodes splits a jurisdiction list on commas, semicolons or spaces and
// keeps the known codes.
func splitCodes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '|'
	})
	var out []string
	for _, f := range fields {
		code := strings.ToUpper(strings.TrimSpace(f))
		if navtree.IsKnownJurisdiction(code) {
			out = append(out, code)
		}
	}
	return out
}
