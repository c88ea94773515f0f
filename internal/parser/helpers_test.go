package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
)

// outline renders items one per line as "indent text href [codes]" so tests
// can compare whole trees with cmp.Diff.
func outline(items []*navtree.Item) []string {
	var out []string
	var walk func([]*navtree.Item, int)
	walk = func(items []*navtree.Item, depth int) {
		for _, it := range items {
			link := it.Link()
			line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), link.Text, link.Href)
			var codes []string
			for _, j := range it.Fields.Jurisdictions {
				codes = append(codes, j.Code())
			}
			if len(codes) > 0 {
				line += " [" + strings.Join(codes, ",") + "]"
			}
			out = append(out, line)
			walk(it.Children(), depth+1)
		}
	}
	walk(items, 0)
	return out
}
