package flatten

import (
	"strings"

	"github.com/dgallion1/navcore/internal/analytics"
	"github.com/dgallion1/navcore/internal/navtree"
)

// Config controls flattening behavior.
type Config struct {
	MaxDepth             int    // Deepest depth emitted (0-based). Nodes at MaxDepth get no subpages.
	SelectedJurisdiction string // Empty means no jurisdiction is known.
	LabelSeparator       string // Joins ancestor analytics labels.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:       3,
		LabelSeparator: " | ",
	}
}

// PageRef is the page link of an output node with its analytics descriptor.
type PageRef struct {
	navtree.Link
	Analytics analytics.ComponentEvent `json:"analytics"`
}

// Node is one flattened navigation entry.
type Node struct {
	Name        string   `json:"name"`
	Depth       int      `json:"depth"`
	Position    []int    `json:"position"` // Indices into the source tree, e.g. [0, 1] is items[0].items[1].
	ChildRoutes []string `json:"childRoutes"`
	Page        PageRef  `json:"page"`
	Subpages    []*Node  `json:"subpages"`
}

// Flatten walks items and produces the filtered, depth-bounded tree.
func Flatten(items []*navtree.Item, cfg Config) []*Node {
	if cfg.LabelSeparator == "" {
		cfg.LabelSeparator = " | "
	}
	if cfg.MaxDepth < 0 {
		return []*Node{}
	}
	return walkItems(items, cfg, 0, "", "", nil)
}

// walkItems visits one level of the tree. Excluded items keep their index so
// sibling positions always point back into the source.
func walkItems(items []*navtree.Item, cfg Config, depth int, parentName, parentLabel string, position []int) []*Node {
	out := []*Node{}
	if depth > cfg.MaxDepth {
		return out
	}

	for i, item := range items {
		link := item.Link()
		if link == nil {
			continue
		}
		if item.Excluded(cfg.SelectedJurisdiction) {
			continue
		}

		pos := appendPosition(position, i)
		label := joinLabel(parentLabel, link.Text, cfg.LabelSeparator)
		name := item.Name
		if name == "" {
			name = parentName
		}

		node := &Node{
			Name:        name,
			Depth:       depth,
			Position:    pos,
			ChildRoutes: childRoutes(item.Children()),
			Page: PageRef{
				Link: *link,
				Analytics: analytics.ComponentEvent{
					Category: analytics.CategoryHamburger,
					Label:    label,
					Action:   link.Href,
					GUID:     link.ID,
					Event:    analytics.EventClick,
				},
			},
			Subpages: walkItems(item.Children(), cfg, depth+1, name, label, pos),
		}
		out = append(out, node)
	}

	return out
}

func joinLabel(parent, text, sep string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{parent, text} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, sep)
}

func childRoutes(children []*navtree.Item) []string {
	routes := make([]string, 0, len(children))
	for _, c := range children {
		if l := c.Link(); l != nil {
			routes = append(routes, l.Href)
		} else {
			routes = append(routes, "")
		}
	}
	return routes
}

func appendPosition(position []int, index int) []int {
	out := make([]int, len(position), len(position)+1)
	copy(out, position)
	return append(out, index)
}

// Walk visits every node depth-first in output order.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Subpages, fn)
	}
}

// Lookup returns the node at position, or nil when the position was filtered
// out or does not exist.
func Lookup(nodes []*Node, position []int) *Node {
	if len(position) == 0 {
		return nil
	}
	for _, n := range nodes {
		last := n.Position[len(n.Position)-1]
		if last != position[0] {
			continue
		}
		if len(position) == 1 {
			return n
		}
		return Lookup(n.Subpages, position[1:])
	}
	return nil
}

// ActiveTrail returns the chain of nodes whose page href is a prefix of path,
// deepest match last. It is used to highlight the active section.
func ActiveTrail(nodes []*Node, path string) []*Node {
	for _, n := range nodes {
		href := n.Page.Href
		if href == "" || !strings.HasPrefix(path, href) {
			continue
		}
		if len(path) > len(href) && href != "/" && path[len(href)] != '/' {
			continue
		}
		return append([]*Node{n}, ActiveTrail(n.Subpages, path)...)
	}
	return nil
}
