// Package secondary builds the section-scoped secondary navigation for the
// current page.
package secondary

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/navcore/internal/analytics"
	"github.com/dgallion1/navcore/internal/navtree"
)

// MaxDepth is the deepest level the traversal visits.
const MaxDepth = 4

// User segments as stored in the DEC cookie.
const (
	SegmentBusiness    = "BUS"
	SegmentResidential = "RES"
)

var errNoSectionRoot = errors.New("no first-level item matches section")

// Request carries the per-page inputs.
type Request struct {
	Jurisdiction string // Selected jurisdiction code; empty when unknown.
	Pathname     string // Current route.
	Segment      string // User segment, used by home-or-business detection.
}

// Crumb is one ancestor of an item.
type Crumb struct {
	Route string `json:"route"`
	Name  string `json:"name"`
}

// Item is one secondary navigation entry.
type Item struct {
	Position  []Crumb                  `json:"position"`
	Name      string                   `json:"name"`
	Route     string                   `json:"route"`
	Subpages  []*Item                  `json:"subpages"`
	Analytics analytics.ComponentEvent `json:"analytics"`
}

// Headline names the root of the active section.
type Headline struct {
	Route string `json:"route"`
	Name  string `json:"name"`
}

// Result is the filtered navigation. Headline is nil when no section matched.
type Result struct {
	Items    []*Item   `json:"items"`
	Headline *Headline `json:"headline"`
}

func empty() Result {
	return Result{Items: []*Item{}}
}

// ResolveJSON decodes a navigation component and resolves it. Malformed
// input is logged and yields an empty result.
func ResolveJSON(raw []byte, req Request, log *slog.Logger) Result {
	if len(raw) == 0 {
		return empty()
	}
	var c navtree.Component
	if err := json.Unmarshal(raw, &c); err != nil {
		logger(log).Error("secondary nav: decode component", "error", err)
		return empty()
	}
	return Resolve(&c, req, log)
}

// Resolve builds the secondary navigation for req. Navigation is never on the
// critical path, so any failure is logged and turned into an empty result.
func Resolve(c *navtree.Component, req Request, log *slog.Logger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger(log).Error("secondary nav: traversal panicked", "error", fmt.Sprint(r), "path", req.Pathname)
			res = empty()
		}
	}()

	res, err := resolve(c, req)
	if err != nil {
		logger(log).Error("secondary nav: traversal failed", "error", err, "path", req.Pathname)
		return empty()
	}
	return res
}

func resolve(c *navtree.Component, req Request) (Result, error) {
	w := &walker{
		jurisdiction: req.Jurisdiction,
		pathname:     normalizePath(req.Pathname),
		section:      "/",
	}

	items := w.walk(c.Items(), 0, "", nil)

	section := w.section
	if w.segmentDetection {
		if req.Segment == SegmentBusiness {
			section = "/business"
		} else {
			section = "/home"
		}
	}

	seg1 := "/" + pathSegment(section, 1)
	seg2 := ""
	if s := pathSegment(section, 2); s != "" {
		seg2 = seg1 + "/" + s
	}

	items = filterRoute(items, seg1)
	if seg2 != "" {
		if len(items) == 0 {
			return Result{}, fmt.Errorf("section %q: %w", section, errNoSectionRoot)
		}
		items = filterRoute(items[0].Subpages, seg2)
	}

	res := Result{Items: items}
	if len(items) > 0 {
		res.Headline = &Headline{Route: items[0].Route, Name: items[0].Name}
	}
	return res, nil
}

// walker holds the section detection state accumulated across the whole
// tree. The section can be decided by a nested item, so filtering happens
// only after the full walk.
type walker struct {
	jurisdiction string
	pathname     string

	section          string
	hasSection       bool
	segmentDetection bool
}

func (w *walker) walk(items []*navtree.Item, depth int, parent string, position []Crumb) []*Item {
	if items == nil || depth > MaxDepth {
		return []*Item{}
	}

	out := []*Item{}
	for _, item := range items {
		link := item.Link()
		if link == nil || link.Text == "" {
			continue
		}
		f := item.Fields
		if f.ShowInSecondaryNav == nil || !f.ShowInSecondaryNav.Value {
			continue
		}
		if item.Excluded(w.jurisdiction) {
			continue
		}

		name, route := link.Text, link.Href
		pos := make([]Crumb, len(position), len(position)+1)
		copy(pos, position)
		pos = append(pos, Crumb{Route: route, Name: name})

		w.detectSection(f, route)

		label := name
		if parent != "" && depth > 1 {
			label = parent + " | " + name
		}
		category := analytics.CategorySecondary
		if depth == 1 {
			category = analytics.CategoryPrimary
		}

		out = append(out, &Item{
			Position: pos,
			Name:     name,
			Route:    route,
			Subpages: w.walk(f.Items, depth+1, label, pos),
			Analytics: analytics.ComponentEvent{
				Category: category,
				Label:    label,
				Action:   route,
				GUID:     link.ID,
				Event:    analytics.EventClick,
			},
		})
	}
	return out
}

func (w *walker) detectSection(f *navtree.Fields, route string) {
	if f.SectionPage != nil && f.SectionPage.Value && w.pathname != "" && strings.HasPrefix(w.pathname, route) {
		w.section = route
		w.hasSection = true
		return
	}

	if !w.hasSection {
		w.section = "/" + pathSegment(w.pathname, 1)
	}
	if f.RootSegment != nil && f.RootSegment.Value != "" && w.pathname == route {
		w.section = f.RootSegment.Value
	}
	// Home-or-business pages show the segment's navigation even when their
	// URL lives elsewhere; this overrides every other rule.
	if f.HomeOrBusinessDetection != nil && f.HomeOrBusinessDetection.Value && w.pathname == route {
		w.segmentDetection = true
	}
}

func filterRoute(items []*Item, route string) []*Item {
	out := []*Item{}
	for _, it := range items {
		if it.Route == route {
			out = append(out, it)
		}
	}
	return out
}

func normalizePath(p string) string {
	return strings.ToLower(strings.Join(strings.Split(p, " "), "-"))
}

// pathSegment returns the i-th "/"-separated element of p, or "".
func pathSegment(p string, i int) string {
	parts := strings.Split(p, "/")
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func logger(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
