// Package appcontext derives the per-page navigation status from a layout
// response: the visitor's jurisdiction and segment, the page's jurisdiction
// restrictions and the secondary navigation for the current route.
package appcontext

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/dgallion1/navcore/internal/secondary"
)

// Placeholder and component names looked up in the layout.
const (
	HeaderPlaceholder = "jss-public-header"
	PrimaryNavName    = "PrimaryNav"
	NavItemsName      = "NavItems"
)

// RouteData is the subset of a layout response used here.
type RouteData struct {
	Sitecore struct {
		Context SiteContext `json:"context"`
		Route   *Route      `json:"route"`
	} `json:"sitecore"`
}

type SiteContext struct {
	Language string `json:"language,omitempty"`
	Site     *struct {
		Name string `json:"name"`
	} `json:"site,omitempty"`
}

type Route struct {
	Fields       RouteFields            `json:"fields"`
	Placeholders map[string][]Rendering `json:"placeholders"`
}

type RouteFields struct {
	Jurisdictions []struct {
		Fields map[string]*navtree.StringField `json:"fields"`
	} `json:"Jurisdictions"`
	IsJurisdictionallyLocked *navtree.BoolField `json:"Is Jurisdictionally Locked"`
}

// Rendering is one component placed in a placeholder. Fields stay raw until
// the component is recognized.
type Rendering struct {
	ComponentName string          `json:"componentName"`
	Fields        json.RawMessage `json:"fields,omitempty"`
}

// SelectedJurisdiction is the visitor's jurisdiction as reported by the
// primary navigation component.
type SelectedJurisdiction struct {
	ServiceKey       string `json:"serviceKey"`
	JurisdictionCode string `json:"jurisdictionCode"`
	Abbreviation     string `json:"abbreviation"`
	StateName        string `json:"stateName,omitempty"`
}

type primaryNavFields struct {
	SelectedJurisdiction *SelectedJurisdiction `json:"selectedJurisdiction"`
	UserSegment          *navtree.StringField  `json:"userSegment"`
}

// Status is the derived page state.
type Status struct {
	Language                 string                `json:"language,omitempty"`
	Site                     string                `json:"site,omitempty"`
	Jurisdiction             *SelectedJurisdiction `json:"jurisdiction,omitempty"`
	Route                    string                `json:"route"`
	PageJurisdictions        []string              `json:"jurisdictions"`
	IsJurisdictionallyLocked bool                  `json:"isJurisdictionallyLocked"`
	Segment                  string                `json:"segment,omitempty"`
	NavItems                 secondary.Result      `json:"navItems"`
}

// JurisdictionCode returns the selected code, or "".
func (s Status) JurisdictionCode() string {
	if s.Jurisdiction == nil {
		return ""
	}
	return s.Jurisdiction.JurisdictionCode
}

// Visitor is what the DEC cookie says about the visitor.
type Visitor struct {
	Jurisdiction string // JU code, e.g. "NC01".
	Segment      string // RES or BUS.
}

// VisitorFromCookie reads a DEC cookie value, URL-encoded or not.
func VisitorFromCookie(value string) Visitor {
	c := parseDEC(value)
	return Visitor{Jurisdiction: c.JU, Segment: c.SEGMENT}
}

// Build derives the page status for path. The visitor's cookie values are
// used when the layout carries no segment or selected jurisdiction.
func Build(rd *RouteData, path string, visitor Visitor, log *slog.Logger) Status {
	if log == nil {
		log = slog.Default()
	}
	st := Status{
		Route:             path,
		PageJurisdictions: []string{},
		Jurisdiction:      JurisdictionFromCode(visitor.Jurisdiction),
		Segment:           visitor.Segment,
		NavItems:          secondary.Result{Items: []*secondary.Item{}},
	}
	if rd == nil {
		return st
	}

	st.Language = rd.Sitecore.Context.Language
	if rd.Sitecore.Context.Site != nil {
		st.Site = rd.Sitecore.Context.Site.Name
	}

	route := rd.Sitecore.Route
	if route == nil {
		return st
	}

	pn := primaryNav(route, log)
	if pn.SelectedJurisdiction != nil && pn.SelectedJurisdiction.JurisdictionCode != "" {
		st.Jurisdiction = pn.SelectedJurisdiction
	}
	if pn.UserSegment != nil && pn.UserSegment.Value != "" {
		st.Segment = pn.UserSegment.Value
	}

	for _, j := range route.Fields.Jurisdictions {
		if f := j.Fields["Jurisdiction Code"]; f != nil {
			st.PageJurisdictions = append(st.PageJurisdictions, f.Value)
		}
	}
	if route.Fields.IsJurisdictionallyLocked != nil {
		st.IsJurisdictionallyLocked = route.Fields.IsJurisdictionallyLocked.Value
	}

	if r, ok := findRendering(route, NavItemsName); ok {
		var fields navtree.ComponentFields
		if err := json.Unmarshal(r.Fields, &fields); err != nil {
			log.Error("app context: decode nav items", "error", err, "path", path)
			return st
		}
		st.NavItems = secondary.Resolve(&navtree.Component{Fields: &fields}, secondary.Request{
			Jurisdiction: st.JurisdictionCode(),
			Pathname:     path,
			Segment:      st.Segment,
		}, log)
	}
	return st
}

func primaryNav(route *Route, log *slog.Logger) primaryNavFields {
	var pn primaryNavFields
	for _, r := range route.Placeholders[HeaderPlaceholder] {
		if r.ComponentName != PrimaryNavName || len(r.Fields) == 0 {
			continue
		}
		if err := json.Unmarshal(r.Fields, &pn); err != nil {
			log.Warn("app context: decode primary nav", "error", err)
			return primaryNavFields{}
		}
		break
	}
	return pn
}

// findRendering returns the first component named name across all
// placeholders, visiting placeholders in name order.
func findRendering(route *Route, name string) (Rendering, bool) {
	keys := make([]string, 0, len(route.Placeholders))
	for k := range route.Placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, r := range route.Placeholders[k] {
			if r.ComponentName == name {
				return r, true
			}
		}
	}
	return Rendering{}, false
}

type decCookie struct {
	JU      string `json:"JU"`
	SEGMENT string `json:"SEGMENT"`
}

func parseDEC(value string) decCookie {
	var c decCookie
	if value == "" {
		return c
	}
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	_ = json.Unmarshal([]byte(value), &c)
	return c
}

// SegmentFromCookie returns the SEGMENT of a DEC cookie value, URL-encoded
// or not, or "" when the cookie is absent or malformed.
func SegmentFromCookie(value string) string {
	return parseDEC(value).SEGMENT
}

// JurisdictionFromCookie returns the JU code of a DEC cookie value.
func JurisdictionFromCookie(value string) string {
	return parseDEC(value).JU
}

// JurisdictionFromCode splits a code like "NC02" into its state
// abbreviation and service key. Unknown codes return nil.
func JurisdictionFromCode(code string) *SelectedJurisdiction {
	code = strings.ToUpper(code)
	if !navtree.IsKnownJurisdiction(code) {
		return nil
	}
	i := strings.IndexByte(code, '0')
	return &SelectedJurisdiction{
		ServiceKey:       code[i:],
		JurisdictionCode: code,
		Abbreviation:     code[:i],
	}
}
