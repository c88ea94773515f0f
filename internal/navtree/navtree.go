package navtree

// Component is the root of a navigation datasource as delivered in a layout
// response. Only the items list is consumed.
type Component struct {
	Title  string           `json:"title,omitempty" yaml:"title,omitempty"`
	Fields *ComponentFields `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ComponentFields holds the top-level navigation items.
type ComponentFields struct {
	Items []*Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// Items returns the top-level items, or nil when the component is empty.
func (c *Component) Items() []*Item {
	if c == nil || c.Fields == nil {
		return nil
	}
	return c.Fields.Items
}

// Item is a recursive navigation entry. Field names match the CMS field
// names, so a missing field decodes to nil rather than a zero value.
type Item struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Fields *Fields `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Fields are the CMS fields of a navigation item.
type Fields struct {
	Page                    *LinkField     `json:"Page,omitempty" yaml:"page,omitempty"`
	Items                   []*Item        `json:"items,omitempty" yaml:"items,omitempty"`
	Jurisdictions           []Jurisdiction `json:"Jurisdictions" yaml:"jurisdictions,omitempty"`
	ShowInSecondaryNav      *BoolField     `json:"Show In Secondary Nav,omitempty" yaml:"show_in_secondary_nav,omitempty"`
	RootSegment             *StringField   `json:"Root Segment,omitempty" yaml:"root_segment,omitempty"`
	HomeOrBusinessDetection *BoolField     `json:"Home or Business Detection,omitempty" yaml:"home_or_business_detection,omitempty"`
	SectionPage             *BoolField     `json:"Section Page,omitempty" yaml:"section_page,omitempty"`
}

// LinkField wraps a general link value.
type LinkField struct {
	Value *Link `json:"value,omitempty" yaml:"value,omitempty"`
}

// Link is the target of a navigation item.
type Link struct {
	Href string `json:"href" yaml:"href"`
	Text string `json:"text" yaml:"text"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

type BoolField struct {
	Value bool `json:"value" yaml:"value"`
}

type StringField struct {
	Value string `json:"value" yaml:"value"`
}

// Jurisdiction restricts an item to one regional code.
type Jurisdiction struct {
	Fields *JurisdictionFields `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type JurisdictionFields struct {
	Code *StringField `json:"code,omitempty" yaml:"code,omitempty"`
}

// Code returns the jurisdiction code, or "" when the entry is incomplete.
func (j Jurisdiction) Code() string {
	if j.Fields == nil || j.Fields.Code == nil {
		return ""
	}
	return j.Fields.Code.Value
}

// Link returns the item's page link, or nil when any level is missing.
func (it *Item) Link() *Link {
	if it == nil || it.Fields == nil || it.Fields.Page == nil {
		return nil
	}
	return it.Fields.Page.Value
}

// Children returns the nested items, or nil.
func (it *Item) Children() []*Item {
	if it == nil || it.Fields == nil {
		return nil
	}
	return it.Fields.Items
}

// NewItem builds an item with a page link. Parsers use it to assemble trees
// from formats that have no native CMS shape.
func NewItem(text, href string) *Item {
	return &Item{
		Fields: &Fields{
			Page: &LinkField{Value: &Link{Text: text, Href: href}},
		},
	}
}

// AddChild appends a child item and returns it.
func (it *Item) AddChild(child *Item) *Item {
	if it.Fields == nil {
		it.Fields = &Fields{}
	}
	it.Fields.Items = append(it.Fields.Items, child)
	return child
}

// Restrict adds jurisdiction codes to the item.
func (it *Item) Restrict(codes ...string) *Item {
	if it.Fields == nil {
		it.Fields = &Fields{}
	}
	for _, c := range codes {
		it.Fields.Jurisdictions = append(it.Fields.Jurisdictions, Jurisdiction{
			Fields: &JurisdictionFields{Code: &StringField{Value: c}},
		})
	}
	return it
}

// Count returns the number of items in the subtree rooted at items.
func Count(items []*Item) int {
	n := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		n += 1 + Count(it.Children())
	}
	return n
}
