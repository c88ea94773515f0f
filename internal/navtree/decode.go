package navtree

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// CMS exports are hand-edited often enough that one wrongly typed field
// turns up in otherwise good trees. Items and fields decode field by field:
// a field that fails to decode is left unset, so only that branch drops out
// of the walk and its siblings survive. A restriction list that cannot be
// read hides the item.

// UnmarshalJSON never fails. Input that is not an object yields an empty
// item, which the walkers skip.
func (it *Item) UnmarshalJSON(data []byte) error {
	*it = Item{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for key, val := range raw {
		switch {
		case strings.EqualFold(key, "name"):
			decodeJSON(val, &it.Name)
		case strings.EqualFold(key, "fields"):
			decodeJSON(val, &it.Fields)
		}
	}
	return nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Fields{}
	for key, val := range raw {
		switch {
		case strings.EqualFold(key, "Page"):
			decodeJSON(val, &f.Page)
		case strings.EqualFold(key, "items"):
			decodeJSON(val, &f.Items)
		case strings.EqualFold(key, "Jurisdictions"):
			if !decodeJSON(val, &f.Jurisdictions) {
				f.Jurisdictions = []Jurisdiction{{}}
			}
		case strings.EqualFold(key, "Show In Secondary Nav"):
			decodeJSON(val, &f.ShowInSecondaryNav)
		case strings.EqualFold(key, "Root Segment"):
			decodeJSON(val, &f.RootSegment)
		case strings.EqualFold(key, "Home or Business Detection"):
			decodeJSON(val, &f.HomeOrBusinessDetection)
		case strings.EqualFold(key, "Section Page"):
			decodeJSON(val, &f.SectionPage)
		}
	}
	return nil
}

func decodeJSON[T any](raw json.RawMessage, dst *T) bool {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML sources.
func (it *Item) UnmarshalYAML(node *yaml.Node) error {
	*it = Item{}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "name":
			decodeYAML(val, &it.Name)
		case "fields":
			decodeYAML(val, &it.Fields)
		}
	}
	return nil
}

func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{"navigation fields must be a mapping"}}
	}
	*f = Fields{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "page":
			decodeYAML(val, &f.Page)
		case "items":
			decodeYAML(val, &f.Items)
		case "jurisdictions":
			if !decodeYAML(val, &f.Jurisdictions) {
				f.Jurisdictions = []Jurisdiction{{}}
			}
		case "show_in_secondary_nav":
			decodeYAML(val, &f.ShowInSecondaryNav)
		case "root_segment":
			decodeYAML(val, &f.RootSegment)
		case "home_or_business_detection":
			decodeYAML(val, &f.HomeOrBusinessDetection)
		case "section_page":
			decodeYAML(val, &f.SectionPage)
		}
	}
	return nil
}

func decodeYAML[T any](node *yaml.Node, dst *T) bool {
	var v T
	if err := node.Decode(&v); err != nil {
		return false
	}
	*dst = v
	return true
}
