package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/navcore/internal/navtree"
	"gopkg.in/yaml.v3"
)

// JSONParser reads a navigation component in the CMS layout shape, or a bare
// array of items.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(src)
	if len(trimmed) == 0 {
		return newComponent(baseTitle(filename), nil), nil
	}

	if trimmed[0] == '[' {
		var items []*navtree.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse json items: %w", err)
		}
		return newComponent(baseTitle(filename), items), nil
	}

	var c navtree.Component
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("parse json component: %w", err)
	}
	if c.Title == "" {
		c.Title = baseTitle(filename)
	}
	return &c, nil
}

// YAMLParser reads the same shape as JSONParser with snake_case keys.
type YAMLParser struct{}

func (p *YAMLParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return newComponent(baseTitle(filename), nil), nil
	}

	doc := node.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var items []*navtree.Item
		if err := doc.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode yaml items: %w", err)
		}
		return newComponent(baseTitle(filename), items), nil
	}

	var c navtree.Component
	if err := doc.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode yaml component: %w", err)
	}
	if c.Title == "" {
		c.Title = baseTitle(filename)
	}
	return &c, nil
}
