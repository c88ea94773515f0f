package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser reads nested link lists:
//
//	# Main menu
//	- [Outages](/outages) `NC01` `SC01`
//	  - [Report](/outages/report)
//
// The first level 1 heading names the component. Code spans holding known
// jurisdiction codes restrict the item.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	title := ""
	var items []*navtree.Item
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && title == "" {
				title = inlineText(node, src)
			}
		case *ast.List:
			items = append(items, markdownItems(node, src)...)
		}
	}
	if title == "" {
		title = baseTitle(filename)
	}
	return newComponent(title, items), nil
}

func markdownItems(list *ast.List, src []byte) []*navtree.Item {
	var items []*navtree.Item
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		if _, ok := li.(*ast.ListItem); !ok {
			continue
		}

		var label, href string
		var linked bool
		var codes []string
		var children []*navtree.Item

		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				children = append(children, markdownItems(sub, src)...)
				continue
			}
			_ = ast.Walk(c, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if !entering {
					return ast.WalkContinue, nil
				}
				switch v := n.(type) {
				case *ast.Link:
					if !linked {
						linked = true
						label = inlineText(v, src)
						href = string(v.Destination)
					}
					return ast.WalkSkipChildren, nil
				case *ast.CodeSpan:
					codes = append(codes, splitCodes(inlineText(v, src))...)
					return ast.WalkSkipChildren, nil
				}
				return ast.WalkContinue, nil
			})
			if !linked && label == "" {
				label = inlineText(c, src)
			}
		}

		item := navtree.NewItem(label, href)
		if len(codes) > 0 {
			item.Restrict(codes...)
		}
		for _, child := range children {
			item.AddChild(child)
		}
		items = append(items, item)
	}
	return items
}

// inlineText concatenates the text under n, skipping nested code spans.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.CodeSpan:
			if c != n {
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
