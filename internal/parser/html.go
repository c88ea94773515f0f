package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
	"golang.org/x/net/html"
)

// HTMLParser reads nested ul/ol lists of links, preferring the first <nav>
// element. Item fields come from data attributes on the <li>:
// data-jurisdictions, data-secondary-nav, data-section-page,
// data-root-segment and data-segment-detection.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	scope := findElement(doc, "nav")
	if scope == nil {
		scope = findElement(doc, "body")
	}
	if scope == nil {
		scope = doc
	}

	var items []*navtree.Item
	if list := findList(scope); list != nil {
		items = htmlItems(list)
	}
	return newComponent(title, items), nil
}

func htmlItems(list *html.Node) []*navtree.Item {
	var items []*navtree.Item
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}

		var label, href string
		if a := findAnchor(li); a != nil {
			label = textContent(a)
			href = attr(a, "href")
		} else {
			label = ownText(li)
		}

		item := navtree.NewItem(label, href)
		applyDataAttrs(item, li)
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if isList(c) {
				for _, child := range htmlItems(c) {
					item.AddChild(child)
				}
			}
		}
		items = append(items, item)
	}
	return items
}

func applyDataAttrs(item *navtree.Item, li *html.Node) {
	if codes := splitCodes(attr(li, "data-jurisdictions")); len(codes) > 0 {
		item.Restrict(codes...)
	}
	f := item.Fields
	if v, ok := boolAttr(li, "data-secondary-nav"); ok {
		f.ShowInSecondaryNav = &navtree.BoolField{Value: v}
	}
	if v, ok := boolAttr(li, "data-section-page"); ok {
		f.SectionPage = &navtree.BoolField{Value: v}
	}
	if v, ok := boolAttr(li, "data-segment-detection"); ok {
		f.HomeOrBusinessDetection = &navtree.BoolField{Value: v}
	}
	if v := attr(li, "data-root-segment"); v != "" {
		f.RootSegment = &navtree.StringField{Value: v}
	}
}

func isList(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol")
}

// findList returns the first ul/ol under n in document order.
func findList(n *html.Node) *html.Node {
	if isList(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if l := findList(c); l != nil {
			return l
		}
	}
	return nil
}

// findAnchor returns the first <a> in li that is not inside a nested list.
func findAnchor(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || isList(c) {
			continue
		}
		if c.Data == "a" {
			return c
		}
		if a := findAnchor(c); a != nil {
			return a
		}
	}
	return nil
}

// ownText is the text of n excluding nested lists.
func ownText(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isList(c) {
			continue
		}
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		} else {
			buf.WriteString(textContent(c))
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func boolAttr(n *html.Node, key string) (bool, bool) {
	for _, a := range n.Attr {
		if a.Key != key {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(a.Val)) {
		case "", "true", "1", "yes":
			return true, true
		default:
			return false, true
		}
	}
	return false, false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tag); e != nil {
			return e
		}
	}
	return nil
}
