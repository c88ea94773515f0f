package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/fumiama/go-docx"
)

// DOCXParser reads a sitemap document: every heading paragraph becomes an
// item nested by heading level, with an href built from the slugs of its
// heading ancestors. Body paragraphs are ignored.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var headings []heading
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(para)
		text := docxParagraphText(para)
		if level > 0 && text != "" {
			headings = append(headings, heading{level: level, title: text})
		}
	}

	title := baseTitle(filename)
	// A lone Title-styled first heading names the component.
	if len(headings) > 0 && headings[0].level == titleLevel {
		title = headings[0].title
		headings = headings[1:]
	}
	return newComponent(title, outlineItems(headings)), nil
}

type heading struct {
	level int
	title string
}

const titleLevel = -1

func outlineItems(headings []heading) []*navtree.Item {
	var b levelBuilder
	for _, h := range headings {
		if h.level < 1 {
			continue
		}
		b.addTitled(h.level, h.title)
	}
	return b.roots
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return titleLevel
	}
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
