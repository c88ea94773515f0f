package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navcore/internal/navtree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser reads the document outline (bookmarks) as the navigation tree.
// Documents without an outline yield one item per page.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*navtree.Component, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	title := baseTitle(filename)
	var headings []heading
	collectOutline(reader.Outline().Child, 1, &headings)

	if len(headings) == 0 {
		for i := 1; i <= reader.NumPage(); i++ {
			headings = append(headings, heading{level: 1, title: fmt.Sprintf("Page %d", i)})
		}
	}
	return newComponent(title, outlineItems(headings)), nil
}

// collectOutline flattens the bookmark tree into leveled headings so the
// same builder serves PDF and DOCX.
func collectOutline(entries []pdflib.Outline, level int, out *[]heading) {
	for _, o := range entries {
		t := strings.TrimSpace(o.Title)
		if t != "" {
			*out = append(*out, heading{level: level, title: t})
			collectOutline(o.Child, level+1, out)
			continue
		}
		// Untitled bookmarks are transparent.
		collectOutline(o.Child, level, out)
	}
}
