package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser imports a Word document. Paragraphs styled "Heading N" open
// nodes; other paragraphs become body text.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	tmp, size, cleanup, err := spool(r, "outline-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	o := newOutliner()
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if depth := docxHeadingLevel(para); depth > 0 {
			o.heading(depth, text, 0)
			continue
		}
		o.paragraph(text)
	}
	return o.finish(baseTitle(filename)), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return styleHeadingLevel(para.Properties.Style.Val)
}

// styleHeadingLevel reads N from a "Heading N" or "HeadingN" style name.
func styleHeadingLevel(style string) int {
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	rest, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 9 {
		return 0
	}
	return n
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
