package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser imports a foreign markdown file with goldmark. Unlike the
// document codec it understands code fences, so a "#" inside a fence stays
// body text.
type MarkdownParser struct{}

var importMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	doc := importMarkdown.Parser().Parse(text.NewReader(src))
	o := newOutliner()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.heading(h.Level, strings.TrimSpace(blockText(h, src)), 0)
			continue
		}
		o.paragraph(blockText(n, src))
	}
	return o.finish(baseTitle(filename)), nil
}

// blockText returns the source lines of a leaf block. Container blocks
// (lists, quotes) join the text of their children, and fenced code keeps its
// fence so it stays code in the outline body.
func blockText(n ast.Node, src []byte) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	if lines := n.Lines(); lines.Len() > 0 {
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		s := strings.TrimRight(buf.String(), "\n")
		if fc, ok := n.(*ast.FencedCodeBlock); ok {
			s = "```" + string(fc.Language(src)) + "\n" + s + "\n```"
		}
		return s
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := blockText(c, src); s != "" {
			parts = append(parts, s)
		}
	}
	s := strings.Join(parts, "\n")
	if n.Kind() == ast.KindListItem {
		s = "* " + s
	}
	return s
}
