// Package parser converts foreign documents into outline fragments. A
// session grafts each fragment under a new top-level node.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
)

// Parser converts raw document bytes into a DocTree fragment.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists the file extensions Import accepts.
var SupportedExtensions = map[string]bool{
	".note":     true,
	".unitree":  true,
	".uxml":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".note":
		return &NoteParser{}, nil
	case ".unitree", ".uxml":
		return &UnitreeParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// baseTitle is the filename without directory and extension.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type level struct {
	node  *doctree.DocNode
	depth int
}

// outliner folds a stream of headings and paragraphs into nested nodes.
// Text seen before the first heading becomes an untitled leading node.
type outliner struct {
	root  *doctree.DocNode
	stack []level
	text  strings.Builder
}

func newOutliner() *outliner {
	root := &doctree.DocNode{}
	return &outliner{root: root, stack: []level{{node: root}}}
}

func (o *outliner) flush() {
	t := strings.TrimSpace(o.text.String())
	o.text.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// heading opens a node at depth, closing every open node at depth or deeper.
func (o *outliner) heading(depth int, title string, page int) {
	o.flush()
	n := &doctree.DocNode{Title: title, Page: page}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].depth >= depth {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, level{node: n, depth: depth})
}

// paragraph appends a block of text to the innermost open node.
func (o *outliner) paragraph(s string) {
	if s == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(s)
}

func (o *outliner) finish(title string) *doctree.DocTree {
	o.flush()
	tree := &doctree.DocTree{Title: title, Children: o.root.Children}
	if o.root.Text != "" {
		lead := &doctree.DocNode{Text: o.root.Text}
		tree.Children = append([]*doctree.DocNode{lead}, tree.Children...)
	}
	return tree
}
