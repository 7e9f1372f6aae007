package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser imports an HTML page. <h1>..<h6> open nodes; paragraphs, list
// items, cells and quotes become body text.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findElement(doc, atom.Title); t != nil {
		if s := textContent(t); s != "" {
			title = s
		}
	}

	o := newOutliner()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if depth := headingLevel(n.DataAtom); depth > 0 {
				o.heading(depth, textContent(n), 0)
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header:
				return
			case atom.Li:
				o.paragraph("* " + textContent(n))
				return
			case atom.P, atom.Td, atom.Blockquote, atom.Pre:
				o.paragraph(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, atom.Body); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return o.finish(title), nil
}

var htmlHeadings = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3,
	atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// headingLevel is 1-6 for <h1>..<h6> and 0 otherwise.
func headingLevel(a atom.Atom) int { return htmlHeadings[a] }

// textContent concatenates the text below n. Runs of whitespace collapse to
// one space except inside <pre>.
func textContent(n *html.Node) string {
	var buf strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			buf.WriteString(d.Data)
		}
	}
	if n.DataAtom == atom.Pre {
		return strings.Trim(buf.String(), "\n")
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// findElement returns the first element of kind a in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	for d := range n.Descendants() {
		if d.Type == html.ElementNode && d.DataAtom == a {
			return d
		}
	}
	return nil
}
