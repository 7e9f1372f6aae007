package parser

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser imports a PDF as one node per non-empty page. It reads text with
// ledongthuc/pdf and, when FallbackPdftotext is set, retries with the
// pdftotext binary.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	tmp, _, cleanup, err := spool(r, "outline-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pages, err := pdfPages(tmp.Name())
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(tmp.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
			Page:  i + 1,
		})
	}
	return tree, nil
}

// pdfPages returns the plain text of each page; unreadable pages are empty.
func pdfPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
