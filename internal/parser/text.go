package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
)

// TextParser imports plain text. Every paragraph becomes a node titled with
// its first line; the remaining lines are its body.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	var lines []string
	flush := func() {
		if len(lines) == 0 {
			return
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: strings.TrimSpace(lines[0]),
			Text:  strings.Join(lines[1:], "\n"),
		})
		lines = lines[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()
	return tree, nil
}
