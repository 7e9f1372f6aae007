// Package markdown maps an outline tree to and from its flat markdown
// document form.
package markdown

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
)

var (
	atxHeading  = regexp.MustCompile(`^(#+) (.*)#*$`)
	htmlHeading = regexp.MustCompile(`<h([1-9])[^>]*>(.*)</h.>`)
	setextOne   = regexp.MustCompile(`^={3,}`)
	setextTwo   = regexp.MustCompile(`^-{3,}`)
)

// Section is the flat (level, title, body) record between raw text and tree.
type Section struct {
	Level int
	Title string
	Body  string
}

// ParseSections splits a markdown document into sections at every
// recognized heading. Text before the first heading belongs to a level 1
// section carrying the placeholder title.
func ParseSections(r io.Reader) ([]Section, error) {
	var sections []Section
	cur := Section{Level: 1, Title: doctree.Placeholder}
	prev := ""

	next := func(line string) {
		if m := atxHeading.FindStringSubmatch(line); m != nil && prev == "" {
			// The blank line that allowed this heading is not body text.
			cur.Body = trimGateLine(cur.Body)
			sections = append(sections, cur)
			cur = Section{Level: len(m[1]), Title: m[2]}
		} else if m := htmlHeading.FindStringSubmatch(line); m != nil {
			level, _ := strconv.Atoi(m[1])
			sections = append(sections, cur)
			cur = Section{Level: level, Title: m[2]}
		} else if setextOne.MatchString(line) {
			body, title := splitSetext(cur.Body)
			cur.Body = body
			sections = append(sections, cur)
			cur = Section{Level: 1, Title: title}
		} else if setextTwo.MatchString(line) {
			body, title := splitSetext(cur.Body)
			cur.Body = body
			sections = append(sections, cur)
			cur = Section{Level: 2, Title: title}
		} else {
			cur.Body += line + "\n"
		}
		prev = line
	}

	// Lines have no length limit.
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			next(strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
	}
	sections = append(sections, cur)

	// A document opening with a heading leaves an empty preamble behind.
	if len(sections) > 1 && sections[0].Title == doctree.Placeholder && strings.TrimSpace(sections[0].Body) == "" {
		sections = sections[1:]
	}
	return sections, nil
}

func trimGateLine(body string) string {
	if body == "\n" {
		return ""
	}
	if strings.HasSuffix(body, "\n\n") {
		return body[:len(body)-1]
	}
	return body
}

// splitSetext takes the line directly above an underline as the title and
// returns the body text before it. A blank line between the title and the
// underline yields an empty title.
func splitSetext(body string) (rest, title string) {
	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return "", ""
	}
	return strings.Join(lines[:len(lines)-2], "\n"), lines[len(lines)-2]
}

// Fold nests sections into a tree by heading level. A section's parent is
// the most recent node one level up, or the top level when none exists.
func Fold(sections []Section) *doctree.Tree {
	t := doctree.New()
	recent := make(map[int]doctree.NodeID)
	for _, s := range sections {
		level := max(s.Level, 1)
		parent, ok := recent[level-1]
		if !ok {
			parent = doctree.Root
		}
		id, _ := t.Add(parent, s.Title, s.Body)
		recent[level] = id
	}
	return t
}

// Parse reads a markdown document into an outline tree.
func Parse(r io.Reader) (*doctree.Tree, error) {
	sections, err := ParseSections(r)
	if err != nil {
		return nil, err
	}
	return Fold(sections), nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) *doctree.Tree {
	t, _ := Parse(strings.NewReader(s))
	return t
}

// Serialize writes the tree as markdown: a blank line and an ATX heading per
// titled node, tree depth as heading level, followed by the body with
// trailing newlines collapsed to one.
func Serialize(t *doctree.Tree) string {
	var buf strings.Builder
	t.Walk(func(n doctree.Node, depth int) {
		if n.Title != doctree.Placeholder {
			buf.WriteString("\n")
			buf.WriteString(strings.Repeat("#", depth))
			buf.WriteString(" ")
			buf.WriteString(n.Title)
			buf.WriteString("\n")
		}
		if body := strings.TrimRight(n.Body, "\n"); body != "" {
			buf.WriteString(body)
			buf.WriteString("\n")
		}
	})
	return buf.String()
}

// Welcome is the document used when no file exists yet.
func Welcome() *doctree.Tree {
	t := doctree.New()
	t.Add(doctree.Root, "Welcome", "\nWelcome to outline.\n")
	return t
}
