// Package printers renders outlines for the terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/search"
	"github.com/dgallion1/outline/internal/settings"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const snippetWidth = 60

type PrettyPrint struct {
	// Out defaults to color.Output.
	Out    io.Writer
	ShowID bool
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

// Tree prints every node indented by depth. The active node is bold.
func (pp *PrettyPrint) Tree(t *doctree.Tree, active doctree.NodeID) {
	w := pp.out()
	y := color.New(color.FgHiYellow, color.Faint)
	b := color.New(color.Bold)
	plain := color.New()

	t.Walk(func(n doctree.Node, depth int) {
		if pp.ShowID {
			path, _ := t.PathOf(n.ID)
			_, _ = y.Fprintf(w, "%-8s", path)
		}
		indent := strings.Repeat("  ", depth-1)
		c := plain
		if n.ID == active {
			c = b
		}
		_, _ = c.Fprintf(w, "%s%s\n", indent, n.DisplayTitle())
	})
}

// Node prints the breadcrumb of id followed by its body.
func (pp *PrettyPrint) Node(t *doctree.Tree, id doctree.NodeID) {
	n, ok := t.Get(id)
	if !ok {
		return
	}
	pp.Title(strings.Join(t.Breadcrumb(id), " / "))
	w := pp.out()
	if strings.TrimSpace(n.Body) == "" {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintln(w, " empty")
		return
	}
	_, _ = fmt.Fprint(w, n.Body)
	if !strings.HasSuffix(n.Body, "\n") {
		_, _ = fmt.Fprintln(w)
	}
}

// Hits prints a table of search results with the query highlighted in the
// snippet column.
func (pp *PrettyPrint) Hits(t *doctree.Tree, ids []doctree.NodeID, query string) {
	w := pp.out()
	if len(ids) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintf(w, " no match for %q\n", query)
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = snippetWidth + 20
	tbl.AddRow("PATH", "TITLE", "MATCH")
	for _, id := range ids {
		n, ok := t.Get(id)
		if !ok {
			continue
		}
		path, _ := t.PathOf(id)
		tbl.AddRow(path, Highlight(n.DisplayTitle(), query), Highlight(Snippet(n.Body, query), query))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// Highlight wraps each occurrence of query in text with the match color.
func Highlight(text, query string) string {
	spans := search.Highlights(text, query)
	if len(spans) == 0 {
		return text
	}
	hl := color.New(color.FgHiRed, color.Bold)
	var sb strings.Builder
	last := 0
	for _, s := range spans {
		sb.WriteString(text[last:s[0]])
		sb.WriteString(hl.Sprint(text[s[0]:s[1]]))
		last = s[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// Snippet returns the first body line containing query, or the first
// non-blank line when nothing in the body matches.
func Snippet(body, query string) string {
	var first string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first == "" {
			first = line
		}
		if len(search.Highlights(line, query)) > 0 {
			return clip(line)
		}
	}
	return clip(first)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= snippetWidth {
		return s
	}
	return string(r[:snippetWidth-1]) + doctree.Placeholder
}

// Settings prints the persisted settings as a key/value table.
func (pp *PrettyPrint) Settings(st settings.Settings) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("KEY", "VALUE")
	tbl.AddRow(settings.KeyFilename, st.Filename)
	tbl.AddRow(settings.KeyLastPath, st.LastPath)
	tbl.AddRow(settings.KeyWindowPosition, fmt.Sprintf("%d,%d", st.WindowPosition[0], st.WindowPosition[1]))
	tbl.AddRow(settings.KeyWindowSize, fmt.Sprintf("%dx%d", st.WindowSize[0], st.WindowSize[1]))
	tbl.AddRow(settings.KeyPanedPosition, st.PanedPosition)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}
