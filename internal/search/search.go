// Package search finds nodes whose title or body contains a query and walks
// the hits cyclically.
package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/outline/internal/doctree"
)

// Finder holds the results of one search. Results are not kept in sync with
// the tree: Reset it whenever the query changes or the tree is edited.
type Finder struct {
	query   string
	results []doctree.NodeID
	index   int // 1-based position of the last returned hit, 0 when fresh
	active  bool
	version uint64
}

// Find scans the whole tree depth-first for a case-insensitive substring
// match in title or body. It does nothing and returns false for an empty
// query or while a search is active. When nothing matches the finder stays
// inactive and Status reports "0/0".
func (f *Finder) Find(query string, t *doctree.Tree) bool {
	if query == "" || f.active {
		return false
	}
	f.Reset()

	needle := strings.ToLower(query)
	t.Walk(func(n doctree.Node, _ int) {
		if strings.Contains(strings.ToLower(n.Title), needle) || strings.Contains(strings.ToLower(n.Body), needle) {
			f.results = append(f.results, n.ID)
		}
	})
	if len(f.results) == 0 {
		f.Reset()
		return false
	}
	f.query = query
	f.active = true
	f.version = t.Version()
	return true
}

// Next returns the following hit, wrapping from the last to the first, and
// the "position/total" status.
func (f *Finder) Next() (doctree.NodeID, string, bool) {
	if !f.active {
		return doctree.Root, f.Status(), false
	}
	if f.index == len(f.results) {
		f.index = 0
	}
	id := f.results[f.index]
	f.index++
	return id, f.Status(), true
}

// Previous returns the preceding hit, wrapping from the first to the last.
// On a fresh search it returns the last hit.
func (f *Finder) Previous() (doctree.NodeID, string, bool) {
	if !f.active {
		return doctree.Root, f.Status(), false
	}
	if f.index <= 1 {
		f.index = len(f.results) + 1
	}
	f.index--
	return f.results[f.index-1], f.Status(), true
}

// Status reports the 1-based position of the last returned hit and the
// number of hits.
func (f *Finder) Status() string {
	return fmt.Sprintf("%d/%d", f.index, len(f.results))
}

// Reset discards query, results and position.
func (f *Finder) Reset() {
	f.query = ""
	f.results = nil
	f.index = 0
	f.active = false
	f.version = 0
}

func (f *Finder) Active() bool  { return f.active }
func (f *Finder) Query() string { return f.query }
func (f *Finder) Len() int      { return len(f.results) }

// Results returns the hits in depth-first order.
func (f *Finder) Results() []doctree.NodeID {
	return append([]doctree.NodeID(nil), f.results...)
}

// Stale reports whether t was mutated after the active search was built.
func (f *Finder) Stale(t *doctree.Tree) bool {
	return f.active && f.version != t.Version()
}

// Highlights returns the byte ranges of every case-insensitive,
// non-overlapping occurrence of query in text.
func Highlights(text, query string) [][2]int {
	if query == "" {
		return nil
	}
	q := []rune(query)
	var out [][2]int
	for i := 0; i < len(text); {
		if n, ok := matchFold(text[i:], q); ok {
			out = append(out, [2]int{i, i + n})
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return out
}

func matchFold(s string, q []rune) (int, bool) {
	n := 0
	for _, qr := range q {
		if n >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[n:])
		if r != qr && !strings.EqualFold(string(r), string(qr)) {
			return 0, false
		}
		n += size
	}
	return n, true
}
