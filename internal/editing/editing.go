// Package editing holds the text transforms the editor applies to a node
// body. All functions are pure: they take a buffer and a byte offset cursor
// and return the new buffer and cursor.
package editing

import (
	"strings"
	"time"
)

// Bullet starts a list line that auto-indent continues.
const Bullet = "* "

// DateLayout is the format used by InsertDate.
const DateLayout = "2006-01-02"

// Key names the key whose press produced the current buffer.
type Key string

const (
	KeyReturn    Key = "Return"
	KeyTab       Key = "Tab"
	KeyBackSpace Key = "BackSpace"
	KeyDelete    Key = "Delete"
)

func clamp(buf string, cursor int) int {
	return max(0, min(cursor, len(buf)))
}

func lineStart(buf string, pos int) int {
	return strings.LastIndexByte(buf[:pos], '\n') + 1
}

// AutoIndent post-processes buf after key was applied at cursor.
//
// After Return the new line inherits the previous line's leading tabs and a
// bullet is continued. A bullet line left empty is turned into a blank line
// and the cursor moves to column zero, as is a line holding only tabs.
// Tab typed right after a bullet moves the bullet one level in. BackSpace
// that ate the bullet's space moves the bullet one level out instead.
func AutoIndent(buf string, cursor int, key Key) (string, int) {
	cursor = clamp(buf, cursor)

	switch {
	case key == KeyBackSpace:
		start := lineStart(buf, cursor)
		line := buf[start:cursor]
		if strings.HasPrefix(line, "\t") && strings.TrimLeft(line, "\t") == "*" {
			return buf[:start] + buf[start+1:cursor] + " " + buf[cursor:], cursor
		}
		return buf, cursor

	case key == KeyTab:
		if cursor >= len(Bullet)+1 && buf[cursor-len(Bullet)-1:cursor] == Bullet+"\t" {
			return buf[:cursor-len(Bullet)-1] + "\t" + Bullet + buf[cursor:], cursor
		}
		return buf, cursor

	case key == KeyDelete:
		return buf, cursor

	case cursor > 0 && buf[cursor-1] == '\n':
		prevStart := lineStart(buf, cursor-1)
		last := buf[prevStart:cursor]
		tabs := last[:len(last)-len(strings.TrimLeft(last, "\t"))]
		content := strings.TrimLeft(last, "\t")

		switch {
		case strings.HasPrefix(content, Bullet) && len(content) > len(Bullet)+1:
			ins := tabs + Bullet
			return buf[:cursor] + ins + buf[cursor:], cursor + len(ins)
		case strings.HasPrefix(content, Bullet):
			if prevStart == 0 {
				return "\n" + buf[cursor:], 1
			}
			return buf[:prevStart-1] + "\n\n" + buf[cursor:], prevStart + 1
		case content == "\n":
			return buf[:prevStart] + "\n" + buf[cursor:], prevStart + 1
		default:
			return buf[:cursor] + tabs + buf[cursor:], cursor + len(tabs)
		}
	}
	return buf, cursor
}

// touchedLines returns the start offsets of every line overlapping
// [start, end].
func touchedLines(buf string, start, end int) []int {
	starts := []int{lineStart(buf, start)}
	for i := start; i < end; i++ {
		if buf[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Indent prepends a tab to every line touched by the range and returns the
// shifted range.
func Indent(buf string, start, end int) (string, int, int) {
	start, end = clamp(buf, start), clamp(buf, end)
	if end < start {
		start, end = end, start
	}
	starts := touchedLines(buf, start, end)

	var b strings.Builder
	prev := 0
	for _, s := range starts {
		b.WriteString(buf[prev:s])
		b.WriteByte('\t')
		prev = s
	}
	b.WriteString(buf[prev:])

	newStart, newEnd := start, end
	for _, s := range starts {
		if s <= start {
			newStart++
		}
		if s <= end {
			newEnd++
		}
	}
	return b.String(), newStart, newEnd
}

// Unindent removes one leading tab from every line touched by the range and
// returns the shifted range.
func Unindent(buf string, start, end int) (string, int, int) {
	start, end = clamp(buf, start), clamp(buf, end)
	if end < start {
		start, end = end, start
	}

	var b strings.Builder
	prev := 0
	newStart, newEnd := start, end
	for _, s := range touchedLines(buf, start, end) {
		if s >= len(buf) || buf[s] != '\t' {
			continue
		}
		b.WriteString(buf[prev:s])
		prev = s + 1
		if s < start {
			newStart--
		}
		if s < end {
			newEnd--
		}
	}
	b.WriteString(buf[prev:])
	return b.String(), newStart, newEnd
}

// DeleteLine removes the line under the cursor including its newline.
func DeleteLine(buf string, cursor int) (string, int) {
	cursor = clamp(buf, cursor)
	start := lineStart(buf, cursor)
	end := len(buf)
	if i := strings.IndexByte(buf[cursor:], '\n'); i >= 0 {
		end = cursor + i + 1
	}
	return buf[:start] + buf[end:], start
}

// InsertText inserts text at the cursor and places the cursor after it.
func InsertText(buf string, cursor int, text string) (string, int) {
	cursor = clamp(buf, cursor)
	return buf[:cursor] + text + buf[cursor:], cursor + len(text)
}

// InsertDate inserts now formatted with DateLayout.
func InsertDate(buf string, cursor int, now time.Time) (string, int) {
	return InsertText(buf, cursor, now.Format(DateLayout))
}
