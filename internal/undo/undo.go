// Package undo keeps a linear history of buffer snapshots for the node being
// edited.
package undo

// Entry is one snapshot of the edit buffer.
type Entry struct {
	Content string
	Cursor  int
}

// Buffer receives the snapshot restored by Undo or Redo.
type Buffer interface {
	Apply(content string, cursor int)
}

// BufferFunc adapts a function to Buffer.
type BufferFunc func(content string, cursor int)

func (f BufferFunc) Apply(content string, cursor int) { f(content, cursor) }

// Log is a stack of entries with a movable pointer. Entries are never
// removed by moving the pointer; a new Add always lands on top.
type Log struct {
	buf     Buffer
	stack   []Entry
	pointer int
	frozen  bool
}

// New returns an empty log that restores into buf.
func New(buf Buffer) *Log {
	return &Log{buf: buf}
}

// Add appends a snapshot and moves the pointer to it. It is ignored while
// the log is applying an entry, so the write-back does not re-enter the log.
func (l *Log) Add(content string, cursor int) {
	if l.frozen {
		return
	}
	l.stack = append(l.stack, Entry{Content: content, Cursor: cursor})
	l.pointer = len(l.stack) - 1
}

// Undo moves the pointer back (stopping at the oldest entry) and applies the
// entry there. It reports false on an empty log.
func (l *Log) Undo() bool {
	return l.step(-1)
}

// Redo moves the pointer forward (stopping at the newest entry) and applies
// the entry there. It reports false on an empty log.
func (l *Log) Redo() bool {
	return l.step(1)
}

func (l *Log) step(delta int) bool {
	if len(l.stack) == 0 {
		return false
	}
	l.frozen = true
	defer func() { l.frozen = false }()

	l.pointer = max(0, min(l.pointer+delta, len(l.stack)-1))
	e := l.stack[l.pointer]
	if l.buf != nil {
		l.buf.Apply(e.Content, e.Cursor)
	}
	return true
}

// Clear drops the whole history.
func (l *Log) Clear() {
	l.stack = nil
	l.pointer = 0
	l.frozen = false
}

// Frozen reports whether an entry is being applied.
func (l *Log) Frozen() bool { return l.frozen }

func (l *Log) Len() int     { return len(l.stack) }
func (l *Log) Pointer() int { return l.pointer }

// Current returns the entry under the pointer.
func (l *Log) Current() (Entry, bool) {
	if len(l.stack) == 0 {
		return Entry{}, false
	}
	return l.stack[l.pointer], true
}
