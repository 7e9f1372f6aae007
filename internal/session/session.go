// Package session is the controller between a document file and the outline
// it holds: it loads and saves, tracks the selected node, mediates undo and
// search, and runs imports and exports.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/editing"
	"github.com/dgallion1/outline/internal/export"
	"github.com/dgallion1/outline/internal/markdown"
	"github.com/dgallion1/outline/internal/parser"
	"github.com/dgallion1/outline/internal/search"
	"github.com/dgallion1/outline/internal/settings"
	"github.com/dgallion1/outline/internal/undo"
	"github.com/dgallion1/outline/internal/xmldoc"
)

var (
	// ErrNoSelection is returned when an operation needs a node and the
	// tree has none to fall back to.
	ErrNoSelection = errors.New("no node selected")
	// ErrBackupFailed marks a SaveResult warning; the save itself went on.
	ErrBackupFailed = errors.New("backup failed")
	// ErrNoFile is returned by Save and Reload before anything was loaded.
	ErrNoFile = errors.New("no document file")
	// ErrNoBackup is returned by Restore when no backup has been written.
	ErrNoBackup = errors.New("no backup to restore")
)

// Options configures a Session.
type Options struct {
	Logger *slog.Logger
	// Settings persists selection and filename. Optional.
	Settings *settings.Store
	// TemplatePath is the HTML export template. Empty uses the default.
	TemplatePath string
	// PDFFallbackPdftotext lets PDF imports retry with the pdftotext binary.
	PDFFallbackPdftotext bool
	// Now is the clock used by InsertDate. Defaults to time.Now.
	Now func() time.Time
}

// SaveResult describes a completed save.
type SaveResult struct {
	Path  string
	Bytes int
	// Warning is set when the backup step failed. It wraps ErrBackupFailed.
	Warning error
}

// Session owns one document. It is not safe for concurrent use.
type Session struct {
	log   *slog.Logger
	opts  Options
	store *settings.Store

	path     string
	tree     *doctree.Tree
	active   doctree.NodeID
	cursor   int
	history  *undo.Log
	finder   search.Finder
	settings settings.Settings
}

// New returns a Session holding the welcome document. Call Load or Open to
// attach a file.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		log:   opts.Logger,
		opts:  opts,
		store: opts.Settings,
		tree:  markdown.Welcome(),
	}
	// Undo writes back through Edit; the log is frozen meanwhile, so the
	// write does not record a new entry.
	s.history = undo.New(undo.BufferFunc(func(content string, cursor int) {
		s.Edit(content, cursor)
	}))

	s.settings = settings.Defaults("")
	if s.store != nil {
		st, err := s.store.Load()
		if err != nil {
			s.log.Warn("settings unreadable, using defaults", "error", err)
		}
		s.settings = st
	}
	s.selectFirst()
	return s
}

// Path is the file the session reads and writes.
func (s *Session) Path() string { return s.path }

// Tree returns the live outline. Mutate it only through the Session.
func (s *Session) Tree() *doctree.Tree { return s.tree }

// Settings returns the current settings record.
func (s *Session) Settings() settings.Settings { return s.settings }

// Active returns the selected node.
func (s *Session) Active() (doctree.Node, bool) {
	return s.tree.Get(s.active)
}

// Cursor returns the byte offset last recorded for the active body.
func (s *Session) Cursor() int { return s.cursor }

func isXML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

func (s *Session) decode(path string, data []byte) (*doctree.Tree, error) {
	if isXML(path) {
		t, st, err := xmldoc.Decode(bytes.NewReader(data), s.settings)
		if err != nil {
			return nil, err
		}
		s.settings = st
		if t.Len() == 0 {
			return markdown.Welcome(), nil
		}
		return t, nil
	}
	return markdown.Parse(bytes.NewReader(data))
}

func (s *Session) encode() ([]byte, error) {
	if isXML(s.path) {
		s.settings.LastPath = s.activePath()
		var buf bytes.Buffer
		if err := xmldoc.Encode(&buf, s.tree, s.settings); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return []byte(markdown.Serialize(s.tree)), nil
}

// Load replaces the outline with the document at path. A missing or
// unreadable file yields the welcome document. The selection is restored
// from the remembered tree path when it still exists.
func (s *Session) Load(path string) error {
	data, err := os.ReadFile(path)
	var t *doctree.Tree
	switch {
	case err != nil:
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("document missing, starting from welcome", "path", path)
		} else {
			s.log.Info("document unreadable, starting from welcome", "path", path, "error", err)
		}
		t = markdown.Welcome()
	default:
		t, err = s.decode(path, data)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	s.path = path
	s.replace(t, s.settings.LastPath)
	s.log.Info("document loaded", "path", path, "nodes", t.Len())
	return nil
}

// Open loads path and records it as the current document in the settings.
func (s *Session) Open(path string) error {
	if err := s.Load(path); err != nil {
		return err
	}
	return s.RememberPath()
}

// Resume loads the document remembered in the settings, or fallback when
// none is remembered.
func (s *Session) Resume(fallback string) error {
	path := s.settings.Filename
	if path == "" {
		path = fallback
	}
	return s.Load(path)
}

// Reload rereads the current file, keeping the selection path.
func (s *Session) Reload() error {
	if s.path == "" {
		return ErrNoFile
	}
	sel := s.activePath()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	t, err := s.decode(s.path, data)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}
	s.replace(t, sel)
	return nil
}

// Restore replaces the outline with the last backup, <file>.backup, keeping
// the selection path. The document file is only overwritten by the next
// save.
func (s *Session) Restore() error {
	if s.path == "" {
		return ErrNoFile
	}
	backup := s.path + ".backup"
	data, err := os.ReadFile(backup)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("restore %s: %w", s.path, ErrNoBackup)
	}
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	t, err := s.decode(s.path, data)
	if err != nil {
		return fmt.Errorf("restore %s: %w", backup, err)
	}
	s.replace(t, s.activePath())
	s.log.Info("document restored", "path", s.path, "backup", backup, "nodes", t.Len())
	return nil
}

func (s *Session) replace(t *doctree.Tree, selPath string) {
	s.tree = t
	s.finder.Reset()
	if id, err := t.NodeAt(selPath); err == nil {
		s.Select(id)
		return
	}
	s.selectFirst()
}

// Markdown returns the serialized document.
func (s *Session) Markdown() string {
	return markdown.Serialize(s.tree)
}

// SaveNeeded reports whether the serialized outline differs from the file on
// disk. A missing file always needs a save.
func (s *Session) SaveNeeded() bool {
	if s.path == "" {
		return true
	}
	disk, err := os.ReadFile(s.path)
	if err != nil {
		return true
	}
	cur, err := s.encode()
	if err != nil {
		return true
	}
	return !bytes.Equal(disk, cur)
}

// Save writes the outline to its file. With backup set the previous backup
// is rotated to <file>.backup.backup and the current file copied to
// <file>.backup first; a failed backup is reported as a warning in the
// result and the write goes ahead. The document is then reparsed, so
// headings typed into bodies become nodes, and the selection restored.
func (s *Session) Save(backup bool) (*SaveResult, error) {
	if s.path == "" {
		return nil, ErrNoFile
	}
	data, err := s.encode()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	res := &SaveResult{Path: s.path, Bytes: len(data)}
	if backup {
		if err := rotateBackups(s.path); err != nil {
			res.Warning = fmt.Errorf("%w: %v", ErrBackupFailed, err)
			s.log.Warn("backup failed, saving anyway", "path", s.path, "error", err)
		}
	}
	if err := writeFile(s.path, data); err != nil {
		return nil, err
	}

	sel := s.activePath()
	t, err := s.decode(s.path, data)
	if err != nil {
		return nil, fmt.Errorf("reparse %s: %w", s.path, err)
	}
	s.replace(t, sel)
	if err := s.RememberPath(); err != nil {
		s.log.Warn("remember selection", "error", err)
	}
	s.log.Info("document saved", "path", s.path, "bytes", len(data), "backup", backup)
	return res, nil
}

// SaveAs makes path the session's file and saves to it. The format follows
// the new file's extension.
func (s *Session) SaveAs(path string, backup bool) (*SaveResult, error) {
	if path == "" {
		return nil, ErrNoFile
	}
	prev := s.path
	s.path = path
	res, err := s.Save(backup)
	if err != nil {
		s.path = prev
	}
	return res, err
}

// rotateBackups copies <f>.backup to <f>.backup.backup and <f> to <f>.backup.
// Absent sources are skipped.
func rotateBackups(path string) error {
	first := path + ".backup"
	if err := copyFile(first, first+".backup"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := copyFile(path, first); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// writeFile writes through a temp file in the target directory so a failed
// write leaves the old document intact.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Select makes id the active node. The undo log restarts with the node's
// body at offset 0.
func (s *Session) Select(id doctree.NodeID) error {
	n, ok := s.tree.Get(id)
	if !ok {
		return fmt.Errorf("select %d: %w", id, doctree.ErrNodeNotFound)
	}
	s.active = id
	s.cursor = 0
	s.history.Clear()
	s.history.Add(n.Body, 0)
	return nil
}

// SelectPath selects the node at a "0:2" style path.
func (s *Session) SelectPath(path string) error {
	id, err := s.tree.NodeAt(path)
	if err != nil {
		return err
	}
	return s.Select(id)
}

func (s *Session) selectFirst() {
	s.active = doctree.Root
	if first := s.tree.First(); first != doctree.Root {
		s.Select(first)
	}
}

// require returns the active node, falling back to the first top-level node.
func (s *Session) require(op string) (doctree.NodeID, error) {
	if s.tree.Contains(s.active) {
		return s.active, nil
	}
	s.log.Warn("no node selected, using first node", "op", op)
	s.selectFirst()
	if s.active == doctree.Root {
		return doctree.Root, ErrNoSelection
	}
	return s.active, nil
}

func (s *Session) activePath() string {
	p, err := s.tree.PathOf(s.active)
	if err != nil {
		return ""
	}
	return p
}

// Edit replaces the active body and records the new state in the undo log.
func (s *Session) Edit(content string, cursor int) error {
	id, err := s.require("edit")
	if err != nil {
		return err
	}
	if err := s.tree.SetBody(id, content); err != nil {
		return err
	}
	s.history.Add(content, cursor)
	s.cursor = cursor
	s.finder.Reset()
	return nil
}

// Type applies the auto-indent rules for key to an edit and records it.
func (s *Session) Type(content string, cursor int, key editing.Key) error {
	content, cursor = editing.AutoIndent(content, cursor, key)
	return s.Edit(content, cursor)
}

// InsertDate inserts today's date at the cursor of the active body.
func (s *Session) InsertDate() error {
	id, err := s.require("insert date")
	if err != nil {
		return err
	}
	n, _ := s.tree.Get(id)
	body, cursor := editing.InsertDate(n.Body, s.cursor, s.opts.Now())
	return s.Edit(body, cursor)
}

// Undo restores the previous body of the active node.
func (s *Session) Undo() bool { return s.history.Undo() }

// Redo restores the next body of the active node.
func (s *Session) Redo() bool { return s.history.Redo() }

// InsertSibling adds a new node after the active one and selects it.
func (s *Session) InsertSibling() (doctree.NodeID, error) {
	id, err := s.require("insert sibling")
	if err != nil {
		return doctree.Root, err
	}
	return s.added(s.tree.InsertSibling(id))
}

// InsertChild adds a new last child to the active node and selects it.
func (s *Session) InsertChild() (doctree.NodeID, error) {
	id, err := s.require("insert child")
	if err != nil {
		return doctree.Root, err
	}
	return s.added(s.tree.InsertChild(id))
}

func (s *Session) added(id doctree.NodeID, err error) (doctree.NodeID, error) {
	if err != nil {
		return doctree.Root, err
	}
	s.finder.Reset()
	return id, s.Select(id)
}

// Delete removes the active node and its subtree, then selects the previous
// sibling, else the parent, else the first node.
func (s *Session) Delete() error {
	id, err := s.require("delete")
	if err != nil {
		return err
	}
	parent, _ := s.tree.Parent(id)
	next := parent
	siblings := s.tree.Children(parent)
	for i, sib := range siblings {
		if sib == id && i > 0 {
			next = siblings[i-1]
		}
	}

	if err := s.tree.Delete(id); err != nil {
		return err
	}
	s.finder.Reset()
	if next == doctree.Root {
		s.selectFirst()
		return nil
	}
	return s.Select(next)
}

// Rename sets the active node's title.
func (s *Session) Rename(title string) error {
	id, err := s.require("rename")
	if err != nil {
		return err
	}
	if err := s.tree.Rename(id, title); err != nil {
		return err
	}
	s.finder.Reset()
	return nil
}

// Move reparents id under parent at index.
func (s *Session) Move(id, parent doctree.NodeID, index int) error {
	if err := s.tree.Move(id, parent, index); err != nil {
		return err
	}
	s.finder.Reset()
	return nil
}

// Find starts a search and selects the first hit. A different query or an
// outline changed since the last search starts over.
func (s *Session) Find(query string) (doctree.NodeID, string, bool) {
	if s.finder.Active() && (query != s.finder.Query() || s.finder.Stale(s.tree)) {
		s.finder.Reset()
	}
	if !s.finder.Active() && !s.finder.Find(query, s.tree) {
		return doctree.Root, s.finder.Status(), false
	}
	return s.FindNext()
}

// FindNext selects the following hit.
func (s *Session) FindNext() (doctree.NodeID, string, bool) {
	return s.visit(s.finder.Next())
}

// FindPrevious selects the preceding hit.
func (s *Session) FindPrevious() (doctree.NodeID, string, bool) {
	return s.visit(s.finder.Previous())
}

func (s *Session) visit(id doctree.NodeID, status string, ok bool) (doctree.NodeID, string, bool) {
	if !ok {
		return id, status, false
	}
	if err := s.Select(id); err != nil {
		s.log.Warn("search hit vanished", "node", id, "error", err)
		s.finder.Reset()
		return doctree.Root, s.finder.Status(), false
	}
	return id, status, true
}

// ResetFind discards the current search.
func (s *Session) ResetFind() { s.finder.Reset() }

// Hits returns the nodes matched by the current search in document order.
func (s *Session) Hits() []doctree.NodeID { return s.finder.Results() }

// FindStatus reports the "position/total" of the current search.
func (s *Session) FindStatus() string { return s.finder.Status() }

// Import parses a foreign file and grafts it under a new top-level node,
// which becomes the selection.
func (s *Session) Import(path string) (doctree.NodeID, error) {
	if !parser.IsSupportedExtension(path) {
		return doctree.Root, fmt.Errorf("import %s: unsupported file type", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return doctree.Root, fmt.Errorf("open import: %w", err)
	}
	defer f.Close()
	return s.ImportReader(f, path)
}

// ImportReader is Import for content that is not on disk; name picks the
// parser and titles the fragment.
func (s *Session) ImportReader(r io.Reader, name string) (doctree.NodeID, error) {
	p, err := parser.ForFile(name)
	if err != nil {
		return doctree.Root, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.opts.PDFFallbackPdftotext
	}
	frag, err := p.Parse(r, filepath.Base(name))
	if err != nil {
		return doctree.Root, fmt.Errorf("import %s: %w", name, err)
	}
	return s.graftSelect(frag, "Imported from "+name)
}

// ImportNotes imports a gnote or tomboy note directory (the application's
// default when dir is empty).
func (s *Session) ImportNotes(dir string, source parser.NoteSource) (doctree.NodeID, error) {
	frag, err := parser.ImportDir(dir, source)
	if err != nil {
		return doctree.Root, fmt.Errorf("import %s: %w", source, err)
	}
	return s.graftSelect(frag, "Imported from "+source.Title())
}

// ImportFragment grafts an already parsed fragment. Unlike Import it leaves
// the selection and its undo history alone, so background imports do not
// move the node a client is editing.
func (s *Session) ImportFragment(frag *doctree.DocTree, source string) (doctree.NodeID, error) {
	return s.graft(frag, "Imported from "+source)
}

func (s *Session) graft(frag *doctree.DocTree, body string) (doctree.NodeID, error) {
	id, err := s.tree.Graft(doctree.Root, frag, body)
	if err != nil {
		return doctree.Root, err
	}
	s.finder.Reset()
	s.log.Info("imported", "title", frag.Title, "nodes", frag.Count()+1)
	return id, nil
}

func (s *Session) graftSelect(frag *doctree.DocTree, body string) (doctree.NodeID, error) {
	id, err := s.graft(frag, body)
	if err != nil {
		return id, err
	}
	return id, s.Select(id)
}

// ExportHTML renders the document into the configured template and writes
// it to path unless path is empty. It returns the page.
func (s *Session) ExportHTML(path string) (string, error) {
	tpl, err := export.LoadTemplate(s.opts.TemplatePath)
	if err != nil {
		s.log.Debug("using default export template", "error", err)
	}
	page, err := export.HTML(s.Markdown(), tpl)
	if err != nil {
		return "", err
	}
	if path != "" {
		if err := writeFile(path, []byte(page)); err != nil {
			return "", err
		}
		s.log.Info("exported html", "path", path)
	}
	return page, nil
}

// Breadcrumb returns the titles from the top-level ancestor to the active
// node.
func (s *Session) Breadcrumb() []string {
	return s.tree.Breadcrumb(s.active)
}

// RememberPath stores the active node's path and the filename in the
// settings.
func (s *Session) RememberPath() error {
	s.settings.LastPath = s.activePath()
	s.settings.Filename = s.path
	if s.store == nil {
		return nil
	}
	return s.store.Save(s.settings)
}
