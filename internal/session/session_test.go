package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/editing"
	"github.com/dgallion1/outline/internal/parser"
	"github.com/dgallion1/outline/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\n# Welcome\nHello.\n\n## Details\nMore.\n\n# Second\n"

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outline.text")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loaded(t *testing.T, content string) *Session {
	t.Helper()
	s := New(Options{})
	require.NoError(t, s.Load(writeDoc(t, content)))
	return s
}

func activeTitle(t *testing.T, s *Session) string {
	t.Helper()
	n, ok := s.Active()
	require.True(t, ok, "expected an active node")
	return n.Title
}

func TestLoad_MissingFileGivesWelcome(t *testing.T) {
	s := New(Options{})
	path := filepath.Join(t.TempDir(), "nope.text")
	require.NoError(t, s.Load(path))

	assert.Equal(t, path, s.Path())
	assert.Equal(t, 1, s.Tree().Len())
	assert.Equal(t, "Welcome", activeTitle(t, s))
	assert.True(t, s.SaveNeeded())
}

func TestLoad_SelectsFirstNode(t *testing.T) {
	s := loaded(t, sample)
	assert.Equal(t, 3, s.Tree().Len())
	assert.Equal(t, "Welcome", activeTitle(t, s))
	assert.False(t, s.SaveNeeded())
}

func TestSave_WritesAndRotatesBackups(t *testing.T) {
	s := loaded(t, sample)
	path := s.Path()

	require.NoError(t, s.Edit("Changed.\n", 8))
	res, err := s.Save(true)
	require.NoError(t, err)
	assert.NoError(t, res.Warning)
	assert.Equal(t, path, res.Path)

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, sample, string(backup))
	_, err = os.Stat(path + ".backup.backup")
	assert.True(t, os.IsNotExist(err), "no second-generation backup on first save")

	require.NoError(t, s.Edit("Again.\n", 0))
	_, err = s.Save(true)
	require.NoError(t, err)

	older, err := os.ReadFile(path + ".backup.backup")
	require.NoError(t, err)
	assert.Equal(t, sample, string(older))
	newer, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Contains(t, string(newer), "Changed.")

	disk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(disk), "Again.")
	assert.False(t, s.SaveNeeded())
}

func TestSave_BackupFailureIsWarning(t *testing.T) {
	s := loaded(t, sample)
	// A directory where the backup file should go makes the copy fail.
	require.NoError(t, os.Mkdir(s.Path()+".backup", 0o755))

	require.NoError(t, s.Edit("kept\n", 0))
	res, err := s.Save(true)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Warning, ErrBackupFailed)

	disk, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(disk), "kept")
}

func TestSave_WithoutBackup(t *testing.T) {
	s := loaded(t, sample)
	_, err := s.Save(false)
	require.NoError(t, err)
	_, err = os.Stat(s.Path() + ".backup")
	assert.True(t, os.IsNotExist(err))
}

func TestSave_ReparsesAndRestoresSelection(t *testing.T) {
	s := loaded(t, sample)
	require.NoError(t, s.SelectPath("1"))
	require.NoError(t, s.Edit("intro\n\n## Typed\nbody\n", 0))

	_, err := s.Save(false)
	require.NoError(t, err)

	assert.Equal(t, "Second", activeTitle(t, s))
	id, err := s.Tree().NodeAt("1:0")
	require.NoError(t, err)
	n, _ := s.Tree().Get(id)
	assert.Equal(t, "Typed", n.Title)
	assert.Equal(t, "body\n", n.Body)
}

func TestSave_NoFile(t *testing.T) {
	_, err := New(Options{}).Save(false)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestEditUndoRedo(t *testing.T) {
	s := loaded(t, "\n# A\n")
	id := s.Tree().First()
	require.NoError(t, s.Edit("a", 1))
	require.NoError(t, s.Edit("ab", 2))
	require.NoError(t, s.Edit("abc", 3))

	body := func() string {
		n, _ := s.Tree().Get(id)
		return n.Body
	}

	require.True(t, s.Undo())
	assert.Equal(t, "ab", body())
	assert.Equal(t, 2, s.Cursor())
	require.True(t, s.Undo())
	assert.Equal(t, "a", body())
	require.True(t, s.Redo())
	assert.Equal(t, "ab", body())
	require.True(t, s.Redo())
	assert.Equal(t, "abc", body())
	require.True(t, s.Redo())
	assert.Equal(t, "abc", body(), "redo at the newest entry stays put")

	// Undo past the oldest entry lands on the seeded body.
	for range 5 {
		s.Undo()
	}
	assert.Equal(t, "", body())
}

func TestSelect_ClearsUndo(t *testing.T) {
	s := loaded(t, sample)
	require.NoError(t, s.Edit("x", 1))
	require.NoError(t, s.SelectPath("1"))
	require.NoError(t, s.SelectPath("0"))

	require.True(t, s.Undo())
	n, _ := s.Active()
	assert.Equal(t, "x", n.Body, "history restarts at the body seen on selection")
}

func TestSelect_Unknown(t *testing.T) {
	s := loaded(t, sample)
	assert.ErrorIs(t, s.Select(999), doctree.ErrNodeNotFound)
	assert.Error(t, s.SelectPath("7:7"))
}

func TestStructuralOps(t *testing.T) {
	s := loaded(t, sample)

	sib, err := s.InsertSibling()
	require.NoError(t, err)
	assert.Equal(t, sib, s.active)
	path, _ := s.Tree().PathOf(sib)
	assert.Equal(t, "1", path)
	assert.Equal(t, doctree.DefaultTitle, activeTitle(t, s))

	require.NoError(t, s.Rename("Inserted"))
	child, err := s.InsertChild()
	require.NoError(t, err)
	path, _ = s.Tree().PathOf(child)
	assert.Equal(t, "1:0", path)

	require.NoError(t, s.Delete())
	assert.Equal(t, "Inserted", activeTitle(t, s), "parent selected after deleting only child")

	second, _ := s.Tree().NodeAt("2")
	require.NoError(t, s.Move(second, doctree.Root, 0))
	assert.Equal(t, []string{"Second", "Welcome", "Inserted"}, titles(s.Tree(), s.Tree().Roots()))
}

func titles(t *doctree.Tree, ids []doctree.NodeID) []string {
	var out []string
	for _, id := range ids {
		n, _ := t.Get(id)
		out = append(out, n.Title)
	}
	return out
}

func TestDelete_LastNodeRejected(t *testing.T) {
	s := loaded(t, "\n# Only\n")
	assert.ErrorIs(t, s.Delete(), doctree.ErrCannotDeleteLastNode)
	assert.Equal(t, 1, s.Tree().Len())
}

func TestDelete_SelectsPreviousSibling(t *testing.T) {
	s := loaded(t, sample)
	require.NoError(t, s.SelectPath("1"))
	require.NoError(t, s.Delete())
	assert.Equal(t, "Welcome", activeTitle(t, s))
}

func TestNoSelectionFallsBackToFirst(t *testing.T) {
	s := loaded(t, sample)
	s.active = doctree.Root
	require.NoError(t, s.Rename("Renamed"))
	assert.Equal(t, "Renamed", activeTitle(t, s))
}

func TestFind(t *testing.T) {
	s := loaded(t, "\n# Apple\n\n# Banana\napple pie\n\n# Cherry\n")

	id, status, ok := s.Find("apple")
	require.True(t, ok)
	assert.Equal(t, "1/2", status)
	assert.Equal(t, id, s.active)
	assert.Equal(t, "Apple", activeTitle(t, s))

	_, status, ok = s.FindNext()
	require.True(t, ok)
	assert.Equal(t, "2/2", status)
	assert.Equal(t, "Banana", activeTitle(t, s))

	_, status, _ = s.FindNext()
	assert.Equal(t, "1/2", status)
	_, status, _ = s.FindPrevious()
	assert.Equal(t, "2/2", status)

	// An edit resets the search.
	require.NoError(t, s.Edit("no fruit", 0))
	assert.Equal(t, "0/0", s.FindStatus())

	_, status, ok = s.Find("kiwi")
	assert.False(t, ok)
	assert.Equal(t, "0/0", status)
}

func TestFind_NewQueryRestarts(t *testing.T) {
	s := loaded(t, "\n# Apple\n\n# Banana\n")
	s.Find("apple")
	_, status, ok := s.Find("banana")
	require.True(t, ok)
	assert.Equal(t, "1/1", status)
	assert.Equal(t, "Banana", activeTitle(t, s))
}

func TestTypeAndInsertDate(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	s := New(Options{Now: func() time.Time { return now }})
	require.NoError(t, s.Load(writeDoc(t, "\n# A\n")))

	require.NoError(t, s.Type("* milk\n", 7, editing.KeyReturn))
	n, _ := s.Active()
	assert.Equal(t, "* milk\n* ", n.Body)
	assert.Equal(t, 9, s.Cursor())

	require.NoError(t, s.InsertDate())
	n, _ = s.Active()
	assert.Equal(t, "* milk\n* 2025-01-02", n.Body)
}

func TestImport(t *testing.T) {
	s := loaded(t, sample)
	src := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(src, []byte("# One\n\nfirst\n\n## Two\n"), 0o644))

	id, err := s.Import(src)
	require.NoError(t, err)
	assert.Equal(t, id, s.active)

	n, _ := s.Tree().Get(id)
	assert.Equal(t, "notes", n.Title)
	assert.Equal(t, "Imported from "+src, n.Body)
	assert.Equal(t, []doctree.NodeID{id}, s.Tree().Roots()[2:])
	kids := s.Tree().Children(id)
	require.Len(t, kids, 1)
	assert.Equal(t, []string{"One"}, titles(s.Tree(), kids))
	assert.Len(t, s.Tree().Children(kids[0]), 1)

	_, err = s.Import(filepath.Join(t.TempDir(), "x.exe"))
	assert.Error(t, err)
}

func TestImportNotes(t *testing.T) {
	s := loaded(t, sample)
	dir := t.TempDir()
	note := `<note><title>Milk</title><text><note-content>Milk
2 liters</note-content></text><tags><tag>system:notebook:Home</tag></tags></note>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.note"), []byte(note), 0o644))

	id, err := s.ImportNotes(dir, parser.Gnote)
	require.NoError(t, err)
	n, _ := s.Tree().Get(id)
	assert.Equal(t, "Gnote", n.Title)
	assert.Equal(t, "Imported from Gnote", n.Body)
	assert.Equal(t, []string{"Gnote", "Home", "Milk"}, s.Tree().Breadcrumb(s.Tree().Children(s.Tree().Children(id)[0])[0]))
}

func TestExportHTML(t *testing.T) {
	s := loaded(t, sample)
	tpl := filepath.Join(t.TempDir(), "tpl.html")
	require.NoError(t, os.WriteFile(tpl, []byte("<html><title>x</title><body /></html>"), 0o644))
	s.opts.TemplatePath = tpl

	out := filepath.Join(t.TempDir(), "out", "outline.html")
	page, err := s.ExportHTML(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<html><title>x</title><body>"))
	assert.Contains(t, page, "Details</h2>")

	disk, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, page, string(disk))
}

func TestRememberPathPersists(t *testing.T) {
	dir := t.TempDir()
	store := settings.Open(filepath.Join(dir, "settings"), settings.Defaults(""))
	path := writeDoc(t, sample)

	s := New(Options{Settings: store})
	require.NoError(t, s.Open(path))
	require.NoError(t, s.SelectPath("0:0"))
	require.NoError(t, s.RememberPath())

	again := New(Options{Settings: store})
	assert.Equal(t, path, again.Settings().Filename)
	require.NoError(t, again.Load(path))
	assert.Equal(t, "Details", activeTitle(t, again))
	assert.Equal(t, []string{"Welcome", "Details"}, again.Breadcrumb())
}

func TestReload(t *testing.T) {
	s := loaded(t, sample)
	require.NoError(t, s.SelectPath("0:0"))
	require.NoError(t, os.WriteFile(s.Path(), []byte("\n# Welcome\n\n## Details\nchanged\n"), 0o644))

	require.NoError(t, s.Reload())
	n, _ := s.Active()
	assert.Equal(t, "Details", n.Title)
	assert.Equal(t, "changed\n", n.Body)
}

func TestXMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xml")
	doc := `<Nota><Configuration><LastPath>0:0</LastPath></Configuration>
<Tree><Item><Name>Top</Name><Desc>top body</Desc><Tree><Item><Name>Leaf</Name><Desc>leaf body</Desc></Item></Tree></Item></Tree></Nota>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := New(Options{})
	require.NoError(t, s.Load(path))
	assert.Equal(t, "Leaf", activeTitle(t, s))

	require.NoError(t, s.Rename("Renamed leaf"))
	_, err := s.Save(false)
	require.NoError(t, err)

	disk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(disk), "<Name>Renamed leaf</Name>")
	assert.Contains(t, string(disk), "<LastPath>0:0</LastPath>")
	assert.False(t, s.SaveNeeded())
}

func TestSaveAs_ConvertsFormat(t *testing.T) {
	s := loaded(t, sample)
	out := filepath.Join(t.TempDir(), "converted.xml")

	_, err := s.SaveAs(out, false)
	require.NoError(t, err)
	assert.Equal(t, out, s.Path())

	back := New(Options{})
	require.NoError(t, back.Load(out))
	assert.Equal(t, sample, back.Markdown())
}

func TestRestore_ReturnsToBackup(t *testing.T) {
	s := loaded(t, sample)
	assert.ErrorIs(t, s.Restore(), ErrNoBackup)

	require.NoError(t, s.Edit("Saved edit.\n", 0))
	_, err := s.Save(true)
	require.NoError(t, err)

	_, err = s.InsertSibling()
	require.NoError(t, err)
	require.NoError(t, s.SelectPath("0:0"))
	require.NoError(t, s.Rename("Scratch"))

	require.NoError(t, s.Restore())
	assert.Equal(t, sample, s.Markdown(), "outline is the one before the save")
	assert.Equal(t, "Details", activeTitle(t, s))
	assert.True(t, s.SaveNeeded(), "the file still holds the saved edit")

	disk, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(disk), "Saved edit.")
}

func TestRestore_NoFile(t *testing.T) {
	assert.ErrorIs(t, New(Options{}).Restore(), ErrNoFile)
}

func TestResume_PrefersRememberedFile(t *testing.T) {
	dir := t.TempDir()
	store := settings.Open(filepath.Join(dir, "settings"), settings.Defaults(""))
	other := filepath.Join(dir, "other.text")
	require.NoError(t, os.WriteFile(other, []byte("\n# Other\n"), 0o644))
	fallback := writeDoc(t, sample)

	s := New(Options{Settings: store})
	require.NoError(t, s.Resume(fallback))
	assert.Equal(t, fallback, s.Path(), "nothing remembered yet")

	require.NoError(t, s.Open(other))

	again := New(Options{Settings: store})
	require.NoError(t, again.Resume(fallback))
	assert.Equal(t, other, again.Path())
	assert.Equal(t, "Other", activeTitle(t, again))
}

func TestRename_LineBreaksDoNotSplitNode(t *testing.T) {
	s := loaded(t, "\n# A\na\n\n# B\nb\n")
	require.NoError(t, s.Rename("A\n\n# Injected"))
	_, err := s.Save(false)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Tree().Len())
	assert.Equal(t, "A  # Injected", activeTitle(t, s))
}

func TestImportFragment_KeepsSelection(t *testing.T) {
	s := loaded(t, sample)
	require.NoError(t, s.SelectPath("0:0"))
	require.NoError(t, s.Edit("typed\n", 6))

	frag := &doctree.DocTree{Title: "bg", Children: []*doctree.DocNode{{Title: "x"}}}
	id, err := s.ImportFragment(frag, "bg.md")
	require.NoError(t, err)

	assert.NotEqual(t, id, s.active)
	assert.Equal(t, "Details", activeTitle(t, s))
	assert.True(t, s.Undo(), "undo history survives the import")
	n, _ := s.Active()
	assert.Equal(t, "More.\n", n.Body)
}
