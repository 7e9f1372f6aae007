package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/net/html"
)

const (
	notebookPrefix = "system:notebook:"
	templateTag    = "system:template"
	// Unfiled holds notes that carry no notebook tag.
	Unfiled = "Unfiled"
)

// ErrNotANote is returned for input without a <title> or <note-content>.
var ErrNotANote = errors.New("not a gnote/tomboy note")

// Note is one gnote/tomboy note file.
type Note struct {
	Title    string
	Content  string
	Notebook string
	Template bool
}

// ReadNote extracts title, content and tags from a note file. Markup inside
// the content is dropped and entities are unescaped.
func ReadNote(r io.Reader) (Note, error) {
	var (
		n       Note
		capture string
		buf     strings.Builder
		seen    bool
	)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return Note{}, fmt.Errorf("read note: %w", err)
			}
			if !seen {
				return Note{}, ErrNotANote
			}
			return n, nil

		case html.StartTagToken:
			name, _ := z.TagName()
			switch tag := string(name); tag {
			case "title", "note-content", "tag":
				if capture == "" {
					capture = tag
					buf.Reset()
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if capture == "" || string(name) != capture {
				continue
			}
			v := buf.String()
			switch capture {
			case "title":
				n.Title = strings.TrimSpace(v)
				seen = true
			case "note-content":
				n.Content = v
				seen = true
			case "tag":
				tag := strings.TrimSpace(v)
				switch {
				case strings.HasPrefix(tag, templateTag):
					n.Template = true
				case strings.HasPrefix(tag, notebookPrefix) && n.Notebook == "":
					n.Notebook = strings.TrimPrefix(tag, notebookPrefix)
				}
			}
			capture = ""

		case html.TextToken:
			if capture != "" {
				buf.Write(z.Text())
			}
		}
	}
}

// NoteParser imports a single note file as a notebook fragment.
type NoteParser struct{}

func (p *NoteParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	n, err := ReadNote(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	book := n.Notebook
	if book == "" {
		book = Unfiled
	}
	return &doctree.DocTree{
		Title:    book,
		Children: []*doctree.DocNode{{Title: n.Title, Text: n.Content}},
	}, nil
}

// NoteSource names the application whose note directory is read.
type NoteSource string

const (
	Gnote  NoteSource = "gnote"
	Tomboy NoteSource = "tomboy"
)

// Title is the name of the top-level node an import is grafted under.
func (s NoteSource) Title() string {
	if s == Tomboy {
		return "Tomboy"
	}
	return "Gnote"
}

// Dir returns the application's default note directory.
func (s NoteSource) Dir() (string, error) {
	return homedir.Expand(filepath.Join("~", ".local", "share", string(s)))
}

// ImportDir reads every .note file in dir (the source's default directory
// when dir is empty) and groups the notes by notebook, in the order the
// notebooks are first seen. Subdirectories such as Backup are skipped, as
// are template notes.
func ImportDir(dir string, source NoteSource) (*doctree.DocTree, error) {
	if dir == "" {
		d, err := source.Dir()
		if err != nil {
			return nil, fmt.Errorf("note directory: %w", err)
		}
		dir = d
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read note directory: %w", err)
	}

	tree := &doctree.DocTree{Title: source.Title()}
	books := map[string]*doctree.DocNode{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".note" {
			continue
		}
		n, err := readNoteFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if n.Template {
			continue
		}
		name := n.Notebook
		if name == "" {
			name = Unfiled
		}
		book, ok := books[name]
		if !ok {
			book = &doctree.DocNode{Title: name}
			books[name] = book
			tree.Children = append(tree.Children, book)
		}
		book.Children = append(book.Children, &doctree.DocNode{Title: n.Title, Text: n.Content})
	}
	return tree, nil
}

func readNoteFile(path string) (Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return Note{}, fmt.Errorf("open note: %w", err)
	}
	defer f.Close()
	n, err := ReadNote(f)
	if err != nil {
		return Note{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return n, nil
}
