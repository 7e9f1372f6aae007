package doctree

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodeID is a stable handle to a node. IDs are never reused within a Tree,
// so a handle to a deleted node stays invalid instead of aliasing a new one.
type NodeID uint64

// Root is the handle of the invisible container that owns the top-level nodes.
const Root NodeID = 0

const (
	// Placeholder is shown for untitled nodes. A node titled with it is not
	// written as a heading on serialization.
	Placeholder = "…"

	// DefaultTitle is the title of freshly inserted nodes.
	DefaultTitle = "New"
)

var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrCannotDeleteLastNode = errors.New("cannot delete the last node")
	ErrInvalidMove          = errors.New("cannot move a node into its own subtree")
	ErrInvalidPath          = errors.New("invalid tree path")
)

// Node is a read-only view of one outline node.
type Node struct {
	ID     NodeID
	Parent NodeID
	Title  string
	Body   string
}

// DisplayTitle returns the title, or the placeholder when it is empty.
func (n Node) DisplayTitle() string {
	if n.Title == "" {
		return Placeholder
	}
	return n.Title
}

type entry struct {
	title    string
	body     string
	parent   NodeID
	children []NodeID
}

// Tree is the in-memory ordered forest of an editing session.
// It is not safe for concurrent use.
type Tree struct {
	nodes   map[NodeID]*entry
	next    NodeID
	version uint64
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{
		nodes: map[NodeID]*entry{Root: {}},
		next:  1,
	}
}

// Version increments on every successful mutation.
func (t *Tree) Version() uint64 { return t.version }

// Len returns the number of nodes, excluding Root.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Contains reports whether id names a live node.
func (t *Tree) Contains(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok && id != Root
}

// Get returns a view of the node.
func (t *Tree) Get(id NodeID) (Node, bool) {
	e, ok := t.nodes[id]
	if !ok || id == Root {
		return Node{}, false
	}
	return Node{ID: id, Parent: e.parent, Title: e.title, Body: e.body}, true
}

// Parent returns the parent handle (Root for top-level nodes).
func (t *Tree) Parent(id NodeID) (NodeID, error) {
	e, err := t.lookup(id)
	if err != nil {
		return Root, err
	}
	return e.parent, nil
}

// Children returns a copy of the ordered child handles of id.
// Children(Root) returns the top-level nodes.
func (t *Tree) Children(id NodeID) []NodeID {
	e, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.children)
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []NodeID { return t.Children(Root) }

// First returns the first top-level node, or Root when the tree is empty.
func (t *Tree) First() NodeID {
	if roots := t.nodes[Root].children; len(roots) > 0 {
		return roots[0]
	}
	return Root
}

func (t *Tree) lookup(id NodeID) (*entry, error) {
	e, ok := t.nodes[id]
	if !ok || id == Root {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return e, nil
}

func (t *Tree) alloc(parent NodeID, title, body string) NodeID {
	id := t.next
	t.next++
	t.nodes[id] = &entry{title: singleLine(title), body: body, parent: parent}
	return id
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine folds line breaks into spaces. A title is written as one
// heading line, so a break would split the node on the next parse.
func singleLine(title string) string {
	return lineBreaks.Replace(title)
}

// Add appends a node as the last child of parent (Root for top level).
func (t *Tree) Add(parent NodeID, title, body string) (NodeID, error) {
	p, ok := t.nodes[parent]
	if !ok {
		return Root, fmt.Errorf("%w: %d", ErrNodeNotFound, parent)
	}
	id := t.alloc(parent, title, body)
	p.children = append(p.children, id)
	t.version++
	return id, nil
}

// InsertSibling creates a DefaultTitle node directly after ref.
func (t *Tree) InsertSibling(ref NodeID) (NodeID, error) {
	e, err := t.lookup(ref)
	if err != nil {
		return Root, err
	}
	p := t.nodes[e.parent]
	idx := slices.Index(p.children, ref)
	id := t.alloc(e.parent, DefaultTitle, "")
	p.children = slices.Insert(p.children, idx+1, id)
	t.version++
	return id, nil
}

// InsertChild creates a DefaultTitle node as the last child of ref.
func (t *Tree) InsertChild(ref NodeID) (NodeID, error) {
	if _, err := t.lookup(ref); err != nil {
		return Root, err
	}
	id, _ := t.Add(ref, DefaultTitle, "")
	return id, nil
}

// Delete removes id and its subtree. The sole top-level node cannot be
// deleted, so the tree never becomes empty through Delete.
func (t *Tree) Delete(id NodeID) error {
	e, err := t.lookup(id)
	if err != nil {
		return err
	}
	p := t.nodes[e.parent]
	if e.parent == Root && len(p.children) == 1 {
		return ErrCannotDeleteLastNode
	}
	p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	t.drop(id)
	t.version++
	return nil
}

func (t *Tree) drop(id NodeID) {
	for _, c := range t.nodes[id].children {
		t.drop(c)
	}
	delete(t.nodes, id)
}

// Rename sets the title of id. Line breaks become spaces.
func (t *Tree) Rename(id NodeID, title string) error {
	e, err := t.lookup(id)
	if err != nil {
		return err
	}
	e.title = singleLine(title)
	t.version++
	return nil
}

// SetBody replaces the body text of id.
func (t *Tree) SetBody(id NodeID, body string) error {
	e, err := t.lookup(id)
	if err != nil {
		return err
	}
	e.body = body
	t.version++
	return nil
}

// Move detaches id and inserts it at index among newParent's children.
// The index is clamped to the valid range.
func (t *Tree) Move(id, newParent NodeID, index int) error {
	e, err := t.lookup(id)
	if err != nil {
		return err
	}
	np, ok := t.nodes[newParent]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, newParent)
	}
	for a := newParent; a != Root; a = t.nodes[a].parent {
		if a == id {
			return ErrInvalidMove
		}
	}

	old := t.nodes[e.parent]
	old.children = slices.DeleteFunc(old.children, func(c NodeID) bool { return c == id })

	index = max(0, min(index, len(np.children)))
	np.children = slices.Insert(np.children, index, id)
	e.parent = newParent
	t.version++
	return nil
}

// Walk visits every node in depth-first pre-order. Top-level nodes have
// depth 1.
func (t *Tree) Walk(fn func(n Node, depth int)) {
	var walk func(ids []NodeID, depth int)
	walk = func(ids []NodeID, depth int) {
		for _, id := range ids {
			e := t.nodes[id]
			fn(Node{ID: id, Parent: e.parent, Title: e.title, Body: e.body}, depth)
			walk(e.children, depth+1)
		}
	}
	walk(t.nodes[Root].children, 1)
}

// PathOf returns the colon-separated index path of id, e.g. "0:2".
func (t *Tree) PathOf(id NodeID) (string, error) {
	if _, err := t.lookup(id); err != nil {
		return "", err
	}
	var parts []string
	for cur := id; cur != Root; {
		parent := t.nodes[cur].parent
		idx := slices.Index(t.nodes[parent].children, cur)
		parts = append(parts, strconv.Itoa(idx))
		cur = parent
	}
	slices.Reverse(parts)
	return strings.Join(parts, ":"), nil
}

// NodeAt resolves a path produced by PathOf.
func (t *Tree) NodeAt(path string) (NodeID, error) {
	if path == "" {
		return Root, ErrInvalidPath
	}
	cur := Root
	for _, part := range strings.Split(path, ":") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Root, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		children := t.nodes[cur].children
		if idx < 0 || idx >= len(children) {
			return Root, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		cur = children[idx]
	}
	return cur, nil
}

// Breadcrumb returns the display titles from the top-level ancestor down to id.
func (t *Tree) Breadcrumb(id NodeID) []string {
	var titles []string
	for cur := id; cur != Root; {
		e, ok := t.nodes[cur]
		if !ok {
			return nil
		}
		titles = append(titles, Node{Title: e.title}.DisplayTitle())
		cur = e.parent
	}
	slices.Reverse(titles)
	return titles
}

// Graft attaches frag as a new last child of parent: one node titled
// frag.Title holding the fragment's children. It returns the new node.
func (t *Tree) Graft(parent NodeID, frag *DocTree, body string) (NodeID, error) {
	top, err := t.Add(parent, frag.Title, body)
	if err != nil {
		return Root, err
	}
	var attach func(under NodeID, nodes []*DocNode)
	attach = func(under NodeID, nodes []*DocNode) {
		for _, n := range nodes {
			id, _ := t.Add(under, n.Title, n.Text)
			attach(id, n.Children)
		}
	}
	attach(top, frag.Children)
	return top, nil
}

// Snapshot returns the nested form of the whole tree.
func (t *Tree) Snapshot() *DocTree {
	var build func(ids []NodeID) []*DocNode
	build = func(ids []NodeID) []*DocNode {
		out := make([]*DocNode, 0, len(ids))
		for _, id := range ids {
			e := t.nodes[id]
			out = append(out, &DocNode{Title: e.title, Text: e.body, Children: build(e.children)})
		}
		return out
	}
	return &DocTree{Children: build(t.nodes[Root].children)}
}

// FromDocTree builds a Tree whose top level is frag's children.
func FromDocTree(frag *DocTree) *Tree {
	t := New()
	var attach func(under NodeID, nodes []*DocNode)
	attach = func(under NodeID, nodes []*DocNode) {
		for _, n := range nodes {
			id, _ := t.Add(under, n.Title, n.Text)
			attach(id, n.Children)
		}
	}
	attach(Root, frag.Children)
	return t
}
