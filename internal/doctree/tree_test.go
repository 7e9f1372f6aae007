package doctree

import (
	"errors"
	"slices"
	"testing"
)

func mustAdd(t *testing.T, tr *Tree, parent NodeID, title string) NodeID {
	t.Helper()
	id, err := tr.Add(parent, title, "")
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return id
}

func titles(tr *Tree, ids []NodeID) []string {
	var out []string
	for _, id := range ids {
		n, _ := tr.Get(id)
		out = append(out, n.Title)
	}
	return out
}

func TestTree_DeleteLastNodeRejected(t *testing.T) {
	tr := New()
	only := mustAdd(t, tr, Root, "Only")
	before := tr.Version()

	err := tr.Delete(only)
	if !errors.Is(err, ErrCannotDeleteLastNode) {
		t.Fatalf("expected ErrCannotDeleteLastNode, got %v", err)
	}
	if tr.Len() != 1 {
		t.Errorf("expected node count 1, got %d", tr.Len())
	}
	if tr.Version() != before {
		t.Errorf("rejected delete must not bump version")
	}
}

func TestTree_DeleteSoleTopLevelWithChildrenRejected(t *testing.T) {
	tr := New()
	top := mustAdd(t, tr, Root, "Top")
	mustAdd(t, tr, top, "Child")

	if err := tr.Delete(top); !errors.Is(err, ErrCannotDeleteLastNode) {
		t.Fatalf("expected ErrCannotDeleteLastNode, got %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("expected node count 2, got %d", tr.Len())
	}
}

func TestTree_DeleteRemovesSubtree(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	b := mustAdd(t, tr, Root, "B")
	child := mustAdd(t, tr, a, "A1")

	if err := tr.Delete(a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if tr.Contains(a) || tr.Contains(child) {
		t.Error("deleted subtree still reachable")
	}
	if got := tr.Roots(); !slices.Equal(got, []NodeID{b}) {
		t.Errorf("expected roots [%d], got %v", b, got)
	}
	if _, err := tr.Parent(child); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for stale handle, got %v", err)
	}
}

func TestTree_InsertSiblingGoesDirectlyAfter(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	mustAdd(t, tr, Root, "C")

	id, err := tr.InsertSibling(a)
	if err != nil {
		t.Fatalf("insert sibling: %v", err)
	}
	n, _ := tr.Get(id)
	if n.Title != DefaultTitle || n.Body != "" {
		t.Errorf("expected fresh %q node, got %+v", DefaultTitle, n)
	}
	want := []string{"A", DefaultTitle, "C"}
	if got := titles(tr, tr.Roots()); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTree_InsertChildAppends(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	mustAdd(t, tr, a, "A1")

	id, err := tr.InsertChild(a)
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}
	kids := tr.Children(a)
	if len(kids) != 2 || kids[1] != id {
		t.Errorf("expected new child last, got %v", kids)
	}
}

func TestTree_MoveReorders(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	b := mustAdd(t, tr, Root, "B")
	c := mustAdd(t, tr, Root, "C")

	if err := tr.Move(c, Root, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := tr.Roots(); !slices.Equal(got, []NodeID{c, a, b}) {
		t.Errorf("unexpected order %v", got)
	}

	if err := tr.Move(a, b, 99); err != nil {
		t.Fatalf("move under b: %v", err)
	}
	if p, _ := tr.Parent(a); p != b {
		t.Errorf("expected parent %d, got %d", b, p)
	}
}

func TestTree_MoveIntoOwnSubtreeRejected(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	a1 := mustAdd(t, tr, a, "A1")

	if err := tr.Move(a, a1, 0); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if err := tr.Move(a, a, 0); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove for self, got %v", err)
	}
}

func TestTree_PathRoundTrip(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Root, "A")
	b := mustAdd(t, tr, Root, "B")
	mustAdd(t, tr, b, "B0")
	mustAdd(t, tr, b, "B1")
	b2 := mustAdd(t, tr, b, "B2")

	path, err := tr.PathOf(b2)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "1:2" {
		t.Errorf("expected path %q, got %q", "1:2", path)
	}
	id, err := tr.NodeAt(path)
	if err != nil || id != b2 {
		t.Errorf("NodeAt(%q) = %d, %v", path, id, err)
	}

	for _, bad := range []string{"", "7", "1:9", "x"} {
		if _, err := tr.NodeAt(bad); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("NodeAt(%q): expected ErrInvalidPath, got %v", bad, err)
		}
	}
}

func TestTree_WalkPreOrderWithDepth(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "A")
	a1 := mustAdd(t, tr, a, "A1")
	mustAdd(t, tr, a1, "A1x")
	mustAdd(t, tr, Root, "B")

	var got []string
	var depths []int
	tr.Walk(func(n Node, depth int) {
		got = append(got, n.Title)
		depths = append(depths, depth)
	})
	if want := []string{"A", "A1", "A1x", "B"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if want := []int{1, 2, 3, 1}; !slices.Equal(depths, want) {
		t.Errorf("expected depths %v, got %v", want, depths)
	}
}

func TestTree_BreadcrumbUsesPlaceholder(t *testing.T) {
	tr := New()
	a := mustAdd(t, tr, Root, "")
	a1 := mustAdd(t, tr, a, "Leaf")

	got := tr.Breadcrumb(a1)
	if want := []string{Placeholder, "Leaf"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTree_GraftAndSnapshot(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Root, "Existing")

	frag := &DocTree{
		Title: "Imported",
		Children: []*DocNode{
			{Title: "Book", Children: []*DocNode{{Title: "Note", Text: "body"}}},
		},
	}
	top, err := tr.Graft(Root, frag, "Imported from test")
	if err != nil {
		t.Fatalf("graft: %v", err)
	}
	if tr.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", tr.Len())
	}
	n, _ := tr.Get(top)
	if n.Body != "Imported from test" {
		t.Errorf("unexpected graft body %q", n.Body)
	}

	snap := tr.Snapshot()
	if len(snap.Children) != 2 {
		t.Fatalf("expected 2 top-level nodes in snapshot, got %d", len(snap.Children))
	}
	note := snap.Children[1].Children[0].Children[0]
	if note.Title != "Note" || note.Text != "body" {
		t.Errorf("unexpected grafted leaf %+v", note)
	}
	if snap.Count() != 4 {
		t.Errorf("expected snapshot count 4, got %d", snap.Count())
	}

	again := FromDocTree(snap)
	if again.Len() != tr.Len() {
		t.Errorf("FromDocTree: expected %d nodes, got %d", tr.Len(), again.Len())
	}
}

func TestTree_UnknownHandles(t *testing.T) {
	tr := New()
	if err := tr.Rename(42, "x"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("rename: expected ErrNodeNotFound, got %v", err)
	}
	if err := tr.SetBody(Root, "x"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("set body on Root: expected ErrNodeNotFound, got %v", err)
	}
	if _, err := tr.InsertSibling(Root); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("insert sibling of Root: expected ErrNodeNotFound, got %v", err)
	}
	if tr.First() != Root {
		t.Errorf("expected First() of empty tree to be Root")
	}
}

func TestTree_TitlesStayOnOneLine(t *testing.T) {
	tr := New()
	id, err := tr.Add(Root, "Shopping\nlist", "")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := tr.Get(id); n.Title != "Shopping list" {
		t.Errorf("added title = %q", n.Title)
	}

	if err := tr.Rename(id, "A\r\n\r\n# Injected\rnode"); err != nil {
		t.Fatal(err)
	}
	if n, _ := tr.Get(id); n.Title != "A  # Injected node" {
		t.Errorf("renamed title = %q", n.Title)
	}
}
