package doctree

// DocTree is the nested form of an outline fragment. Importers produce it,
// Tree.Graft attaches it and Tree.Snapshot renders a whole Tree into it.
type DocTree struct {
	Title    string     // Fragment title (notebook name, filename, ...)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty renders as the placeholder)
	Text     string     // Body text of this node
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Count returns the number of nodes in the fragment, excluding the fragment
// root itself.
func (t *DocTree) Count() int {
	n := 0
	var walk func([]*DocNode)
	walk = func(nodes []*DocNode) {
		for _, c := range nodes {
			n++
			walk(c.Children)
		}
	}
	walk(t.Children)
	return n
}
