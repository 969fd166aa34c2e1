package catalog

// CategoryNode is a category with its nested subcategories.
type CategoryNode struct {
	Term
	Children []CategoryNode `json:"children"`
}

// BuildTree arranges flat terms into a parent/child hierarchy.
// Terms whose parent is zero or unknown become roots. Input order is kept among siblings.
func BuildTree(terms []Term) []CategoryNode {
	known := make(map[int64]bool, len(terms))
	for _, t := range terms {
		known[t.ID] = true
	}

	children := make(map[int64][]Term)
	var roots []Term
	for _, t := range terms {
		if t.ParentID == 0 || t.ParentID == t.ID || !known[t.ParentID] {
			roots = append(roots, t)
			continue
		}
		children[t.ParentID] = append(children[t.ParentID], t)
	}

	visited := make(map[int64]bool, len(terms))
	var build func(ts []Term) []CategoryNode
	build = func(ts []Term) []CategoryNode {
		nodes := make([]CategoryNode, 0, len(ts))
		for _, t := range ts {
			if visited[t.ID] {
				continue
			}
			visited[t.ID] = true
			nodes = append(nodes, CategoryNode{Term: t, Children: build(children[t.ID])})
		}
		return nodes
	}
	return build(roots)
}
