package graph

// RewriteFunc maps a node to its replacement. orig is the node as it
// appears in the input graph; rebuilt is the same node with its children
// already rewritten (identical to orig when no child changed).
type RewriteFunc func(orig, rebuilt Node) (Node, error)

// Rewrite transforms the graph rooted at root bottom-up. Each distinct
// node is visited exactly once, so subgraphs shared in the input stay
// shared in the output. Nodes are rebuilt only when a child changed and the
// input graph is never modified.
func Rewrite(root Node, fn RewriteFunc) (Node, error) {
	r := &rewriter{fn: fn, memo: make(map[Node]Node)}
	return r.visit(root)
}

type rewriter struct {
	fn   RewriteFunc
	memo map[Node]Node
}

func (r *rewriter) visit(n Node) (Node, error) {
	if out, ok := r.memo[n]; ok {
		return out, nil
	}

	rebuilt := n
	if children := n.Children(); len(children) > 0 {
		var replaced []Node
		for i, c := range children {
			nc, err := r.visit(c)
			if err != nil {
				return nil, err
			}
			if nc != c && replaced == nil {
				replaced = make([]Node, len(children))
				copy(replaced, children[:i])
			}
			if replaced != nil {
				replaced[i] = nc
			}
		}
		if replaced != nil {
			rebuilt = n.WithChildren(replaced)
		}
	}

	out, err := r.fn(n, rebuilt)
	if err != nil {
		return nil, err
	}
	r.memo[n] = out
	return out, nil
}

// Walk calls fn for every distinct node reachable from root, parents
// before children. Returning false skips the node's children.
func Walk(root Node, fn func(Node) bool) {
	seen := make(map[Node]bool)
	var walk func(Node)
	walk = func(n Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
}
