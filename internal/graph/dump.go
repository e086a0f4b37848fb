package graph

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented listing of the graph. Nodes reached a second
// time through sharing are printed as a back reference.
func Dump(w io.Writer, root Node) error {
	d := &dumper{w: w, ids: make(map[Node]int)}
	d.node(root, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	ids map[Node]int
	err error
}

func (d *dumper) node(n Node, depth int) {
	if d.err != nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	if id, ok := d.ids[n]; ok {
		_, d.err = fmt.Fprintf(d.w, "%s^%d\n", indent, id)
		return
	}
	id := len(d.ids) + 1
	d.ids[n] = id
	if _, d.err = fmt.Fprintf(d.w, "%s#%d %s\n", indent, id, n); d.err != nil {
		return
	}
	for _, c := range n.Children() {
		d.node(c, depth+1)
	}
}
