// Package export renders finished runs for tools outside the simulator.
package export

import (
	"strconv"

	"braidsim/dag"

	"github.com/emicklei/dot"
)

// DOT renders heights [from, to) as a Graphviz digraph with edges from each
// block to its parents. Parents below from are left out. Cohort blocks are
// drawn as boxes and sibling blocks are shaded.
func DOT(store *dag.Store, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > store.Len() {
		to = store.Len()
	}
	if to < from {
		to = from
	}

	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "RL")

	nodes := make(map[int]dot.Node, to-from)
	for h := from; h < to; h++ {
		b := store.Block(h)
		label := strconv.Itoa(h) + "\nx: " + strconv.FormatFloat(b.Target, 'f', 3, 64)
		n := graph.Node(strconv.Itoa(h)).Attr("label", label)
		if b.Cohort {
			n = n.Box().Attr("color", "blue")
		}
		if b.Sibling {
			n = n.Attr("style", "filled").Attr("fillcolor", "lightgrey")
		}
		nodes[h] = n
	}

	for h := from; h < to; h++ {
		for _, p := range store.Parents(h) {
			if parent, ok := nodes[p]; ok {
				graph.Edge(nodes[h], parent)
			}
		}
	}
	return graph.String()
}
