package mtbdd

import (
	"fmt"
	"os"

	"github.com/emicklei/dot"
)

// Diagnostic DOT rendering: one cluster per variable level, one rank of
// pre-root name markers, one rank of terminals. The node store iterates in
// random order, so everything is emitted sorted by (level, node id) to keep
// the output stable between runs. Nothing parses this output

func valueLabel(v Value) string {
	if v == Sink {
		return "sink"
	}
	return fmt.Sprintf("%d", v)
}

// DotString renders the diagram in the DOT format
func (d *MTBDD) DotString() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")

	byLevel := make(map[int][]*Node)
	var terminals []*Node
	for _, n := range d.store.ordered() {
		if n.IsTerminal() {
			terminals = append(terminals, n)
		} else {
			byLevel[n.varIndex] = append(byLevel[n.varIndex], n)
		}
	}

	handles := make(map[*Node]dot.Node)
	for v := 0; v < d.numVars; v++ {
		level, ok := byLevel[v]
		if !ok {
			continue
		}
		sub := g.Subgraph(fmt.Sprintf("var %d", v), dot.ClusterOption{})
		for _, n := range level {
			handles[n] = sub.Node(fmt.Sprintf("n%d", n.id)).Label(fmt.Sprintf("x%d", v))
		}
	}
	termRank := g.Subgraph("terminals")
	termRank.Attr("rank", "same")
	for _, n := range terminals {
		handles[n] = termRank.Node(fmt.Sprintf("n%d", n.id)).
			Label(valueLabel(n.value)).
			Attr("shape", "box")
	}

	rootRank := g.Subgraph("pre-roots")
	rootRank.Attr("rank", "same")
	for _, name := range d.RootNames() {
		target, ok := handles[d.roots[name]]
		if !ok {
			// root bound to a node outside the store; skip rather than crash a diagnostic
			continue
		}
		marker := rootRank.Node(fmt.Sprintf("root%d", name)).
			Label(valueLabel(name)).
			Attr("shape", "plaintext")
		g.Edge(marker, target)
	}

	for v := 0; v < d.numVars; v++ {
		for _, n := range byLevel[v] {
			if h, ok := handles[n.lo]; ok {
				g.Edge(handles[n], h, "0").Attr("style", "dashed")
			}
			if h, ok := handles[n.hi]; ok {
				g.Edge(handles[n], h, "1")
			}
		}
	}
	return g.String()
}

// SaveAsDot writes the DOT rendering into a file
func (d *MTBDD) SaveAsDot(path string) error {
	return os.WriteFile(path, []byte(d.DotString()), 0o644)
}

// PrintAsDot dumps the DOT rendering to stdout
func (d *MTBDD) PrintAsDot() {
	fmt.Println(d.DotString())
}
