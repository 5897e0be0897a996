package history

// noNode marks a missing neighbour.
const noNode = -1

// node is one version in the arena.
type node struct {
	version uint64

	// newer is the more current neighbour. It is a lookup link only.
	newer int

	// older is the neighbour an undo moves to.
	older int

	// steps turn the text of newer into the text of this node.
	steps []Replacement

	live bool
}

// Graph is the version graph of one buffer.
// It is not safe for concurrent use; the buffer's owner serialises access.
type Graph struct {
	nodes   []node
	free    []int
	current int
	oldest  int
	live    int

	// limit caps the number of undo steps kept. Zero means unlimited.
	limit int
}

// New returns a graph holding a single node for version.
func New(version uint64, limit int) *Graph {
	g := &Graph{limit: limit}
	g.Reset(version)
	return g
}

// Reset discards all history and makes version the only node.
func (g *Graph) Reset(version uint64) {
	g.nodes = g.nodes[:0]
	g.free = g.free[:0]
	g.nodes = append(g.nodes, node{version: version, newer: noNode, older: noNode, live: true})
	g.current = 0
	g.oldest = 0
	g.live = 1
}

// Version returns the version of the current node.
func (g *Graph) Version() uint64 {
	return g.nodes[g.current].version
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return g.live
}

// CanUndo reports whether an older node exists.
func (g *Graph) CanUndo() bool {
	return g.nodes[g.current].older != noNode
}

// CanRedo reports whether a more current node exists.
func (g *Graph) CanRedo() bool {
	return g.nodes[g.current].newer != noNode
}

// Record appends a node for version reached from the current node by applying
// steps in order. Any nodes more current than the present one are discarded
// first.
func (g *Graph) Record(version uint64, steps []Replacement) {
	g.pruneNewer()

	idx := g.alloc()
	g.nodes[idx] = node{version: version, newer: noNode, older: g.current, live: true}

	cur := &g.nodes[g.current]
	cur.newer = idx
	cur.steps = InvertAll(steps)

	g.current = idx
	g.trim()
}

// Undo moves the current pointer to the older neighbour. It returns the
// replacements to apply, in order, and the version reached.
func (g *Graph) Undo() ([]Replacement, uint64, bool) {
	older := g.nodes[g.current].older
	if older == noNode {
		return nil, 0, false
	}
	steps := append([]Replacement(nil), g.nodes[older].steps...)
	g.current = older
	return steps, g.nodes[older].version, true
}

// Redo moves the current pointer back to the more current neighbour.
func (g *Graph) Redo() ([]Replacement, uint64, bool) {
	cur := g.nodes[g.current]
	if cur.newer == noNode {
		return nil, 0, false
	}
	steps := InvertAll(cur.steps)
	g.current = cur.newer
	return steps, g.nodes[cur.newer].version, true
}

// Versions lists the versions from the oldest node to the most current one.
func (g *Graph) Versions() []uint64 {
	out := make([]uint64, 0, g.live)
	for idx := g.oldest; idx != noNode; idx = g.nodes[idx].newer {
		out = append(out, g.nodes[idx].version)
	}
	return out
}

// pruneNewer releases every node more current than the present one.
func (g *Graph) pruneNewer() {
	idx := g.nodes[g.current].newer
	for idx != noNode {
		next := g.nodes[idx].newer
		g.release(idx)
		idx = next
	}
	g.nodes[g.current].newer = noNode
	g.nodes[g.current].steps = nil
}

// trim drops the oldest nodes while more undo steps than limit are stored.
func (g *Graph) trim() {
	if g.limit <= 0 {
		return
	}
	for g.live-1 > g.limit && g.oldest != g.current {
		next := g.nodes[g.oldest].newer
		g.release(g.oldest)
		g.nodes[next].older = noNode
		g.oldest = next
	}
}

func (g *Graph) alloc() int {
	g.live++
	if n := len(g.free); n > 0 {
		idx := g.free[n-1]
		g.free = g.free[:n-1]
		return idx
	}
	g.nodes = append(g.nodes, node{})
	return len(g.nodes) - 1
}

func (g *Graph) release(idx int) {
	g.nodes[idx] = node{newer: noNode, older: noNode}
	g.free = append(g.free, idx)
	g.live--
}
