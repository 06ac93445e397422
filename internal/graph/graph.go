package graph

// Edge is one resolved import: From imports To.
type Edge struct {
	From string `json:"from" yaml:"from" toml:"from"`
	To   string `json:"to" yaml:"to" toml:"to"`
}

// Graph is a sparse directed file graph. Each traversal owns its own Graph,
// so no locking is needed.
type Graph struct {
	nodes   []string
	nodeIdx map[string]int

	// outEdges[i] lists targets of node i in insertion order
	outEdges [][]int
	// parent[i] is the node through which i was first reached, -1 for roots
	parent []int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make([]string, 0),
		nodeIdx: make(map[string]int),
	}
}

// AddNode adds a node if it doesn't exist and returns its index.
func (g *Graph) AddNode(id string) int {
	idx, _ := g.addNode(id, -1)
	return idx
}

func (g *Graph) addNode(id string, parent int) (int, bool) {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx, false
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	g.parent = append(g.parent, parent)
	return idx, true
}

// AddEdge adds a directed edge from src to dst and reports whether dst was
// new to the graph. A duplicate edge is ignored.
func (g *Graph) AddEdge(src, dst string) bool {
	srcIdx := g.AddNode(src)
	dstIdx, added := g.addNode(dst, srcIdx)
	for _, t := range g.outEdges[srcIdx] {
		if t == dstIdx {
			return added
		}
	}
	g.outEdges[srcIdx] = append(g.outEdges[srcIdx], dstIdx)
	return added
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, edges := range g.outEdges {
		total += len(edges)
	}
	return total
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// Neighbors returns the outgoing neighbors of a node.
func (g *Graph) Neighbors(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	neighbors := make([]string, len(g.outEdges[idx]))
	for i, t := range g.outEdges[idx] {
		neighbors[i] = g.nodes[t]
	}
	return neighbors
}

// Edges returns every edge, grouped by source in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	for src, targets := range g.outEdges {
		for _, t := range targets {
			edges = append(edges, Edge{From: g.nodes[src], To: g.nodes[t]})
		}
	}
	return edges
}

// PathTo returns the chain of nodes from the root that first reached target
// down to target itself. With breadth-first insertion this is a shortest chain.
func (g *Graph) PathTo(target string) []string {
	idx, ok := g.nodeIdx[target]
	if !ok {
		return nil
	}
	var chain []string
	for ; idx >= 0; idx = g.parent[idx] {
		chain = append(chain, g.nodes[idx])
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
