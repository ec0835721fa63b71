package datastructure

type FlowVertex struct {
	id        string
	index     Index
	synthetic bool
}

func (v FlowVertex) GetID() string {
	return v.id
}

func (v FlowVertex) GetIndex() Index {
	return v.index
}

func (v FlowVertex) IsSynthetic() bool {
	return v.synthetic
}

// FlowEdge. forward edges model pipes (or bookkeeping edges of the synthetic vertices),
// every forward edge has a residual twin stored right after it.
type FlowEdge struct {
	from, to   Index
	capacity   Capacity
	flow       float64
	pipeId     string
	valveId    string
	diameter   float64
	pipeStatus PipeStatus
	residual   bool
}

func (e *FlowEdge) GetFrom() Index {
	return e.from
}

func (e *FlowEdge) GetTo() Index {
	return e.to
}

func (e *FlowEdge) GetCapacity() Capacity {
	return e.capacity
}

func (e *FlowEdge) GetFlow() float64 {
	return e.flow
}

func (e *FlowEdge) AddFlow(f float64) {
	e.flow += f
}

func (e *FlowEdge) GetPipeID() string {
	return e.pipeId
}

func (e *FlowEdge) GetValveID() string {
	return e.valveId
}

func (e *FlowEdge) HasValve() bool {
	return e.valveId != ""
}

func (e *FlowEdge) GetDiameter() float64 {
	return e.diameter
}

func (e *FlowEdge) GetPipeStatus() PipeStatus {
	return e.pipeStatus
}

func (e *FlowEdge) IsResidual() bool {
	return e.residual
}

// FlowGraph is a disposable directed graph, built for one evaluation and thrown away after.
type FlowGraph struct {
	vertices    []FlowVertex
	vertexIndex map[string]Index
	edges       []*FlowEdge
	adj         [][]Index // vertex -> positions in edges
	pipeEdge    map[string]Index
}

func NewFlowGraph(numVertices, numEdges int) *FlowGraph {
	return &FlowGraph{
		vertices:    make([]FlowVertex, 0, numVertices),
		vertexIndex: make(map[string]Index, numVertices),
		edges:       make([]*FlowEdge, 0, 2*numEdges),
		adj:         make([][]Index, 0, numVertices),
		pipeEdge:    make(map[string]Index, numEdges),
	}
}

func (g *FlowGraph) AddVertex(id string, synthetic bool) Index {
	if idx, ok := g.vertexIndex[id]; ok {
		return idx
	}
	idx := Index(len(g.vertices))
	g.vertices = append(g.vertices, FlowVertex{id: id, index: idx, synthetic: synthetic})
	g.vertexIndex[id] = idx
	g.adj = append(g.adj, make([]Index, 0, 2))
	return idx
}

// AddPipeEdge adds the forward edge u->v for pipeId together with its residual twin and
// returns the forward edge position.
func (g *FlowGraph) AddPipeEdge(u, v Index, pipeId string, diameter float64, status PipeStatus) Index {
	e := g.addEdge(u, v, Bounded(0))
	edge := g.edges[e]
	edge.pipeId = pipeId
	edge.diameter = diameter
	edge.pipeStatus = status
	g.pipeEdge[pipeId] = e
	return e
}

// AddInfEdge bookkeeping edge with unbounded capacity.
func (g *FlowGraph) AddInfEdge(u, v Index) Index {
	return g.addEdge(u, v, Unbounded())
}

func (g *FlowGraph) addEdge(u, v Index, capacity Capacity) Index {
	forward := Index(len(g.edges))
	g.edges = append(g.edges, &FlowEdge{from: u, to: v, capacity: capacity})
	g.edges = append(g.edges, &FlowEdge{from: v, to: u, capacity: Bounded(0), residual: true})
	g.adj[u] = append(g.adj[u], forward)
	g.adj[v] = append(g.adj[v], forward+1)
	return forward
}

func (g *FlowGraph) SetCapacity(e Index, capacity Capacity) {
	g.edges[e].capacity = capacity
}

func (g *FlowGraph) SetValve(e Index, valveId string) {
	g.edges[e].valveId = valveId
}

func (g *FlowGraph) GetEdge(e Index) *FlowEdge {
	return g.edges[e]
}

// GetReversedEdge twin of edge e.
func (g *FlowGraph) GetReversedEdge(e Index) *FlowEdge {
	return g.edges[e^1]
}

func (g *FlowGraph) GetPipeEdge(pipeId string) (Index, bool) {
	e, ok := g.pipeEdge[pipeId]
	return e, ok
}

func (g *FlowGraph) GetVertex(u Index) FlowVertex {
	return g.vertices[u]
}

func (g *FlowGraph) GetVertexIndex(id string) (Index, bool) {
	u, ok := g.vertexIndex[id]
	return u, ok
}

func (g *FlowGraph) NumberOfVertices() int {
	return len(g.vertices)
}

// NumberOfEdges number of forward edges.
func (g *FlowGraph) NumberOfEdges() int {
	return len(g.edges) / 2
}

func (g *FlowGraph) GetVertexEdgesSize(u Index) int {
	return len(g.adj[u])
}

// GetEdgeOfVertex j-th edge (forward or residual) leaving u.
func (g *FlowGraph) GetEdgeOfVertex(u Index, j int) (Index, *FlowEdge) {
	e := g.adj[u][j]
	return e, g.edges[e]
}

func (g *FlowGraph) ForEachVertexEdges(u Index, handle func(e Index, edge *FlowEdge)) {
	for _, e := range g.adj[u] {
		handle(e, g.edges[e])
	}
}

// ForEachEdge iterates forward edges in insertion order.
func (g *FlowGraph) ForEachEdge(handle func(e Index, edge *FlowEdge)) {
	for e := 0; e < len(g.edges); e += 2 {
		handle(Index(e), g.edges[e])
	}
}

func (g *FlowGraph) ResetFlow() {
	for _, e := range g.edges {
		e.flow = 0
	}
}
