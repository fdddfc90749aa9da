package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// GraphNode represents a node of a built proximity graph
type GraphNode struct {
	ID    int   `json:"id"`
	Point Point `json:"point"`
	Edges []int `json:"edges"` // IDs of connected nodes, ascending by index
}

// ProximityGraph is the self-contained result of one build
type ProximityGraph struct {
	Nodes       []GraphNode `json:"nodes"`
	BoundingBox BBox        `json:"boundingBox"`
	Config      BuildConfig `json:"config"`
	Stats       BuildStats  `json:"stats"`
	NumEdges    int         `json:"numEdges"`
	BuiltAt     time.Time   `json:"builtAt"`

	indexOnce sync.Once
	index     *NodeIndex
}

// NewProximityGraph builds the relation over nodes and packages it with its inputs
func NewProximityGraph(nodes []Node, cfg BuildConfig) (*ProximityGraph, error) {
	set, err := NewNodeSet(nodes)
	if err != nil {
		return nil, err
	}

	builder, err := NewGraphBuilder(cfg)
	if err != nil {
		return nil, err
	}

	rel, err := builder.Build(set)
	if err != nil {
		return nil, err
	}

	return newProximityGraphFromRelation(set, rel, cfg), nil
}

func newProximityGraphFromRelation(set NodeSet, rel *AdjacencyRelation, cfg BuildConfig) *ProximityGraph {
	graph := &ProximityGraph{
		Nodes:       make([]GraphNode, len(set)),
		BoundingBox: getBBox(set.Positions()),
		Config:      cfg,
		Stats:       rel.Stats(),
		BuiltAt:     time.Now().UTC(),
	}

	for i, n := range set {
		neighbors := rel.Neighbors(i)
		edges := make([]int, 0, len(neighbors))
		for _, j := range neighbors {
			edges = append(edges, set[j].ID)
		}
		graph.Nodes[i] = GraphNode{ID: n.ID, Point: n.Position, Edges: edges}
	}
	graph.NumEdges = len(ToEdgeList(rel, set))

	return graph
}

// NodeSet returns the graph's vertices in build order
func (g *ProximityGraph) NodeSet() NodeSet {
	set := make(NodeSet, len(g.Nodes))
	for i, n := range g.Nodes {
		set[i] = Node{ID: n.ID, Position: n.Point}
	}
	return set
}

// EdgeList returns the undirected edges as id pairs in ascending index order,
// matching ToEdgeList on the relation the graph was built from
func (g *ProximityGraph) EdgeList() []EdgePair {
	position := make(map[int]int, len(g.Nodes))
	for i, n := range g.Nodes {
		position[n.ID] = i
	}

	pairs := make([]EdgePair, 0, g.NumEdges)
	for i, n := range g.Nodes {
		for _, neighborID := range n.Edges {
			if j, ok := position[neighborID]; ok && j > i {
				pairs = append(pairs, EdgePair{n.ID, neighborID})
			}
		}
	}
	return pairs
}

// SaveProximityGraph serializes and saves the graph to a JSON file
func SaveProximityGraph(graph *ProximityGraph, filename string) error {
	log.Printf("💾 Saving proximity graph to %s...\n", filename)

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("   ✅ Graph saved (%d bytes)\n", len(data))
	return nil
}

// LoadProximityGraph deserializes and loads the graph from a JSON file
func LoadProximityGraph(filename string) (*ProximityGraph, error) {
	log.Printf("📂 Loading proximity graph from %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var graph ProximityGraph
	err = json.Unmarshal(data, &graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	log.Printf("   ✅ Graph loaded: %d nodes, %d edges\n", len(graph.Nodes), graph.NumEdges)
	return &graph, nil
}

// GetGraphAsLineStrings returns the graph edges as line segments for visualization
func (g *ProximityGraph) GetGraphAsLineStrings() [][]Point {
	points := make(map[int]Point, len(g.Nodes))
	for _, n := range g.Nodes {
		points[n.ID] = n.Point
	}

	lines := make([][]Point, 0, g.NumEdges)
	for _, e := range g.EdgeList() {
		lines = append(lines, []Point{points[e[0]], points[e[1]]})
	}

	return lines
}

// FindNearestNode finds the node closest to a given point and returns its ID
func (g *ProximityGraph) FindNearestNode(point Point) (int, float64, bool) {
	if len(g.Nodes) == 0 {
		return -1, 0, false
	}

	g.indexOnce.Do(func() {
		g.index = NewNodeIndex(g.NodeSet().Positions())
	})

	i := g.index.Nearest(point)
	if i < 0 {
		return -1, 0, false
	}
	return g.Nodes[i].ID, point.Distance(g.Nodes[i].Point), true
}

// ConvertToGraph converts the proximity graph to the weighted Graph used by A*
func (g *ProximityGraph) ConvertToGraph() *Graph {
	graph := &Graph{
		Nodes: make(map[int]Point),
		Edges: make(map[int][]Edge),
	}

	// Add all nodes
	for _, node := range g.Nodes {
		graph.Nodes[node.ID] = node.Point
	}

	// Add all edges
	for _, node := range g.Nodes {
		edges := make([]Edge, 0, len(node.Edges))
		for _, neighborID := range node.Edges {
			cost := node.Point.Distance(graph.Nodes[neighborID])
			edges = append(edges, Edge{
				To:   neighborID,
				Cost: cost,
			})
		}
		graph.Edges[node.ID] = edges
	}

	return graph
}
