package main

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"
)

// AdjacencyRelation is the N×N edge matrix produced by one build.
// Row i holds the edges node i accepted while it was the active node;
// consumers read it undirected through Connected.
type AdjacencyRelation struct {
	n     int
	cells []bool
	stats BuildStats
}

// BuildStats summarises what the builder did per candidate
type BuildStats struct {
	Nodes    int           `json:"nodes"`
	Accepted int           `json:"accepted"` // directed acceptances, nearest edges included
	Blocked  int           `json:"blocked"`  // candidates rejected by a wedge
	Elapsed  time.Duration `json:"elapsed"`
}

func newAdjacencyRelation(n int) *AdjacencyRelation {
	return &AdjacencyRelation{n: n, cells: make([]bool, n*n)}
}

// Len is the node count N
func (a *AdjacencyRelation) Len() int { return a.n }

// Directed reports whether node i accepted an edge toward node j
func (a *AdjacencyRelation) Directed(i, j int) bool {
	return a.cells[i*a.n+j]
}

// Connected reports whether i and j share an edge in either direction
func (a *AdjacencyRelation) Connected(i, j int) bool {
	return a.Directed(i, j) || a.Directed(j, i)
}

// OutDegree counts the edges node i accepted itself
func (a *AdjacencyRelation) OutDegree(i int) int {
	count := 0
	for j := 0; j < a.n; j++ {
		if a.Directed(i, j) {
			count++
		}
	}
	return count
}

// Neighbors lists the indices connected to i, ascending
func (a *AdjacencyRelation) Neighbors(i int) []int {
	neighbors := make([]int, 0)
	for j := 0; j < a.n; j++ {
		if j != i && a.Connected(i, j) {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func (a *AdjacencyRelation) Stats() BuildStats { return a.stats }

func (a *AdjacencyRelation) set(i, j int) {
	a.cells[i*a.n+j] = true
}

// candidate is a node seen from the active node
type candidate struct {
	index    int
	distance float64
}

// candidateRanker lists, for node i, the other nodes in ascending
// (distance, index) order. The first entry is the nearest node. Entries
// farther than limit(nearest distance) may be omitted.
type candidateRanker interface {
	rank(i int, limit func(nearest float64) float64) []candidate
}

// scanRanker measures every pair
type scanRanker struct {
	positions []Point
}

func (r scanRanker) rank(i int, _ func(float64) float64) []candidate {
	candidates := make([]candidate, 0, len(r.positions)-1)
	for k, p := range r.positions {
		if k == i {
			continue
		}
		candidates = append(candidates, candidate{index: k, distance: r.positions[i].Distance(p)})
	}
	// indices go in ascending, so a stable sort breaks distance ties by index
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})
	return candidates
}

// GraphBuilder turns a NodeSet into a wedge-blocked proximity graph
type GraphBuilder struct {
	config  BuildConfig
	rotator rotator
}

// NewGraphBuilder validates cfg and prepares the wedge rotation
func NewGraphBuilder(cfg BuildConfig) (*GraphBuilder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &GraphBuilder{
		config:  cfg,
		rotator: newRotator(cfg.AngleDegrees * math.Pi / 180),
	}, nil
}

// Config returns the builder's configuration
func (b *GraphBuilder) Config() BuildConfig { return b.config }

// buildState is the scratch space of one Build call
type buildState struct {
	positions   []Point
	adjacency   *AdjacencyRelation
	blocking    [][]Segment // wedges per node index; only ever appended to
	probeLength float64
}

// Build runs the greedy pass over every node in index order and returns the
// frozen relation. Two distinct nodes at the same position abort the build
// with ErrDegenerateVector.
func (b *GraphBuilder) Build(nodes NodeSet) (*AdjacencyRelation, error) {
	if err := nodes.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	log.Printf("🕸️  Building proximity graph with %d nodes (wedge %.3f°, ratio %.2f, floor %.2f)...\n",
		len(nodes), b.config.AngleDegrees, b.config.LengthRatioLimit, b.config.MinimumLength)

	positions := nodes.Positions()
	state := &buildState{
		positions:   positions,
		adjacency:   newAdjacencyRelation(len(nodes)),
		blocking:    make([][]Segment, len(nodes)),
		probeLength: 2*getBBox(positions).Diagonal() + 1,
	}

	var ranker candidateRanker = scanRanker{positions: positions}
	if b.config.SpatialIndex {
		ranker = NewNodeIndex(positions)
	}

	for i := range positions {
		if err := b.connect(state, ranker, nodes, i); err != nil {
			return nil, err
		}
	}

	state.adjacency.stats.Nodes = len(nodes)
	state.adjacency.stats.Elapsed = time.Since(startTime)

	stats := state.adjacency.stats
	log.Printf("   ✅ Proximity graph built: %d edges accepted, %d blocked by wedges\n",
		stats.Accepted, stats.Blocked)
	log.Printf("   ⏱️  Build time: %.3f seconds\n", stats.Elapsed.Seconds())

	return state.adjacency, nil
}

// connect processes node i as the active node
func (b *GraphBuilder) connect(state *buildState, ranker candidateRanker, nodes NodeSet, i int) error {
	limitFor := func(nearest float64) float64 {
		return math.Max(b.config.LengthRatioLimit*nearest, b.config.MinimumLength)
	}

	ranked := ranker.rank(i, limitFor)
	if len(ranked) == 0 {
		return nil
	}

	nearest := ranked[0]
	if nearest.distance == 0 {
		other := nodes[nearest.index]
		return fmt.Errorf("nodes %d and %d share position (%g, %g): %w",
			nodes[i].ID, other.ID, other.Position.X, other.Position.Y, ErrDegenerateVector)
	}

	origin := state.positions[i]
	limit := limitFor(nearest.distance)

	// The nearest neighbour is never tested against wedges
	state.adjacency.set(i, nearest.index)
	state.blocking[i] = append(state.blocking[i], b.wedge(origin, state.positions[nearest.index]))
	state.adjacency.stats.Accepted++

	for _, c := range ranked[1:] {
		if c.distance > limit {
			break
		}

		target := state.positions[c.index]
		blocked, err := b.isBlocked(state, i, target)
		if err != nil {
			return fmt.Errorf("node %d toward node %d: %w", nodes[i].ID, nodes[c.index].ID, err)
		}
		if blocked {
			state.adjacency.stats.Blocked++
			continue
		}

		state.adjacency.set(i, c.index)
		state.blocking[i] = append(state.blocking[i], b.wedge(origin, target))
		state.blocking[c.index] = append(state.blocking[c.index], b.wedge(target, origin))
		state.adjacency.stats.Accepted++
	}

	return nil
}

// isBlocked reports whether the direction from node i toward target falls
// inside any wedge already registered at i
func (b *GraphBuilder) isBlocked(state *buildState, i int, target Point) (bool, error) {
	origin := state.positions[i]
	direction := target.Sub(origin)
	for _, w := range state.blocking[i] {
		crosses, err := ProbeCrossesSegment(origin, direction, state.probeLength, w)
		if err != nil {
			return false, err
		}
		if crosses {
			return true, nil
		}
	}
	return false, nil
}

// wedge is the chord between toward rotated by +θ and by -θ about pivot.
// A probe from pivot crosses it exactly when its direction is within θ of
// pivot→toward.
func (b *GraphBuilder) wedge(pivot, toward Point) Segment {
	return Segment{
		From: b.rotator.rotate(pivot, toward, +1),
		To:   b.rotator.rotate(pivot, toward, -1),
	}
}

// BuildGraph validates nodes and cfg and builds the relation in one call
func BuildGraph(nodes []Node, cfg BuildConfig) (*AdjacencyRelation, error) {
	builder, err := NewGraphBuilder(cfg)
	if err != nil {
		return nil, err
	}
	set, err := NewNodeSet(nodes)
	if err != nil {
		return nil, err
	}
	return builder.Build(set)
}
