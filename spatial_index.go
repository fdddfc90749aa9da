package main

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// NodeEntry wraps a node position for R-tree storage
type NodeEntry struct {
	Index int
	Point Point
	BBox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *NodeEntry) Bounds() rtreego.Rect {
	return e.BBox
}

// NodeIndex answers nearest and radius queries over node positions
type NodeIndex struct {
	tree      *rtreego.Rtree
	positions []Point
	tol       float64
}

// NewNodeIndex creates a new spatial index over positions; entry i is node index i
func NewNodeIndex(positions []Point) *NodeIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	// points are stored as tiny boxes; rtreego rejects zero-size rectangles
	tol := 1e-9 * math.Max(1, getBBox(positions).Diagonal())

	for i, p := range positions {
		bbox, err := squareAround(p, tol)
		if err == nil {
			tree.Insert(&NodeEntry{Index: i, Point: p, BBox: bbox})
		}
	}

	return &NodeIndex{tree: tree, positions: positions, tol: tol}
}

// Nearest returns the index of the node closest to point, or -1 when empty
func (ni *NodeIndex) Nearest(point Point) int {
	item := ni.tree.NearestNeighbor(rtreego.Point{point.X, point.Y})
	if item == nil {
		return -1
	}
	return item.(*NodeEntry).Index
}

// Within returns the indices of nodes at distance <= radius from center,
// except skip, in ascending index order
func (ni *NodeIndex) Within(center Point, radius float64, skip int) []int {
	bbox, err := squareAround(center, math.Max(radius, ni.tol)+ni.tol)
	if err != nil {
		return []int{}
	}

	results := ni.tree.SearchIntersect(bbox)
	indices := make([]int, 0, len(results))

	for _, item := range results {
		entry := item.(*NodeEntry)
		if entry.Index == skip {
			continue
		}
		if center.Distance(entry.Point) <= radius {
			indices = append(indices, entry.Index)
		}
	}

	sort.Ints(indices)
	return indices
}

// rank implements candidateRanker. It finds the exact nearest distance, then
// only the nodes inside the length limit, so far nodes are never measured.
func (ni *NodeIndex) rank(i int, limit func(nearest float64) float64) []candidate {
	origin := ni.positions[i]

	// any other node gives an upper bound for the nearest distance
	bound := math.Inf(1)
	for _, item := range ni.tree.NearestNeighbors(2, rtreego.Point{origin.X, origin.Y}) {
		if item == nil {
			continue
		}
		entry := item.(*NodeEntry)
		if entry.Index != i {
			bound = math.Min(bound, origin.Distance(entry.Point))
		}
	}
	if math.IsInf(bound, 1) {
		return []candidate{}
	}

	nearest := bound
	for _, k := range ni.Within(origin, bound, i) {
		nearest = math.Min(nearest, origin.Distance(ni.positions[k]))
	}

	within := ni.Within(origin, limit(nearest), i)
	candidates := make([]candidate, 0, len(within))
	for _, k := range within {
		candidates = append(candidates, candidate{index: k, distance: origin.Distance(ni.positions[k])})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})
	return candidates
}

// squareAround builds the axis-aligned square of half-size half centred on p
func squareAround(p Point, half float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{p.X - half, p.Y - half},
		[]float64{2 * half, 2 * half},
	)
}
