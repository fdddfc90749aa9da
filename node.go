package main

import "fmt"

// Node is a graph vertex: an externally assigned id and a fixed position.
// Inside the builder a node is addressed by its index in the NodeSet, never by ID.
type Node struct {
	ID       int   `json:"id"`
	Position Point `json:"position"`
}

// NodeSet is the ordered, fixed-size vertex sequence of one graph
type NodeSet []Node

// NewNodeSet copies nodes into a NodeSet and validates it
func NewNodeSet(nodes []Node) (NodeSet, error) {
	set := make(NodeSet, len(nodes))
	copy(set, nodes)
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks the node count, coordinates and id uniqueness
func (s NodeSet) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("need at least 2 nodes, got %d: %w", len(s), ErrInvalidConfiguration)
	}

	seen := make(map[int]int, len(s))
	for i, n := range s {
		if !n.Position.IsFinite() {
			return fmt.Errorf("node %d has non-finite position (%g, %g): %w",
				n.ID, n.Position.X, n.Position.Y, ErrInvalidConfiguration)
		}
		if j, dup := seen[n.ID]; dup {
			return fmt.Errorf("node id %d used at index %d and %d: %w", n.ID, j, i, ErrInvalidConfiguration)
		}
		seen[n.ID] = i
	}

	return nil
}

// Positions returns the node positions in index order
func (s NodeSet) Positions() []Point {
	points := make([]Point, len(s))
	for i, n := range s {
		points[i] = n.Position
	}
	return points
}

// IndexOf returns the index of the node with the given id, or -1
func (s NodeSet) IndexOf(id int) int {
	for i, n := range s {
		if n.ID == id {
			return i
		}
	}
	return -1
}
