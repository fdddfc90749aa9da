package main

// Graph is a weighted view of a proximity graph keyed by node ID, used for routing
type Graph struct {
	Nodes map[int]Point
	Edges map[int][]Edge
}

// Edge represents a connection between two nodes with a cost
type Edge struct {
	To   int     // ID of the destination node
	Cost float64 // Euclidean length
}
