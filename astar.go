package main

import (
	"container/heap"
)

// searchNode is an entry of the A* open set
type searchNode struct {
	NodeID int     // ID of the node in the graph
	G      float64 // Cost from start to this node
	H      float64 // Heuristic cost from this node to end
	F      float64 // Total cost (G + H)
	Parent *searchNode
	Index  int // Index in the heap
}

// PriorityQueue implements heap.Interface for A* algorithm
type PriorityQueue []*searchNode

func (pq PriorityQueue) Len() int { return len(pq) }

// Less orders by F, then by node ID so equal-cost routes come out the same every run
func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F != pq[j].F {
		return pq[i].F < pq[j].F
	}
	return pq[i].NodeID < pq[j].NodeID
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// Route is a path through the graph
type Route struct {
	NodeIDs []int   `json:"nodeIds"`
	Path    []Point `json:"path"`
	Length  float64 `json:"length"`
}

// AStarPathOnGraph computes the shortest path between two node IDs using A*
// with the straight-line distance as heuristic
func AStarPathOnGraph(graph *Graph, startID, endID int) (Route, bool) {
	if graph == nil || len(graph.Nodes) == 0 {
		return Route{}, false
	}

	startPoint, ok := graph.Nodes[startID]
	if !ok {
		return Route{}, false
	}
	endPoint, ok := graph.Nodes[endID]
	if !ok {
		return Route{}, false
	}

	openSet := &PriorityQueue{}
	heap.Init(openSet)

	startNode := &searchNode{
		NodeID: startID,
		G:      0,
		H:      startPoint.Distance(endPoint),
		F:      startPoint.Distance(endPoint),
	}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := make(map[int]*searchNode)
	openSetMap[startID] = startNode

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.NodeID)

		// Check if we reached the goal
		if current.NodeID == endID {
			route := Route{Length: current.G}
			for node := current; node != nil; node = node.Parent {
				route.NodeIDs = append([]int{node.NodeID}, route.NodeIDs...)
				route.Path = append([]Point{graph.Nodes[node.NodeID]}, route.Path...)
			}
			return route, true
		}

		closedSet[current.NodeID] = true

		// Explore neighbors
		for _, edge := range graph.Edges[current.NodeID] {
			neighborID := edge.To

			if closedSet[neighborID] {
				continue
			}

			tentativeG := current.G + edge.Cost

			neighbor, exists := openSetMap[neighborID]
			if !exists {
				neighborPoint := graph.Nodes[neighborID]
				neighbor = &searchNode{
					NodeID: neighborID,
					G:      tentativeG,
					H:      neighborPoint.Distance(endPoint),
					Parent: current,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[neighborID] = neighbor
			} else if tentativeG < neighbor.G {
				// Found a better path to this neighbor
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	// No path found
	return Route{}, false
}
