package main

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// EdgePair is an undirected edge expressed in external node ids
type EdgePair [2]int

// ToEdgeList emits (ID[i], ID[j]) for every connected index pair i <= j,
// ordered by (i, j). Each unordered pair is visited once, so there are no
// duplicates, and calling it again on the same relation gives the same list.
func ToEdgeList(rel *AdjacencyRelation, nodes NodeSet) []EdgePair {
	pairs := make([]EdgePair, 0)
	for i := 0; i < rel.Len(); i++ {
		for j := i; j < rel.Len(); j++ {
			if rel.Connected(i, j) {
				pairs = append(pairs, EdgePair{nodes[i].ID, nodes[j].ID})
			}
		}
	}
	return pairs
}

// ToGeoJSON renders nodes as Point features and edges as LineString features
func ToGeoJSON(nodes NodeSet, edges []EdgePair) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	points := make(map[int]Point, len(nodes))

	for _, n := range nodes {
		points[n.ID] = n.Position
		f := geojson.NewFeature(orb.Point{n.Position.X, n.Position.Y})
		f.ID = n.ID
		f.Properties["id"] = n.ID
		fc.Append(f)
	}

	for _, e := range edges {
		a, b := points[e[0]], points[e[1]]
		f := geojson.NewFeature(orb.LineString{{a.X, a.Y}, {b.X, b.Y}})
		f.Properties["from"] = e[0]
		f.Properties["to"] = e[1]
		f.Properties["length"] = a.Distance(b)
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson: %w", err)
	}
	return data, nil
}
