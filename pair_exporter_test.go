package main

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEdgeListUsesExternalIDs(t *testing.T) {
	nodes := NodeSet{
		{ID: 10, Position: Point{X: 0, Y: 0}},
		{ID: 20, Position: Point{X: 1, Y: 0}},
		{ID: 30, Position: Point{X: 0, Y: 1}},
	}

	rel := mustBuild(t, nodes, configWithAngle(30))

	edges := ToEdgeList(rel, nodes)
	assert.Equal(t, []EdgePair{{10, 20}, {10, 30}, {20, 30}}, edges)
	assert.Equal(t, edges, ToEdgeList(rel, nodes), "export must be repeatable")
}

func TestToEdgeListOrderAndUniqueness(t *testing.T) {
	nodes := randomNodes(11, 120, 800)
	rel := mustBuild(t, nodes, configWithAngle(20))

	edges := ToEdgeList(rel, nodes)
	require.NotEmpty(t, edges)

	index := make(map[int]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	seen := make(map[EdgePair]bool)
	prev := [2]int{-1, -1}
	for _, e := range edges {
		i, j := index[e[0]], index[e[1]]
		assert.Less(t, i, j)
		assert.True(t, rel.Connected(i, j))
		assert.False(t, seen[e], "duplicate %v", e)
		seen[e] = true

		cur := [2]int{i, j}
		assert.True(t, cur[0] > prev[0] || (cur[0] == prev[0] && cur[1] > prev[1]), "out of order at %v", e)
		prev = cur
	}
}

func TestToGeoJSON(t *testing.T) {
	nodes := NodeSet{
		{ID: 10, Position: Point{X: 0, Y: 0}},
		{ID: 20, Position: Point{X: 1, Y: 0}},
		{ID: 30, Position: Point{X: 0, Y: 1}},
	}
	rel := mustBuild(t, nodes, configWithAngle(30))

	data, err := ToGeoJSON(nodes, ToEdgeList(rel, nodes))
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 6)

	points, lines := 0, 0
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			points++
		case orb.LineString:
			lines++
			assert.Len(t, g, 2)
			assert.Contains(t, f.Properties, "length")
		}
	}
	assert.Equal(t, 3, points)
	assert.Equal(t, 3, lines)

	last := fc.Features[5]
	assert.Equal(t, orb.LineString{{1, 0}, {0, 1}}, last.Geometry)
	assert.Equal(t, 20.0, last.Properties["from"])
	assert.Equal(t, 30.0, last.Properties["to"])
}
