package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodesText(t *testing.T) {
	input := `
# id x y
1 0 0
2 1.5 -2
  7	3e2 4

(9 (0.25,0.75))
`
	nodes, err := ParseNodesText(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []Node{
		{ID: 1, Position: Point{X: 0, Y: 0}},
		{ID: 2, Position: Point{X: 1.5, Y: -2}},
		{ID: 7, Position: Point{X: 300, Y: 4}},
		{ID: 9, Position: Point{X: 0.25, Y: 0.75}},
	}, nodes)
}

func TestParseNodesTextErrors(t *testing.T) {
	tests := map[string]string{
		"too few fields": "1 2\n",
		"bad id":         "a 1 2\n",
		"bad x":          "1 x 2\n",
		"bad y":          "1 2 y\n",
		"too many":       "1 2 3 4\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNodesText(strings.NewReader("0 0 0\n" + input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestParseNodesGeoJSON(t *testing.T) {
	data := []byte(`{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "id": 5, "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {}},
	    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": {"id": "8"}},
	    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}},
	    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [5, 6]}, "properties": {}}
	  ]
	}`)

	nodes, err := ParseNodesGeoJSON(data)
	require.NoError(t, err)

	assert.Equal(t, []Node{
		{ID: 5, Position: Point{X: 1, Y: 2}},
		{ID: 8, Position: Point{X: 3, Y: 4}},
		{ID: 3, Position: Point{X: 5, Y: 6}}, // falls back to the feature position
	}, nodes)
}

func TestParseNodesGeoJSONErrors(t *testing.T) {
	_, err := ParseNodesGeoJSON([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseNodesGeoJSON([]byte(`{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "id": 1.5, "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {}}
	]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 0")
}

func TestLoadNodesFromFile(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "nodes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("1 0 0\n2 3 4\n"), 0644))

	nodes, err := LoadNodesFromFile(textPath)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	geoPath := filepath.Join(dir, "nodes.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(`{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "id": 4, "geometry": {"type": "Point", "coordinates": [1, 1]}, "properties": {}}
	]}`), 0644))

	nodes, err = LoadNodesFromFile(geoPath)
	require.NoError(t, err)
	assert.Equal(t, []Node{{ID: 4, Position: Point{X: 1, Y: 1}}}, nodes)

	_, err = LoadNodesFromFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
