package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadNodesFromFile reads a node list, picking the parser from the extension:
// .geojson and .json are GeoJSON feature collections, anything else is text
func LoadNodesFromFile(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	var nodes []Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		nodes, err = ParseNodesGeoJSON(data)
	default:
		nodes, err = ParseNodesText(strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("   ✅ Loaded %d nodes from %s\n", len(nodes), filepath.Base(path))
	return nodes, nil
}

// ParseNodesText reads one node per line as "id x y". Parentheses and commas
// are treated as separators, so "3 (1.5, 2)" works too. Blank lines and lines
// starting with # are ignored.
func ParseNodesText(r io.Reader) ([]Node, error) {
	var nodes []Node

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(c rune) bool {
			return unicode.IsSpace(c) || c == '(' || c == ')' || c == ','
		})
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected \"id x y\", got %q", lineNo, line)
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id %q: %w", lineNo, fields[0], err)
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x %q: %w", lineNo, fields[1], err)
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y %q: %w", lineNo, fields[2], err)
		}

		nodes = append(nodes, Node{ID: id, Position: Point{X: x, Y: y}})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan nodes: %w", err)
	}

	return nodes, nil
}

// ParseNodesGeoJSON converts the Point features of a FeatureCollection to nodes.
// The id comes from the feature id, then an "id" property, then the feature's
// position in the collection. Other geometry types are skipped.
func ParseNodesGeoJSON(data []byte) ([]Node, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	nodes := make([]Node, 0, len(fc.Features))
	for i, feature := range fc.Features {
		point, ok := feature.Geometry.(orb.Point)
		if !ok {
			log.Printf("⚠️  Skipping feature %d: %T is not a Point\n", i, feature.Geometry)
			continue
		}

		id, err := featureID(feature, i)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		nodes = append(nodes, Node{ID: id, Position: Point{X: point.X(), Y: point.Y()}})
	}

	return nodes, nil
}

func featureID(feature *geojson.Feature, fallback int) (int, error) {
	if feature.ID != nil {
		return toNodeID(feature.ID)
	}
	if v, ok := feature.Properties["id"]; ok {
		return toNodeID(v)
	}
	return fallback, nil
}

func toNodeID(v interface{}) (int, error) {
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("id %v is not an integer", id)
		}
		return int(id), nil
	case int:
		return id, nil
	case string:
		n, err := strconv.Atoi(id)
		if err != nil {
			return 0, fmt.Errorf("id %q is not an integer: %w", id, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
