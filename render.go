package main

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"
)

var documentWidth = 1000.0
var documentHeight = 1000.0
var documentMargin = 25.0

// RenderSVG draws the graph's edges and nodes scaled to fit the document,
// with y pointing up as in the input coordinates
func RenderSVG(w io.Writer, graph *ProximityGraph, labels bool) {
	s := svg.New(w)
	s.Start(documentWidth, documentHeight)
	s.Rect(0, 0, documentWidth, documentHeight, "stroke:none;fill:white")

	if len(graph.Nodes) == 0 {
		s.End()
		return
	}

	box := graph.BoundingBox
	width := box.MaxX - box.MinX
	height := box.MaxY - box.MinY

	scale := 1.0
	if width > 0 || height > 0 {
		scale = math.Min(
			(documentWidth-2*documentMargin)/math.Max(width, math.SmallestNonzeroFloat64),
			(documentHeight-2*documentMargin)/math.Max(height, math.SmallestNonzeroFloat64),
		)
	}

	toCanvas := func(p Point) (float64, float64) {
		return documentMargin + (p.X-box.MinX)*scale,
			documentHeight - documentMargin - (p.Y-box.MinY)*scale
	}

	s.Gstyle("stroke:#00f;stroke-width:1")
	for _, line := range graph.GetGraphAsLineStrings() {
		x1, y1 := toCanvas(line[0])
		x2, y2 := toCanvas(line[1])
		s.Line(x1, y1, x2, y2)
	}
	s.Gend()

	for _, n := range graph.Nodes {
		x, y := toCanvas(n.Point)
		s.Circle(x, y, 3, "fill:black;stroke:none")
		if labels {
			s.Text(x+4, y-4, fmt.Sprintf("%d", n.ID), "font-size:10px;fill:#555")
		}
	}

	s.End()
}
