package main

import (
	"fmt"
	"math"
)

// Point is a planar position or direction vector
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + other
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns p - other
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both components by s
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Cross is the scalar 2D cross product x1*y2 - y1*x2
func (p Point) Cross(other Point) float64 {
	return p.X*other.Y - p.Y*other.X
}

func (p Point) Length() float64 {
	return math.Sqrt(p.Dot(p))
}

// Normalize returns the unit vector pointing the same way as p.
// A zero vector has no direction and yields ErrDegenerateVector.
func (p Point) Normalize() (Point, error) {
	length := p.Length()
	if length == 0 {
		return Point{}, fmt.Errorf("normalize (%g, %g): %w", p.X, p.Y, ErrDegenerateVector)
	}
	return p.Scale(1 / length), nil
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return other.Sub(p).Length()
}

// IsFinite reports whether both coordinates are real numbers
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Segment is a directed line segment from From to To
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// SegmentsCross treats line as an infinite line through its two points and
// reports whether the endpoints of seg lie on opposite sides of it.
// Touching or colinear endpoints count as crossing.
func SegmentsCross(line, seg Segment) bool {
	axis := line.To.Sub(line.From)
	sideFrom := axis.Cross(line.To.Sub(seg.From))
	sideTo := axis.Cross(line.To.Sub(seg.To))
	return sideFrom*sideTo <= 0
}

// SegmentsMutuallyCross is the bounded segment intersection test: each
// segment must straddle the supporting line of the other
func SegmentsMutuallyCross(a, b Segment) bool {
	return SegmentsCross(a, b) && SegmentsCross(b, a)
}

// ProbeCrossesSegment extends a finite probe from origin along direction by
// length and checks it against seg. length stands in for an unbounded ray and
// must exceed every distance that matters to the caller.
func ProbeCrossesSegment(origin, direction Point, length float64, seg Segment) (bool, error) {
	unit, err := direction.Normalize()
	if err != nil {
		return false, err
	}
	probe := Segment{From: origin, To: origin.Add(unit.Scale(length))}
	return SegmentsMutuallyCross(probe, seg), nil
}

// rotator turns points about a pivot by a fixed angle in either direction
type rotator struct {
	sin, cos float64
}

func newRotator(radians float64) rotator {
	return rotator{sin: math.Sin(radians), cos: math.Cos(radians)}
}

// rotate returns pivot + R(sign*theta)(point - pivot); sign is +1 for
// counter-clockwise and -1 for clockwise
func (r rotator) rotate(pivot, point Point, sign float64) Point {
	d := point.Sub(pivot)
	s := sign * r.sin
	return Point{
		X: pivot.X + d.X*r.cos - d.Y*s,
		Y: pivot.Y + d.X*s + d.Y*r.cos,
	}
}

// BBox represents a bounding box
type BBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// getBBox calculates the bounding box of a set of points
func getBBox(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}

	bbox := BBox{
		MinX: points[0].X,
		MinY: points[0].Y,
		MaxX: points[0].X,
		MaxY: points[0].Y,
	}

	for _, p := range points[1:] {
		bbox.MinX = math.Min(bbox.MinX, p.X)
		bbox.MinY = math.Min(bbox.MinY, p.Y)
		bbox.MaxX = math.Max(bbox.MaxX, p.X)
		bbox.MaxY = math.Max(bbox.MaxY, p.Y)
	}

	return bbox
}

// Diagonal is the length of the box's diagonal
func (b BBox) Diagonal() float64 {
	return Point{X: b.MaxX - b.MinX, Y: b.MaxY - b.MinY}.Length()
}
