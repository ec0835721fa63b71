package geo

import (
	"math"

	"github.com/golang/geo/r2"
)

// coordinates are planar network coordinates, not lat/lon.

func NewPoint(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

func EuclideanDistance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// ProjectPointToSegment closest point to p on segment ab.
func ProjectPointToSegment(a, b, p r2.Point) r2.Point {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

func PointSegmentDistance(a, b, p r2.Point) float64 {
	return EuclideanDistance(p, ProjectPointToSegment(a, b, p))
}

// SegmentBound bounding rect of segment ab grown by margin on every side.
func SegmentBound(a, b r2.Point, margin float64) r2.Rect {
	return r2.RectFromPoints(a, b).ExpandedByMargin(margin)
}
