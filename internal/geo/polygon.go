package geo

import "errors"

// Boundary validation failures.
var (
	ErrSelfIntersecting = errors.New("boundary polygon is self-intersecting")
	ErrOverlapsExisting = errors.New("boundary polygon overlaps an existing spot")
)

// Point is a WGS 84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Quad is the 4-vertex boundary a spot owner traces, in traced order.
//
// All polygon math below treats degrees as a flat Cartesian plane. That is
// only valid because spot boundaries span a few metres to tens of metres;
// do not reuse this for large-area shapes.
type Quad [4]Point

// Bounds is the axis-aligned envelope of a Quad, used for cheap pre-filtering.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// BoundsOf returns the min/max latitude/longitude envelope of q.
func BoundsOf(q Quad) Bounds {
	b := Bounds{North: q[0].Lat, South: q[0].Lat, East: q[0].Lng, West: q[0].Lng}
	for _, p := range q[1:] {
		if p.Lat > b.North {
			b.North = p.Lat
		}
		if p.Lat < b.South {
			b.South = p.Lat
		}
		if p.Lng > b.East {
			b.East = p.Lng
		}
		if p.Lng < b.West {
			b.West = p.Lng
		}
	}
	return b
}

// Centroid returns the arithmetic mean of the four vertices. Acceptable as
// the spot's representative point at the sub-100m scale these shapes cover.
func Centroid(q Quad) Point {
	var lat, lng float64
	for _, p := range q {
		lat += p.Lat
		lng += p.Lng
	}
	return Point{Lat: lat / 4, Lng: lng / 4}
}

// ValidateBoundary checks q for self-intersection and for overlap with the
// boundaries of existing active spots. It returns ErrSelfIntersecting,
// ErrOverlapsExisting, or nil.
func ValidateBoundary(q Quad, existing []Quad) error {
	if selfIntersects(q) {
		return ErrSelfIntersecting
	}
	for _, other := range existing {
		if quadsOverlap(q, other) {
			return ErrOverlapsExisting
		}
	}
	return nil
}

// selfIntersects tests every pair of non-adjacent edges. Adjacent edges share
// an endpoint and are never considered intersecting. In a quadrilateral the
// only non-adjacent pairs are (0,2) and (1,3).
func selfIntersects(q Quad) bool {
	e := edgesOf(q)
	return segmentsIntersect(e[0], e[2]) || segmentsIntersect(e[1], e[3])
}

// quadsOverlap reports whether a and b overlap: a vertex of either lies
// inside the other, or any pair of edges crosses (no adjacency exception
// between distinct polygons).
func quadsOverlap(a, b Quad) bool {
	for _, p := range a {
		if pointInQuad(p, b) {
			return true
		}
	}
	for _, p := range b {
		if pointInQuad(p, a) {
			return true
		}
	}
	ea, eb := edgesOf(a), edgesOf(b)
	for _, sa := range ea {
		for _, sb := range eb {
			if segmentsIntersect(sa, sb) {
				return true
			}
		}
	}
	return false
}

type segment struct {
	p, q Point
}

func edgesOf(q Quad) [4]segment {
	return [4]segment{
		{q[0], q[1]},
		{q[1], q[2]},
		{q[2], q[3]},
		{q[3], q[0]},
	}
}

// orientation returns the sign of the cross product (q-p) x (r-p):
// 0 collinear, 1 clockwise, 2 counter-clockwise.
func orientation(p, q, r Point) int {
	val := (q.Lat-p.Lat)*(r.Lng-q.Lng) - (q.Lng-p.Lng)*(r.Lat-q.Lat)
	switch {
	case val == 0:
		return 0
	case val > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether r, known collinear with segment pq, lies on pq.
func onSegment(p, q, r Point) bool {
	return r.Lng >= minf(p.Lng, q.Lng) && r.Lng <= maxf(p.Lng, q.Lng) &&
		r.Lat >= minf(p.Lat, q.Lat) && r.Lat <= maxf(p.Lat, q.Lat)
}

// segmentsIntersect is the orientation-based segment intersection test,
// comparing the four orientation triples.
func segmentsIntersect(s1, s2 segment) bool {
	o1 := orientation(s1.p, s1.q, s2.p)
	o2 := orientation(s1.p, s1.q, s2.q)
	o3 := orientation(s2.p, s2.q, s1.p)
	o4 := orientation(s2.p, s2.q, s1.q)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear special cases.
	if o1 == 0 && onSegment(s1.p, s1.q, s2.p) {
		return true
	}
	if o2 == 0 && onSegment(s1.p, s1.q, s2.q) {
		return true
	}
	if o3 == 0 && onSegment(s2.p, s2.q, s1.p) {
		return true
	}
	if o4 == 0 && onSegment(s2.p, s2.q, s1.q) {
		return true
	}
	return false
}

// pointInQuad is a ray-casting point-in-polygon test: cast a ray toward
// +longitude and count edge crossings.
func pointInQuad(pt Point, q Quad) bool {
	inside := false
	j := 3
	for i := 0; i < 4; i++ {
		pi, pj := q[i], q[j]
		if (pi.Lat > pt.Lat) != (pj.Lat > pt.Lat) {
			crossLng := (pj.Lng-pi.Lng)*(pt.Lat-pi.Lat)/(pj.Lat-pi.Lat) + pi.Lng
			if pt.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
