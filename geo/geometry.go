package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// ValidatePoint checks that the point has finite coordinates.
func ValidatePoint(p orb.Point) error {
	if !isFinite(p) {
		return NewGeometryError("", "non-finite coordinate %v", p)
	}
	return nil
}

// ValidateLineString checks that the line has at least two points and finite coordinates.
func ValidateLineString(ls orb.LineString) error {
	if len(ls) < 2 {
		return NewGeometryError("", "line string with %d points", len(ls))
	}
	for _, p := range ls {
		if err := ValidatePoint(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePolygon checks that all rings are closed, have at least four points and the outer ring spans an area.
func ValidatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return NewGeometryError("", "polygon without rings")
	}

	for i, ring := range p {
		if len(ring) < 4 {
			return NewGeometryError("", "ring %d has only %d points", i, len(ring))
		}
		if !ring.Closed() {
			return NewGeometryError("", "ring %d is not closed", i)
		}
		for _, point := range ring {
			if err := ValidatePoint(point); err != nil {
				return err
			}
		}
	}

	if math.Abs(planar.Area(p[0])) == 0 {
		return NewGeometryError("", "outer ring has no area")
	}
	return nil
}

// Validate checks the geometry depending on its type. Only points, line strings, polygons and their multi variants
// are supported.
func Validate(g orb.Geometry) error {
	switch geometry := g.(type) {
	case nil:
		return NewGeometryError("", "no geometry")
	case orb.Point:
		return ValidatePoint(geometry)
	case orb.MultiPoint:
		if len(geometry) == 0 {
			return NewGeometryError("", "empty multi point")
		}
		for _, p := range geometry {
			if err := ValidatePoint(p); err != nil {
				return err
			}
		}
		return nil
	case orb.LineString:
		return ValidateLineString(geometry)
	case orb.MultiLineString:
		if len(geometry) == 0 {
			return NewGeometryError("", "empty multi line string")
		}
		for _, ls := range geometry {
			if err := ValidateLineString(ls); err != nil {
				return err
			}
		}
		return nil
	case orb.Polygon:
		return ValidatePolygon(geometry)
	case orb.MultiPolygon:
		if len(geometry) == 0 {
			return NewGeometryError("", "empty multi polygon")
		}
		for _, p := range geometry {
			if err := ValidatePolygon(p); err != nil {
				return err
			}
		}
		return nil
	}
	return NewGeometryError("", "unsupported geometry type %s", g.GeoJSONType())
}

// OverlapArea returns the area of the part of the (multi)polygon lying within the bound. Other geometry types have no
// area and return 0.
func OverlapArea(g orb.Geometry, bound orb.Bound) float64 {
	if !g.Bound().Intersects(bound) {
		return 0
	}

	// Clipping uses the input as scratch space, so the callers geometry must be cloned.
	switch geometry := g.(type) {
	case orb.Polygon:
		clipped := clip.Polygon(bound, geometry.Clone())
		if clipped == nil {
			return 0
		}
		return math.Abs(planar.Area(clipped))
	case orb.MultiPolygon:
		clipped := clip.MultiPolygon(bound, geometry.Clone())
		if clipped == nil {
			return 0
		}
		return math.Abs(planar.Area(clipped))
	}
	return 0
}

// LengthWithin returns the length of the part of the (multi)line lying within the bound. Parts running exactly along
// the right or top edge of the bound are not counted, they belong to the neighboring cell. This way the lengths of
// cells sharing edges add up to the total length of the line.
func LengthWithin(g orb.Geometry, bound orb.Bound) float64 {
	return LengthWithinEdges(g, bound, false, false)
}

// LengthWithinEdges works like LengthWithin but also counts the parts along the right and/or top edge. A cell without
// a right or top neighbor owns that edge, otherwise lines along it would not be counted at all.
func LengthWithinEdges(g orb.Geometry, bound orb.Bound, withRightEdge bool, withTopEdge bool) float64 {
	if !g.Bound().Intersects(bound) {
		return 0
	}

	var lines orb.MultiLineString
	switch geometry := g.(type) {
	case orb.LineString:
		lines = clip.LineString(bound, geometry.Clone())
	case orb.MultiLineString:
		lines = clip.MultiLineString(bound, geometry.Clone())
	default:
		return 0
	}

	length := 0.0
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			if !withRightEdge && a.X() == bound.Max.X() && b.X() == bound.Max.X() {
				continue
			}
			if !withTopEdge && a.Y() == bound.Max.Y() && b.Y() == bound.Max.Y() {
				continue
			}
			length += planar.Distance(a, b)
		}
	}
	return length
}

// Touches returns true when the geometry shares a part with the bound. Points count when they lie within the bound or
// on its edge, lines when a part of positive length lies within it and polygons when the overlap has a positive area.
func Touches(g orb.Geometry, bound orb.Bound) bool {
	switch geometry := g.(type) {
	case orb.Point:
		return bound.Contains(geometry)
	case orb.MultiPoint:
		for _, p := range geometry {
			if bound.Contains(p) {
				return true
			}
		}
		return false
	case orb.LineString, orb.MultiLineString:
		return LengthWithin(g, bound) > 0
	case orb.Polygon, orb.MultiPolygon:
		return OverlapArea(g, bound) > 0
	}
	return false
}

// Contains returns true when the point lies within the (multi)polygon or on its boundary.
func Contains(g orb.Geometry, point orb.Point) bool {
	switch geometry := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geometry, point)
	case orb.MultiPolygon:
		for _, p := range geometry {
			if planar.PolygonContains(p, point) {
				return true
			}
		}
	}
	return false
}

func isFinite(p orb.Point) bool {
	return !math.IsNaN(p.X()) && !math.IsNaN(p.Y()) && !math.IsInf(p.X(), 0) && !math.IsInf(p.Y(), 0)
}
