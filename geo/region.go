package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// Region is the boundary of the area a grid is built for. The geometry is a polygon or multipolygon given in the
// coordinate reference CRS. All features aggregated against a grid of this region must use the same reference.
type Region struct {
	Geometry orb.Geometry
	CRS      CRS
}

// NewRegion validates the geometry type and returns the region. Polygons with zero area are accepted, they result in
// an empty grid.
func NewRegion(geometry orb.Geometry, crs CRS) (*Region, error) {
	switch geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	case nil:
		return nil, NewInvalidInputError("Region has no geometry")
	default:
		return nil, NewInvalidInputError("Region must be a Polygon or MultiPolygon but is a %s", geometry.GeoJSONType())
	}

	return &Region{
		Geometry: geometry,
		CRS:      crs.Normalize(),
	}, nil
}

func (r *Region) Bound() orb.Bound {
	return r.Geometry.Bound()
}

func (r *Region) Area() float64 {
	return math.Abs(planar.Area(r.Geometry))
}

// IsEmpty returns true when the region does not cover any area.
func (r *Region) IsEmpty() bool {
	switch geometry := r.Geometry.(type) {
	case nil:
		return true
	case orb.Polygon:
		if len(geometry) == 0 || len(geometry[0]) == 0 {
			return true
		}
	case orb.MultiPolygon:
		if len(geometry) == 0 {
			return true
		}
	}
	area := r.Area()
	return area == 0 || math.IsNaN(area)
}

func (r *Region) Contains(point orb.Point) bool {
	return Contains(r.Geometry, point)
}

// OverlapArea returns the area the region shares with the given bound.
func (r *Region) OverlapArea(bound orb.Bound) float64 {
	return OverlapArea(r.Geometry, bound)
}

// ClipToBound returns the part of the region within the bound. The result uses the same reference and is empty when
// region and bound do not overlap.
func (r *Region) ClipToBound(bound orb.Bound) *Region {
	var clipped orb.Geometry
	switch geometry := r.Geometry.(type) {
	case orb.Polygon:
		clipped = clip.Polygon(bound, geometry.Clone())
	case orb.MultiPolygon:
		clipped = clip.MultiPolygon(bound, geometry.Clone())
	}

	if clipped == nil {
		clipped = orb.Polygon{}
	}
	return &Region{Geometry: clipped, CRS: r.CRS}
}
