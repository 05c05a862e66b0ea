package feature

import (
	"github.com/paulmach/orb"
	"osmgrid/geo"
)

// Validate checks that the geometry is well-formed and of a type that makes sense for the category of this feature.
func (f *Feature) Validate() error {
	return f.ValidateAs(f.Category)
}

// ValidateAs checks that the geometry is well-formed and of a type that makes sense for the given category: Buildings
// must be (multi)polygons, roads (multi)line strings and POIs points, lines or polygons. The returned error is a
// *geo.GeometryError carrying the ID of this feature.
func (f *Feature) ValidateAs(category Category) error {
	var err error
	switch f.Geometry.(type) {
	case nil:
		err = geo.NewGeometryError(f.ID, "no geometry")
	case orb.Polygon, orb.MultiPolygon:
		if category == CategoryRoad {
			err = geo.NewGeometryError(f.ID, "road must be a line but is a %s", f.Geometry.GeoJSONType())
		}
	case orb.LineString, orb.MultiLineString:
		if category == CategoryBuilding {
			err = geo.NewGeometryError(f.ID, "building must be a polygon but is a %s", f.Geometry.GeoJSONType())
		}
	case orb.Point, orb.MultiPoint:
		if category != CategoryPoi {
			err = geo.NewGeometryError(f.ID, "%s must not be a %s", category, f.Geometry.GeoJSONType())
		}
	default:
		err = geo.NewGeometryError(f.ID, "unsupported geometry type %s", f.Geometry.GeoJSONType())
	}
	if err != nil {
		return err
	}

	err = geo.Validate(f.Geometry)
	if geometryError, ok := err.(*geo.GeometryError); ok {
		geometryError.FeatureID = f.ID
		return geometryError
	}
	return err
}
