package io

import (
	"os"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"osmgrid/geo"
)

// ReadRegion reads the region boundary from a GeoJSON file. See ParseRegion for the supported content.
func ReadRegion(filename string, sourceCrs geo.CRS, targetCrs geo.CRS) (*geo.Region, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read region file %s", filename)
	}

	region, err := ParseRegion(data, sourceCrs, targetCrs)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse region file %s", filename)
	}
	return region, nil
}

// ParseRegion parses a GeoJSON feature collection, feature or geometry. The first polygon or multipolygon is used as
// region, it's projected from the source into the target reference.
func ParseRegion(data []byte, sourceCrs geo.CRS, targetCrs geo.CRS) (*geo.Region, error) {
	geometry, err := findRegionGeometry(data)
	if err != nil {
		return nil, err
	}

	projectedGeometry, err := geo.Project(geometry, sourceCrs, targetCrs)
	if err != nil {
		return nil, err
	}

	region, err := geo.NewRegion(projectedGeometry, targetCrs)
	if err != nil {
		return nil, err
	}

	sigolo.Debugf("Read region with bound %v in %s", region.Bound(), region.CRS)
	return region, nil
}

func findRegionGeometry(data []byte) (orb.Geometry, error) {
	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && featureCollection.Type == "FeatureCollection" {
		for _, feature := range featureCollection.Features {
			if isAreaGeometry(feature.Geometry) {
				return feature.Geometry, nil
			}
		}
		return nil, geo.NewInvalidInputError("Feature collection does not contain a Polygon or MultiPolygon")
	}

	feature, err := geojson.UnmarshalFeature(data)
	if err == nil && feature.Type == "Feature" {
		if isAreaGeometry(feature.Geometry) {
			return feature.Geometry, nil
		}
		return nil, geo.NewInvalidInputError("Feature geometry must be a Polygon or MultiPolygon")
	}

	geometry, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, geo.WrapInvalidInputError(err, "Data is neither a GeoJSON feature collection, feature nor geometry")
	}
	if !isAreaGeometry(geometry.Geometry()) {
		return nil, geo.NewInvalidInputError("Geometry must be a Polygon or MultiPolygon but is a %s", geometry.Type)
	}
	return geometry.Geometry(), nil
}

func isAreaGeometry(geometry orb.Geometry) bool {
	switch geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}
