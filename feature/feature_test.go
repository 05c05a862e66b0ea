package feature

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"osmgrid/geo"
	"osmgrid/util"
)

func TestFeature_GetPoiType_priority(t *testing.T) {
	// Arrange
	tags := osm.Tags{
		{Key: "tourism", Value: "hotel"},
		{Key: "shop", Value: "bakery"},
		{Key: "amenity", Value: "cafe"},
	}

	// Act & Assert
	util.AssertEqual(t, "cafe", GetPoiType(tags))
	util.AssertEqual(t, "bakery", GetPoiType(tags[:2]))
	util.AssertEqual(t, "hotel", GetPoiType(tags[:1]))
	util.AssertEqual(t, "stop_position", GetPoiType(osm.Tags{{Key: "public_transport", Value: "stop_position"}, {Key: "name", Value: "Foo"}}))
	util.AssertEqual(t, "", GetPoiType(osm.Tags{{Key: "name", Value: "Foo"}}))
	util.AssertFalse(t, IsPoi(osm.Tags{{Key: "building", Value: "yes"}}))
}

func TestFeature_NewPoi_unknownType(t *testing.T) {
	// Arrange & Act
	poi := NewPoi("node/1", osm.Tags{{Key: "amenity", Value: ""}, {Key: "name", Value: "Foo"}}, orb.Point{1, 2})

	// Assert
	util.AssertEqual(t, "", poi.Subtype)
	util.AssertEqual(t, UnknownType, poi.GetTypeOrUnknown())
}

func TestFeature_NewBuilding(t *testing.T) {
	// Arrange & Act
	building := NewBuilding("way/1", osm.Tags{{Key: "building", Value: "residential"}}, nil)
	unknownBuilding := NewBuilding("way/2", osm.Tags{{Key: "name", Value: "Foo"}}, nil)

	// Assert
	util.AssertEqual(t, CategoryBuilding, building.Category)
	util.AssertEqual(t, "residential", building.GetTypeOrUnknown())
	util.AssertEqual(t, UnknownType, unknownBuilding.GetTypeOrUnknown())
}

func TestFeature_Validate(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}

	util.AssertNil(t, NewBuilding("way/1", nil, square).Validate())
	util.AssertNil(t, NewPoi("node/1", nil, orb.Point{1, 1}).Validate())
	util.AssertNil(t, NewPoi("way/2", nil, square).Validate())
	util.AssertNil(t, NewRoad("way/3", nil, orb.LineString{{0, 0}, {1, 1}}).Validate())

	var geometryError *geo.GeometryError

	err := NewBuilding("node/2", nil, orb.Point{1, 1}).Validate()
	util.AssertErrorAs(t, err, &geometryError)
	util.AssertEqual(t, "node/2", geometryError.FeatureID)

	err = NewRoad("way/4", nil, square).Validate()
	util.AssertError(t, "invalid geometry of feature way/4: road must be a line but is a Polygon", err)

	err = NewBuilding("way/5", nil, orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}).Validate()
	util.AssertError(t, "invalid geometry of feature way/5: ring 0 is not closed", err)

	err = NewPoi("node/3", nil, orb.Point{math.NaN(), 1}).Validate()
	util.AssertErrorAs(t, err, &geometryError)
	util.AssertEqual(t, "node/3", geometryError.FeatureID)

	err = NewRoad("way/6", nil, nil).Validate()
	util.AssertError(t, "invalid geometry of feature way/6: no geometry", err)
}
