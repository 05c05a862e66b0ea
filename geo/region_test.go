package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"osmgrid/util"
)

func TestNewRegion(t *testing.T) {
	// Act
	region, err := NewRegion(square(0, 0, 10, 20), CRS("epsg:3857"))
	_, lineErr := NewRegion(orb.LineString{{0, 0}, {1, 1}}, WebMercator)
	_, nilErr := NewRegion(nil, WebMercator)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, WebMercator, region.CRS)
	util.AssertApprox(t, 200.0, region.Area(), 0.000001)
	util.AssertEqual(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 20}}, region.Bound())
	util.AssertFalse(t, region.IsEmpty())
	util.AssertError(t, "Region must be a Polygon or MultiPolygon but is a LineString", lineErr)
	util.AssertError(t, "Region has no geometry", nilErr)
}

func TestRegion_IsEmpty(t *testing.T) {
	degenerated, err := NewRegion(orb.Polygon{{{0, 0}, {10, 0}, {20, 0}, {0, 0}}}, WebMercator)
	util.AssertNil(t, err)
	util.AssertTrue(t, degenerated.IsEmpty())

	noRings, err := NewRegion(orb.Polygon{}, WebMercator)
	util.AssertNil(t, err)
	util.AssertTrue(t, noRings.IsEmpty())

	noPolygons, err := NewRegion(orb.MultiPolygon{}, WebMercator)
	util.AssertNil(t, err)
	util.AssertTrue(t, noPolygons.IsEmpty())
}

func TestRegion_ContainsAndOverlap(t *testing.T) {
	// Arrange
	region, err := NewRegion(orb.Polygon{{{0, 0}, {100, 0}, {0, 100}, {0, 0}}}, WebMercator)
	util.AssertNil(t, err)

	// Act & Assert
	util.AssertTrue(t, region.Contains(orb.Point{10, 10}))
	util.AssertFalse(t, region.Contains(orb.Point{90, 90}))
	util.AssertApprox(t, 5000.0, region.Area(), 0.000001)
	util.AssertApprox(t, 3750.0, region.OverlapArea(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 100}}), 0.000001)
	util.AssertApprox(t, 0.0, region.OverlapArea(orb.Bound{Min: orb.Point{60, 60}, Max: orb.Point{100, 100}}), 0.000001)
}

func TestRegion_ClipToBound(t *testing.T) {
	// Arrange
	region, err := NewRegion(square(0, 0, 100, 100), CRS("EPSG:32648"))
	util.AssertNil(t, err)

	// Act
	clipped := region.ClipToBound(orb.Bound{Min: orb.Point{50, -50}, Max: orb.Point{150, 50}})
	outside := region.ClipToBound(orb.Bound{Min: orb.Point{200, 200}, Max: orb.Point{300, 300}})

	// Assert
	util.AssertEqual(t, region.CRS, clipped.CRS)
	util.AssertApprox(t, 2500.0, clipped.Area(), 0.000001)
	util.AssertEqual(t, orb.Bound{Min: orb.Point{50, 0}, Max: orb.Point{100, 50}}, clipped.Bound())
	util.AssertTrue(t, outside.IsEmpty())
	util.AssertApprox(t, 10000.0, region.Area(), 0.000001)
}

func TestProject(t *testing.T) {
	// Arrange
	point := orb.Point{108.2, 16.05}

	// Act
	projected, err := Project(point, WGS84, WebMercator)
	util.AssertNil(t, err)
	back, backErr := Project(projected, CRS("epsg:3857"), CRS("crs84"))
	same, sameErr := Project(point, WGS84, WGS84)
	_, unknownErr := Project(point, WGS84, CRS("EPSG:25832"))

	// Assert
	util.AssertApprox(t, 12044768.9, projected.(orb.Point).X(), 1)
	util.AssertApprox(t, 1810513.8, projected.(orb.Point).Y(), 1)
	util.AssertEqual(t, orb.Point{108.2, 16.05}, point)

	util.AssertNil(t, backErr)
	util.AssertApprox(t, 108.2, back.(orb.Point).X(), 0.0000001)
	util.AssertApprox(t, 16.05, back.(orb.Point).Y(), 0.0000001)

	util.AssertNil(t, sameErr)
	util.AssertEqual(t, point, same)

	util.AssertTrue(t, IsInvalidInputError(unknownErr))
}

func TestProject_utm(t *testing.T) {
	// Arrange
	daNang := orb.Point{108.2, 16.05}
	sydney := orb.Point{151.2093, -33.8688}

	// Act
	northProjected, northErr := Project(daNang, WGS84, CRS("EPSG:32648"))
	southProjected, southErr := Project(sydney, WGS84, CRS("EPSG:32756"))
	util.AssertNil(t, northErr)
	back, backErr := Project(northProjected, CRS("EPSG:32648"), WGS84)

	// Assert
	util.AssertApprox(t, 842439.609, northProjected.(orb.Point).X(), 0.05)
	util.AssertApprox(t, 1777111.960, northProjected.(orb.Point).Y(), 0.05)

	util.AssertNil(t, southErr)
	util.AssertApprox(t, 334368.634, southProjected.(orb.Point).X(), 0.05)
	util.AssertApprox(t, 6250948.345, southProjected.(orb.Point).Y(), 0.05)

	util.AssertNil(t, backErr)
	util.AssertApprox(t, 108.2, back.(orb.Point).X(), 0.000001)
	util.AssertApprox(t, 16.05, back.(orb.Point).Y(), 0.000001)
}

func TestProject_utmToWebMercator(t *testing.T) {
	// Arrange
	utmPoint := orb.Point{842439.609, 1777111.960}

	// Act
	projected, err := Project(utmPoint, CRS("EPSG:32648"), WebMercator)

	// Assert
	util.AssertNil(t, err)
	util.AssertApprox(t, 12044768.9, projected.(orb.Point).X(), 1)
	util.AssertApprox(t, 1810513.8, projected.(orb.Point).Y(), 1)
}

func TestGetProjection_utm(t *testing.T) {
	// Act
	projection, err := GetProjection(WGS84, CRS("EPSG:32648"))
	_, unknownErr := GetProjection(WGS84, CRS("foo"))

	// Assert
	util.AssertNil(t, err)
	projected := projection(orb.Point{108.2, 16.05})
	util.AssertApprox(t, 842439.609, projected.X(), 0.05)
	util.AssertApprox(t, 1777111.960, projected.Y(), 0.05)
	util.AssertTrue(t, IsInvalidInputError(unknownErr))
}

func TestProject_doesNotModifyInput(t *testing.T) {
	// Arrange
	polygon := orb.Polygon{{{108.2, 16.05}, {108.3, 16.05}, {108.3, 16.1}, {108.2, 16.05}}}
	original := polygon.Clone()

	// Act
	projected, err := Project(polygon, WGS84, WebMercator)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, original, polygon)
	util.AssertTrue(t, projected.Bound().Min.X() > 12000000)
}
