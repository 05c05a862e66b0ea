package osm

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
	"osmgrid/feature"
	"osmgrid/geo"
	"osmgrid/util"
)

func newCollector(t *testing.T) *FeatureCollector {
	collector := NewFeatureCollector(nil)
	util.AssertNil(t, collector.Init())
	return collector
}

func addNodes(t *testing.T, collector *FeatureCollector, coordinates ...orb.Point) {
	for i, c := range coordinates {
		err := collector.HandleNode(&osm.Node{ID: osm.NodeID(i + 1), Lon: c.X(), Lat: c.Y()})
		util.AssertNil(t, err)
	}
}

func wayNodes(ids ...osm.NodeID) osm.WayNodes {
	nodes := make(osm.WayNodes, len(ids))
	for i, id := range ids {
		nodes[i] = osm.WayNode{ID: id}
	}
	return nodes
}

func TestFeatureCollector_poiNode(t *testing.T) {
	// Arrange
	collector := newCollector(t)

	// Act
	err := collector.HandleNode(&osm.Node{ID: 7, Lon: 10, Lat: 20, Tags: osm.Tags{{Key: "shop", Value: "bakery"}, {Key: "amenity", Value: "cafe"}}})
	util.AssertNil(t, err)
	err = collector.HandleNode(&osm.Node{ID: 8, Lon: 11, Lat: 21, Tags: osm.Tags{{Key: "building", Value: "house"}}})
	util.AssertNil(t, err)
	err = collector.HandleNode(&osm.Node{ID: 9, Lon: 12, Lat: 22})
	util.AssertNil(t, err)

	// Assert
	util.AssertEqual(t, 1, len(collector.Pois))
	util.AssertEqual(t, "node/7", collector.Pois[0].ID)
	util.AssertEqual(t, "cafe", collector.Pois[0].Subtype)
	util.AssertEqual(t, orb.Point{10, 20}, collector.Pois[0].Geometry)
	util.AssertEqual(t, 0, len(collector.Buildings))
}

func TestFeatureCollector_buildingWay(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	addNodes(t, collector, orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10}, orb.Point{0, 10})

	// Act
	err := collector.HandleWay(&osm.Way{ID: 1, Nodes: wayNodes(1, 2, 3, 4, 1), Tags: osm.Tags{{Key: "building", Value: "yes"}}})
	util.AssertNil(t, err)
	err = collector.HandleWay(&osm.Way{ID: 2, Nodes: wayNodes(1, 2, 3), Tags: osm.Tags{{Key: "building", Value: "roof"}}})
	util.AssertNil(t, err)

	// Assert
	util.AssertEqual(t, 1, len(collector.Buildings))
	building := collector.Buildings[0]
	util.AssertEqual(t, "way/1", building.ID)
	util.AssertEqual(t, "yes", building.Subtype)
	util.AssertEqual(t, orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}, building.Geometry)
	util.AssertNil(t, building.Validate())
}

func TestFeatureCollector_roads(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	addNodes(t, collector, orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{20, 0})

	// Act
	ways := []*osm.Way{
		{ID: 1, Nodes: wayNodes(1, 2, 3), Tags: osm.Tags{{Key: "highway", Value: "primary"}}},
		{ID: 2, Nodes: wayNodes(1, 2), Tags: osm.Tags{{Key: "highway", Value: "footway"}}},
		{ID: 3, Nodes: wayNodes(2, 3), Tags: osm.Tags{{Key: "highway", Value: "service"}, {Key: "service", Value: "parking_aisle"}}},
		{ID: 4, Nodes: wayNodes(2, 3), Tags: osm.Tags{{Key: "highway", Value: "service"}, {Key: "service", Value: "driveway"}}},
		{ID: 5, Nodes: wayNodes(2, 3), Tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "motor_vehicle", Value: "no"}}},
		{ID: 6, Nodes: wayNodes(1, 3), Tags: osm.Tags{{Key: "highway", Value: "motorway_link"}}},
	}
	for _, way := range ways {
		util.AssertNil(t, collector.HandleWay(way))
	}

	// Assert
	var ids []string
	for _, road := range collector.Roads {
		ids = append(ids, road.ID)
	}
	util.AssertEqual(t, []string{"way/1", "way/4", "way/6"}, ids)
	util.AssertEqual(t, "primary", collector.Roads[0].Subtype)
	util.AssertEqual(t, orb.LineString{{0, 0}, {10, 0}, {20, 0}}, collector.Roads[0].Geometry)
}

func TestFeatureCollector_poiWays(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	addNodes(t, collector, orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10})

	// Act
	err := collector.HandleWay(&osm.Way{ID: 1, Nodes: wayNodes(1, 2, 3, 1), Tags: osm.Tags{{Key: "leisure", Value: "park"}, {Key: "building", Value: "pavilion"}}})
	util.AssertNil(t, err)
	err = collector.HandleWay(&osm.Way{ID: 2, Nodes: wayNodes(1, 2), Tags: osm.Tags{{Key: "tourism", Value: "attraction"}}})
	util.AssertNil(t, err)

	// Assert
	util.AssertEqual(t, 2, len(collector.Pois))
	util.AssertEqual(t, "park", collector.Pois[0].Subtype)
	util.AssertEqual(t, orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}}, collector.Pois[0].Geometry)
	util.AssertEqual(t, orb.LineString{{0, 0}, {10, 0}}, collector.Pois[1].Geometry)

	util.AssertEqual(t, 1, len(collector.Buildings))
	util.AssertEqual(t, "pavilion", collector.Buildings[0].Subtype)
}

func TestFeatureCollector_missingNodes(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	addNodes(t, collector, orb.Point{0, 0})

	// Act
	err := collector.HandleWay(&osm.Way{ID: 1, Nodes: wayNodes(1, 42), Tags: osm.Tags{{Key: "highway", Value: "residential"}}})
	util.AssertNil(t, err)
	err = collector.HandleWay(&osm.Way{ID: 2, Nodes: wayNodes(1, 42)})
	util.AssertNil(t, err)

	// Assert
	util.AssertEqual(t, 1, len(collector.Roads))
	util.AssertNil(t, collector.Roads[0].Geometry)
	util.AssertEqual(t, 1, collector.IncompleteFeatures)
	util.AssertError(t, "invalid geometry of feature way/1: no geometry", collector.Roads[0].Validate())
}

func TestFeatureCollector_multipolygonRelation(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	addNodes(t, collector,
		orb.Point{0, 0}, orb.Point{100, 0}, orb.Point{100, 100}, orb.Point{0, 100}, // outer
		orb.Point{40, 40}, orb.Point{60, 40}, orb.Point{60, 60}, orb.Point{40, 60}, // inner
	)
	util.AssertNil(t, collector.HandleWay(&osm.Way{ID: 1, Nodes: wayNodes(1, 2, 3)}))
	util.AssertNil(t, collector.HandleWay(&osm.Way{ID: 2, Nodes: wayNodes(1, 4, 3)}))
	util.AssertNil(t, collector.HandleWay(&osm.Way{ID: 3, Nodes: wayNodes(5, 6, 7, 8, 5)}))

	relation := &osm.Relation{
		ID: 10,
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 1, Role: "outer"},
			{Type: osm.TypeWay, Ref: 2, Role: "outer"},
			{Type: osm.TypeWay, Ref: 3, Role: "inner"},
		},
		Tags: osm.Tags{{Key: "type", Value: "multipolygon"}, {Key: "building", Value: "school"}, {Key: "amenity", Value: "school"}},
	}

	// Act
	err := collector.HandleRelation(relation)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(collector.Buildings))
	util.AssertEqual(t, 1, len(collector.Pois))

	building := collector.Buildings[0]
	util.AssertEqual(t, "relation/10", building.ID)
	util.AssertNil(t, building.Validate())

	multiPolygon, ok := building.Geometry.(orb.MultiPolygon)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, 1, len(multiPolygon))
	util.AssertEqual(t, 2, len(multiPolygon[0]))
	util.AssertEqual(t, orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}, multiPolygon[0][0])
}

func TestFeatureCollector_relationWithMissingMember(t *testing.T) {
	// Arrange
	collector := newCollector(t)
	relation := &osm.Relation{
		ID:      11,
		Members: osm.Members{{Type: osm.TypeWay, Ref: 99, Role: "outer"}},
		Tags:    osm.Tags{{Key: "type", Value: "multipolygon"}, {Key: "building", Value: "yes"}},
	}

	// Act
	err := collector.HandleRelation(relation)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(collector.Buildings))
	util.AssertNil(t, collector.Buildings[0].Geometry)
	util.AssertEqual(t, 1, collector.IncompleteFeatures)
}

func TestFeatureCollector_ignoresOtherRelations(t *testing.T) {
	// Arrange
	collector := newCollector(t)

	// Act
	err := collector.HandleRelation(&osm.Relation{ID: 12, Tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "amenity", Value: "bus"}}})

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 0, len(collector.Pois))
}

func TestFeatureCollector_projection(t *testing.T) {
	// Arrange
	collector := NewFeatureCollector(project.WGS84.ToMercator)
	util.AssertNil(t, collector.Init())

	// Act
	err := collector.HandleNode(&osm.Node{ID: 1, Lon: 108.2, Lat: 16.05, Tags: osm.Tags{{Key: "amenity", Value: "school"}}})

	// Assert
	util.AssertNil(t, err)
	point := collector.Pois[0].Geometry.(orb.Point)
	util.AssertApprox(t, 12044768.9, point.X(), 1)
	util.AssertApprox(t, 1810513.8, point.Y(), 1)
}

func TestAssembleRings_unclosable(t *testing.T) {
	// Act
	_, err := assembleRings([]orb.LineString{{{0, 0}, {1, 0}}, {{5, 5}, {6, 6}}})

	// Assert
	util.AssertNotNil(t, err)
}

const testOsmXml = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="0" lon="0"/>
  <node id="2" lat="0" lon="0.001"/>
  <node id="3" lat="0.001" lon="0.001"/>
  <node id="4" lat="0.001" lon="0"/>
  <node id="5" lat="0.0005" lon="0.0005">
    <tag k="amenity" v="school"/>
  </node>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="1"/>
    <tag k="building" v="residential"/>
  </way>
  <way id="11">
    <nd ref="1"/><nd ref="3"/>
    <tag k="highway" v="tertiary"/>
  </way>
</osm>`

func TestOsmReader_ReadXml(t *testing.T) {
	// Arrange
	collector := NewFeatureCollector(nil)

	// Act
	err := NewOsmReader().ReadXml(context.Background(), strings.NewReader(testOsmXml), collector)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(collector.Buildings))
	util.AssertEqual(t, 1, len(collector.Pois))
	util.AssertEqual(t, 1, len(collector.Roads))
	util.AssertEqual(t, "residential", collector.Buildings[0].Subtype)
	util.AssertEqual(t, feature.CategoryRoad, collector.Roads[0].Category)
}

func TestOsmReader_Read(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	osmFile := path.Join(dir, "input.osm")
	util.AssertNil(t, os.WriteFile(osmFile, []byte(testOsmXml), 0644))
	collector := NewFeatureCollector(nil)

	// Act
	err := NewOsmReader().Read(context.Background(), osmFile, collector)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(collector.Buildings))
}

func TestOsmReader_Read_unsupportedFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	csvFile := path.Join(dir, "input.csv")
	util.AssertNil(t, os.WriteFile(csvFile, []byte("a,b"), 0644))

	// Act
	err := NewOsmReader().Read(context.Background(), csvFile)

	// Assert
	util.AssertTrue(t, geo.IsInvalidInputError(err))
}
