package osm

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"osmgrid/feature"
)

// Values of the "highway" tag that are not part of the drivable road network including service roads.
var nonDrivableHighwayValues = map[string]bool{
	"abandoned":    true,
	"bridleway":    true,
	"bus_guideway": true,
	"construction": true,
	"corridor":     true,
	"cycleway":     true,
	"elevator":     true,
	"escalator":    true,
	"footway":      true,
	"no":           true,
	"path":         true,
	"pedestrian":   true,
	"planned":      true,
	"platform":     true,
	"proposed":     true,
	"raceway":      true,
	"razed":        true,
	"steps":        true,
	"track":        true,
}

var excludedServiceValues = map[string]bool{
	"emergency_access": true,
	"parking":          true,
	"parking_aisle":    true,
	"private":          true,
}

// FeatureCollector turns tagged OSM objects into buildings, POIs and roads. Node coordinates are kept in memory to
// create the geometries of ways and relations. When a projection is set, all coordinates are projected with it.
type FeatureCollector struct {
	Buildings []*feature.Feature
	Pois      []*feature.Feature
	Roads     []*feature.Feature

	// Number of ways and relations referencing nodes or ways that are not part of the input. These features are
	// collected without geometry.
	IncompleteFeatures int

	projection orb.Projection
	nodes      map[osm.NodeID]orb.Point
	ways       map[osm.WayID]orb.LineString
}

// NewFeatureCollector creates a collector. The projection may be nil, coordinates are then used as they are.
func NewFeatureCollector(projection orb.Projection) *FeatureCollector {
	return &FeatureCollector{
		projection: projection,
	}
}

func (c *FeatureCollector) Name() string {
	return "FeatureCollector"
}

func (c *FeatureCollector) Init() error {
	c.Buildings = nil
	c.Pois = nil
	c.Roads = nil
	c.IncompleteFeatures = 0
	c.nodes = map[osm.NodeID]orb.Point{}
	c.ways = map[osm.WayID]orb.LineString{}
	return nil
}

func (c *FeatureCollector) HandleNode(node *osm.Node) error {
	point := orb.Point{node.Lon, node.Lat}
	if c.projection != nil {
		point = c.projection(point)
	}
	c.nodes[node.ID] = point

	// Buildings mapped as nodes are ignored, only areas count as buildings.
	if feature.IsPoi(node.Tags) {
		c.Pois = append(c.Pois, feature.NewPoi(feature.FormatID(feature.OsmObjNode, int64(node.ID)), node.Tags, point))
	}

	return nil
}

func (c *FeatureCollector) HandleWay(way *osm.Way) error {
	line := c.getLineString(way)
	if line != nil {
		c.ways[way.ID] = line
	}

	if len(way.Tags) == 0 {
		return nil
	}

	id := feature.FormatID(feature.OsmObjWay, int64(way.ID))
	isBuilding := way.Tags.Find("building") != ""
	isPoi := feature.IsPoi(way.Tags)
	isRoad := isDrivableRoad(way.Tags)

	if line == nil && (isBuilding || isPoi || isRoad) {
		sigolo.Debugf("Way %d references nodes that are not part of the input", way.ID)
		c.IncompleteFeatures++
	}

	if isBuilding {
		if line == nil {
			c.Buildings = append(c.Buildings, feature.NewBuilding(id, way.Tags, nil))
		} else if isClosedRing(line) {
			c.Buildings = append(c.Buildings, feature.NewBuilding(id, way.Tags, orb.Polygon{orb.Ring(line)}))
		} else {
			sigolo.Tracef("Ignore building way %d, it is not closed", way.ID)
		}
	}

	if isPoi {
		var geometry orb.Geometry
		if line != nil {
			if isClosedRing(line) {
				geometry = orb.Polygon{orb.Ring(line)}
			} else {
				geometry = line
			}
		}
		c.Pois = append(c.Pois, feature.NewPoi(id, way.Tags, geometry))
	}

	if isRoad {
		var geometry orb.Geometry
		if line != nil {
			geometry = line
		}
		c.Roads = append(c.Roads, feature.NewRoad(id, way.Tags, geometry))
	}

	return nil
}

// HandleRelation collects multipolygon relations tagged as building or POI.
func (c *FeatureCollector) HandleRelation(relation *osm.Relation) error {
	if relation.Tags.Find("type") != "multipolygon" {
		return nil
	}

	isBuilding := relation.Tags.Find("building") != ""
	isPoi := feature.IsPoi(relation.Tags)
	if !isBuilding && !isPoi {
		return nil
	}

	id := feature.FormatID(feature.OsmObjRelation, int64(relation.ID))

	var geometry orb.Geometry
	multiPolygon, err := c.getMultiPolygon(relation)
	if err != nil {
		sigolo.Debugf("Unable to create geometry of relation %d: %s", relation.ID, err.Error())
		c.IncompleteFeatures++
	} else {
		geometry = multiPolygon
	}

	if isBuilding {
		c.Buildings = append(c.Buildings, feature.NewBuilding(id, relation.Tags, geometry))
	}
	if isPoi {
		c.Pois = append(c.Pois, feature.NewPoi(id, relation.Tags, geometry))
	}

	return nil
}

func (c *FeatureCollector) Done() error {
	sigolo.Infof("Collected %d buildings, %d POIs and %d roads", len(c.Buildings), len(c.Pois), len(c.Roads))
	if c.IncompleteFeatures > 0 {
		sigolo.Warnf("%d features reference objects missing in the input and have no geometry", c.IncompleteFeatures)
	}

	// Coordinates are only needed while reading
	c.nodes = nil
	c.ways = nil

	return nil
}

// getLineString returns the line of the way or nil if one of its nodes is unknown.
func (c *FeatureCollector) getLineString(way *osm.Way) orb.LineString {
	line := make(orb.LineString, 0, len(way.Nodes))
	for _, wayNode := range way.Nodes {
		point, ok := c.nodes[wayNode.ID]
		if !ok {
			return nil
		}
		line = append(line, point)
	}
	return line
}

func (c *FeatureCollector) getMultiPolygon(relation *osm.Relation) (orb.MultiPolygon, error) {
	var outerLines, innerLines []orb.LineString
	for _, member := range relation.Members {
		if member.Type != osm.TypeWay {
			continue
		}

		line, ok := c.ways[osm.WayID(member.Ref)]
		if !ok {
			return nil, errMissingMember(relation.ID, member.Ref)
		}

		if member.Role == "inner" {
			innerLines = append(innerLines, line)
		} else {
			outerLines = append(outerLines, line)
		}
	}

	outerRings, err := assembleRings(outerLines)
	if err != nil {
		return nil, err
	}
	innerRings, err := assembleRings(innerLines)
	if err != nil {
		return nil, err
	}

	return toMultiPolygon(outerRings, innerRings), nil
}

func isDrivableRoad(tags osm.Tags) bool {
	highway := tags.Find("highway")
	if highway == "" || nonDrivableHighwayValues[highway] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" || tags.Find("motorcar") == "no" {
		return false
	}
	return !excludedServiceValues[tags.Find("service")]
}

func isClosedRing(line orb.LineString) bool {
	return len(line) >= 4 && line[0] == line[len(line)-1]
}
