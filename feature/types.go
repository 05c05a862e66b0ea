package feature

import (
	"fmt"
)

// Category is the kind of real-world object a feature represents.
type Category int

const (
	CategoryBuilding Category = iota
	CategoryPoi
	CategoryRoad
)

func (c Category) String() string {
	switch c {
	case CategoryBuilding:
		return "building"
	case CategoryPoi:
		return "poi"
	case CategoryRoad:
		return "road"
	}
	return fmt.Sprintf("[!UNKNOWN Category %d]", c)
}

// OsmObjectType is an enum for the three object types in OpenStreetMap a feature can originate from.
type OsmObjectType int

const (
	OsmObjNode OsmObjectType = iota
	OsmObjWay
	OsmObjRelation
)

func (o OsmObjectType) String() string {
	switch o {
	case OsmObjNode:
		return "node"
	case OsmObjWay:
		return "way"
	case OsmObjRelation:
		return "relation"
	}
	return fmt.Sprintf("[!UNKNOWN OsmObjectType %d]", o)
}

// FormatID returns the ID in the "<type>/<id>" notation known from the OSM website, e.g. "way/123".
func FormatID(objectType OsmObjectType, id int64) string {
	return fmt.Sprintf("%s/%d", objectType, id)
}
