package feature

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// UnknownType is used for buildings and POIs without usable type tags.
const UnknownType = "unknown"

// PoiTagKeys are the tag keys used to determine the type of a POI. The order is the priority: When a feature carries
// several of these keys, the first one wins.
var PoiTagKeys = []string{"amenity", "shop", "leisure", "tourism", "public_transport"}

// Feature is a tagged geometry like a building, a POI or a road segment. The geometry must use the same coordinate
// reference as the grid it's aggregated against.
type Feature struct {
	ID       string
	Category Category
	Subtype  string // Empty when the feature doesn't carry a type
	Tags     osm.Tags
	Geometry orb.Geometry
}

// NewBuilding creates a building feature, the subtype is the value of the "building" tag.
func NewBuilding(id string, tags osm.Tags, geometry orb.Geometry) *Feature {
	return &Feature{
		ID:       id,
		Category: CategoryBuilding,
		Subtype:  tags.Find("building"),
		Tags:     tags,
		Geometry: geometry,
	}
}

// NewPoi creates a POI feature, the subtype is resolved via GetPoiType.
func NewPoi(id string, tags osm.Tags, geometry orb.Geometry) *Feature {
	return &Feature{
		ID:       id,
		Category: CategoryPoi,
		Subtype:  GetPoiType(tags),
		Tags:     tags,
		Geometry: geometry,
	}
}

// NewRoad creates a road feature, the subtype is the value of the "highway" tag.
func NewRoad(id string, tags osm.Tags, geometry orb.Geometry) *Feature {
	return &Feature{
		ID:       id,
		Category: CategoryRoad,
		Subtype:  tags.Find("highway"),
		Tags:     tags,
		Geometry: geometry,
	}
}

// GetPoiType returns the value of the first POI key in PoiTagKeys that is set on the tags. It returns an empty string
// when none of them is set.
func GetPoiType(tags osm.Tags) string {
	for _, key := range PoiTagKeys {
		if value := tags.Find(key); value != "" {
			return value
		}
	}
	return ""
}

// IsPoi returns true when at least one POI key is set.
func IsPoi(tags osm.Tags) bool {
	return GetPoiType(tags) != ""
}

// GetTypeOrUnknown returns the subtype or UnknownType if the feature has none.
func (f *Feature) GetTypeOrUnknown() string {
	if f.Subtype == "" {
		return UnknownType
	}
	return f.Subtype
}

func (f *Feature) Print() {
	if !sigolo.ShouldLogTrace() {
		return
	}

	sigolo.Tracef("Feature:")
	sigolo.Tracef("  id=%s", f.ID)
	sigolo.Tracef("  category=%s", f.Category)
	sigolo.Tracef("  subtype=%s", f.Subtype)
	sigolo.Tracef("  tags=%v", f.Tags)
	if f.Geometry != nil {
		sigolo.Tracef("  geometry=%s with bound %v", f.Geometry.GeoJSONType(), f.Geometry.Bound())
	}
}
