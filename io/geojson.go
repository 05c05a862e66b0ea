package io

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"osmgrid/aggregate"
	"osmgrid/common"
	"osmgrid/feature"
	"osmgrid/geo"
	"osmgrid/grid"
)

const (
	propertyCellId   = "cell_id"
	propertyColumn   = "column"
	propertyRow      = "row"
	memberRunId      = "run_id"
	memberCellSize   = "cell_size"
	memberCrs        = "crs"
	crsNamePrefix    = "urn:ogc:def:crs:"
	propertyOsmId    = "@osm_id"
	propertyCategory = "@category"
)

// WriteGridAsGeoJsonFile writes the grid to the given file. See WriteGridAsGeoJson for the format.
func WriteGridAsGeoJsonFile(g *grid.Grid, filename string) error {
	return writeFile(filename, func(writer io.Writer) error {
		return WriteGridAsGeoJson(g, writer)
	})
}

// WriteGridAsGeoJson writes one polygon feature per cell. The run ID, cell size and coordinate reference are stored
// as members of the feature collection.
func WriteGridAsGeoJson(g *grid.Grid, writer io.Writer) error {
	sigolo.Infof("Write grid with %d cells to GeoJSON", len(g.Cells))
	writeStartTime := time.Now()

	featureCollection := newFeatureCollection(g)
	for _, cell := range g.Cells {
		featureCollection.Features = append(featureCollection.Features, newCellFeature(cell))
	}

	err := writeFeatureCollection(featureCollection, writer)
	if err != nil {
		return err
	}

	sigolo.Debugf("Finished writing grid in %s", time.Since(writeStartTime))
	return nil
}

// WriteSummariesAsGeoJsonFile writes the summaries to the given file. See WriteSummariesAsGeoJson for the format.
func WriteSummariesAsGeoJsonFile(g *grid.Grid, summaries []*aggregate.CellSummary, filename string) error {
	return writeFile(filename, func(writer io.Writer) error {
		return WriteSummariesAsGeoJson(g, summaries, writer)
	})
}

// WriteSummariesAsGeoJson writes the cells of the grid with the properties of their summary. Each cell also gets the
// one-hot columns "dominant_building_type_<type>" over all types of the summaries. Summaries of unknown cells are an
// error.
func WriteSummariesAsGeoJson(g *grid.Grid, summaries []*aggregate.CellSummary, writer io.Writer) error {
	sigolo.Infof("Write %d cell summaries to GeoJSON", len(summaries))
	writeStartTime := time.Now()

	encoding := aggregate.EncodeDominantBuildingTypes(summaries)
	columnNames := encoding.ColumnNames()

	featureCollection := newFeatureCollection(g)
	for i, summary := range summaries {
		cell := g.GetCell(summary.CellID)
		if cell == nil {
			return errors.Errorf("Summary of cell %s does not belong to grid %s", summary.CellID, g.RunID)
		}

		geoJsonFeature := newCellFeature(cell)
		geoJsonFeature.Properties["dominant_building_type"] = summary.DominantBuildingType
		geoJsonFeature.Properties["building_type_counts"] = summary.BuildingTypeCounts
		geoJsonFeature.Properties["poi_type_counts"] = summary.PoiTypeCounts
		geoJsonFeature.Properties["road_length_m"] = summary.RoadLengthM
		geoJsonFeature.Properties["road_density"] = summary.RoadDensity
		for column, value := range encoding.Rows[i] {
			geoJsonFeature.Properties[columnNames[column]] = value
		}

		featureCollection.Features = append(featureCollection.Features, geoJsonFeature)
	}

	err := writeFeatureCollection(featureCollection, writer)
	if err != nil {
		return err
	}

	sigolo.Debugf("Finished writing summaries in %s", time.Since(writeStartTime))
	return nil
}

// ReadGridFromGeoJsonFile reads a grid written by WriteGridAsGeoJsonFile.
func ReadGridFromGeoJsonFile(filename string) (*grid.Grid, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read grid file %s", filename)
	}
	return ReadGridFromGeoJson(data)
}

// ReadGridFromGeoJson parses a grid written by WriteGridAsGeoJson. The cell bounds are taken from the bound of each
// feature geometry.
func ReadGridFromGeoJson(data []byte) (*grid.Grid, error) {
	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse grid GeoJSON")
	}

	crsName := ""
	if crsMember, ok := featureCollection.ExtraMembers[memberCrs].(map[string]interface{}); ok {
		if crsProperties, ok := crsMember["properties"].(map[string]interface{}); ok {
			crsName, _ = crsProperties["name"].(string)
		}
	}

	g := &grid.Grid{
		RunID:    featureCollection.ExtraMembers.MustString(memberRunId, ""),
		CRS:      crsFromName(crsName),
		CellSize: featureCollection.ExtraMembers.MustFloat64(memberCellSize, 0),
		Cells:    make([]*grid.Cell, 0, len(featureCollection.Features)),
	}

	for i, geoJsonFeature := range featureCollection.Features {
		id := geoJsonFeature.Properties.MustString(propertyCellId, "")
		number, err := grid.ParseCellId(id)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid cell ID of feature %d", i)
		}
		if geoJsonFeature.Geometry == nil {
			return nil, errors.Errorf("Cell %s has no geometry", id)
		}

		index := common.CellIndex{
			geoJsonFeature.Properties.MustInt(propertyColumn, 0),
			geoJsonFeature.Properties.MustInt(propertyRow, 0),
		}
		g.Cells = append(g.Cells, grid.NewCell(number, index, geoJsonFeature.Geometry.Bound()))
	}

	return g, nil
}

// ReadFeaturesFromGeoJsonFile reads a feature snapshot from the given file. See ReadFeaturesFromGeoJson.
func ReadFeaturesFromGeoJsonFile(filename string) (buildings []*feature.Feature, pois []*feature.Feature, roads []*feature.Feature, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "Unable to read feature file %s", filename)
	}
	return ReadFeaturesFromGeoJson(data)
}

// ReadFeaturesFromGeoJson parses a feature collection of already projected features. The string properties become the
// tags of each feature. The category is taken from the "@category" property when present, otherwise from the tags:
// "building" makes a building, "highway" a road and any POI key a POI. Without "@category" a feature can be of several
// categories, e.g. a school building is a building and a POI. Features matching none are ignored.
func ReadFeaturesFromGeoJson(data []byte) (buildings []*feature.Feature, pois []*feature.Feature, roads []*feature.Feature, err error) {
	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "Unable to parse feature GeoJSON")
	}

	for i, geoJsonFeature := range featureCollection.Features {
		tags := osm.Tags{}
		for key, value := range geoJsonFeature.Properties {
			if stringValue, ok := value.(string); ok && !strings.HasPrefix(key, "@") {
				tags = append(tags, osm.Tag{Key: key, Value: stringValue})
			}
		}
		sort.Slice(tags, func(i, j int) bool {
			return tags[i].Key < tags[j].Key
		})

		id := geoJsonFeature.Properties.MustString(propertyOsmId, "")
		if id == "" && geoJsonFeature.ID != nil {
			id = fmt.Sprintf("%v", geoJsonFeature.ID)
		}
		if id == "" {
			id = fmt.Sprintf("feature/%d", i)
		}

		category := geoJsonFeature.Properties.MustString(propertyCategory, "")
		isBuilding := category == feature.CategoryBuilding.String() || category == "" && tags.Find("building") != ""
		isPoi := category == feature.CategoryPoi.String() || category == "" && feature.IsPoi(tags)
		isRoad := category == feature.CategoryRoad.String() || category == "" && tags.Find("highway") != ""

		if isBuilding {
			buildings = append(buildings, feature.NewBuilding(id, tags, geoJsonFeature.Geometry))
		}
		if isPoi {
			pois = append(pois, feature.NewPoi(id, tags, geoJsonFeature.Geometry))
		}
		if isRoad {
			roads = append(roads, feature.NewRoad(id, tags, geoJsonFeature.Geometry))
		}
		if !isBuilding && !isPoi && !isRoad {
			sigolo.Tracef("Ignore feature %s without building, highway or POI tags", id)
		}
	}

	sigolo.Debugf("Read %d buildings, %d POIs and %d roads from GeoJSON", len(buildings), len(pois), len(roads))
	return buildings, pois, roads, nil
}

func newFeatureCollection(g *grid.Grid) *geojson.FeatureCollection {
	featureCollection := geojson.NewFeatureCollection()
	featureCollection.ExtraMembers = geojson.Properties{
		memberRunId:    g.RunID,
		memberCellSize: g.CellSize,
		memberCrs: map[string]interface{}{
			"type": "name",
			"properties": map[string]interface{}{
				"name": crsToName(g.CRS),
			},
		},
	}
	return featureCollection
}

func newCellFeature(cell *grid.Cell) *geojson.Feature {
	geoJsonFeature := geojson.NewFeature(cell.Geometry)
	geoJsonFeature.ID = cell.ID
	geoJsonFeature.Properties[propertyCellId] = cell.ID
	geoJsonFeature.Properties[propertyColumn] = cell.Index.X()
	geoJsonFeature.Properties[propertyRow] = cell.Index.Y()
	return geoJsonFeature
}

func writeFeatureCollection(featureCollection *geojson.FeatureCollection, writer io.Writer) error {
	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal GeoJSON")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON")
	}
	return nil
}

// crsToName turns "EPSG:3857" into "urn:ogc:def:crs:EPSG::3857".
func crsToName(crs geo.CRS) string {
	authority, code, found := strings.Cut(string(crs.Normalize()), ":")
	if !found {
		return string(crs)
	}
	return crsNamePrefix + authority + "::" + code
}

func crsFromName(name string) geo.CRS {
	if !strings.HasPrefix(name, crsNamePrefix) {
		return geo.CRS(name).Normalize()
	}
	return geo.CRS(strings.Replace(strings.TrimPrefix(name, crsNamePrefix), "::", ":", 1)).Normalize()
}

func writeFile(filename string, write func(writer io.Writer) error) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create file %s", filename)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "Unable to close file handle for file %s", filename)
		}
	}()

	return write(file)
}
