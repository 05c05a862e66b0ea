package aggregate

import (
	"time"

	"github.com/hauke96/sigolo/v2"
	"osmgrid/feature"
	"osmgrid/geo"
	"osmgrid/grid"
)

// Aggregator assigns features to the cells of a grid and summarizes them per cell. It holds no mutable state, so one
// aggregator can be used for several feature snapshots of the same grid.
type Aggregator struct {
	cells  []*grid.Cell
	lookup *cellLookup
}

func NewAggregator(cells []*grid.Cell) *Aggregator {
	return &Aggregator{
		cells:  cells,
		lookup: newCellLookup(cells),
	}
}

// Aggregate is a shorthand for NewAggregator(cells).Aggregate(buildings, pois, roads).
func Aggregate(cells []*grid.Cell, buildings []*feature.Feature, pois []*feature.Feature, roads []*feature.Feature) *Result {
	return NewAggregator(cells).Aggregate(buildings, pois, roads)
}

// Aggregate returns one summary for each cell of this aggregator. A feature contributes to every cell it touches.
// Features with invalid geometries are skipped and counted in Result.SkippedFeatures.
func (a *Aggregator) Aggregate(buildings []*feature.Feature, pois []*feature.Feature, roads []*feature.Feature) *Result {
	sigolo.Infof("Aggregate %d buildings, %d POIs and %d roads into %d cells", len(buildings), len(pois), len(roads), len(a.cells))
	aggregationStartTime := time.Now()

	accumulators := make([]*cellAccumulator, len(a.cells))
	for i := range a.cells {
		accumulators[i] = newCellAccumulator()
	}

	skipped := 0
	skipped += a.addFeatures(feature.CategoryBuilding, buildings, accumulators)
	skipped += a.addFeatures(feature.CategoryPoi, pois, accumulators)
	skipped += a.addFeatures(feature.CategoryRoad, roads, accumulators)

	summaries := make([]*CellSummary, len(a.cells))
	for i, cell := range a.cells {
		summaries[i] = accumulators[i].toSummary(cell)
	}

	if skipped > 0 {
		sigolo.Warnf("Skipped %d features with invalid geometries", skipped)
	}
	sigolo.Infof("Finished aggregation in %s", time.Since(aggregationStartTime))

	return NewResult(summaries, skipped)
}

// addFeatures adds all features of the given category to the accumulators of the cells they touch. It returns the
// number of skipped features.
func (a *Aggregator) addFeatures(category feature.Category, features []*feature.Feature, accumulators []*cellAccumulator) int {
	skipped := 0

	for i, f := range features {
		if f == nil {
			sigolo.Warnf("Skip %s at position %d: feature is nil", category, i)
			skipped++
			continue
		}

		err := f.ValidateAs(category)
		if err != nil {
			sigolo.Warnf("Skip %s: %s", category, err.Error())
			skipped++
			continue
		}

		f.Print()

		touchedCells := 0
		for _, cellPosition := range a.lookup.getCandidates(f.Geometry.Bound()) {
			cell := a.cells[cellPosition]
			accumulator := accumulators[cellPosition]

			switch category {
			case feature.CategoryBuilding:
				if geo.Touches(f.Geometry, cell.Bounds) {
					accumulator.addBuilding(f.GetTypeOrUnknown())
					touchedCells++
				}
			case feature.CategoryPoi:
				if geo.Touches(f.Geometry, cell.Bounds) {
					accumulator.addPoi(f.GetTypeOrUnknown())
					touchedCells++
				}
			case feature.CategoryRoad:
				ownsRightEdge, ownsTopEdge := a.lookup.ownsEdges(cellPosition)
				length := geo.LengthWithinEdges(f.Geometry, cell.Bounds, ownsRightEdge, ownsTopEdge)
				if length > 0 {
					accumulator.roadLengthM += length
					touchedCells++
				}
			}
		}

		if sigolo.ShouldLogTrace() {
			sigolo.Tracef("%s %s touches %d cells", category, f.ID, touchedCells)
		}
	}

	return skipped
}

type cellAccumulator struct {
	buildingTypeOrder  []string // Building types in the order they were first seen, used for tie-breaking
	buildingTypeCounts map[string]int
	poiTypeCounts      map[string]int
	roadLengthM        float64
}

func newCellAccumulator() *cellAccumulator {
	return &cellAccumulator{
		buildingTypeCounts: map[string]int{},
		poiTypeCounts:      map[string]int{},
	}
}

func (c *cellAccumulator) addBuilding(buildingType string) {
	if _, ok := c.buildingTypeCounts[buildingType]; !ok {
		c.buildingTypeOrder = append(c.buildingTypeOrder, buildingType)
	}
	c.buildingTypeCounts[buildingType]++
}

func (c *cellAccumulator) addPoi(poiType string) {
	c.poiTypeCounts[poiType]++
}

// dominantBuildingType returns the most frequent building type. On ties the type seen first wins.
func (c *cellAccumulator) dominantBuildingType() string {
	dominantType := feature.UnknownType
	dominantCount := 0
	for _, buildingType := range c.buildingTypeOrder {
		if c.buildingTypeCounts[buildingType] > dominantCount {
			dominantType = buildingType
			dominantCount = c.buildingTypeCounts[buildingType]
		}
	}
	return dominantType
}

func (c *cellAccumulator) toSummary(cell *grid.Cell) *CellSummary {
	summary := NewCellSummary(cell.ID)
	summary.DominantBuildingType = c.dominantBuildingType()
	summary.BuildingTypeCounts = c.buildingTypeCounts
	summary.PoiTypeCounts = c.poiTypeCounts
	summary.RoadLengthM = c.roadLengthM

	area := cell.Area()
	if area > 0 {
		summary.RoadDensity = c.roadLengthM / area
	}

	return summary
}
