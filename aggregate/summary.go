package aggregate

import (
	"osmgrid/feature"
)

// CellSummary contains the aggregated feature statistics of one grid cell.
type CellSummary struct {
	CellID               string         `json:"cell_id"`
	DominantBuildingType string         `json:"dominant_building_type"`
	BuildingTypeCounts   map[string]int `json:"building_type_counts"`
	PoiTypeCounts        map[string]int `json:"poi_type_counts"`
	RoadLengthM          float64        `json:"road_length_m"`
	RoadDensity          float64        `json:"road_density"` // Meters of road per square meter of cell area
}

// NewCellSummary returns the summary of a cell without any features.
func NewCellSummary(cellId string) *CellSummary {
	return &CellSummary{
		CellID:               cellId,
		DominantBuildingType: feature.UnknownType,
		BuildingTypeCounts:   map[string]int{},
		PoiTypeCounts:        map[string]int{},
	}
}

// BuildingCount returns the number of buildings touching the cell.
func (s *CellSummary) BuildingCount() int {
	count := 0
	for _, c := range s.BuildingTypeCounts {
		count += c
	}
	return count
}

// PoiCount returns the number of POIs touching the cell.
func (s *CellSummary) PoiCount() int {
	count := 0
	for _, c := range s.PoiTypeCounts {
		count += c
	}
	return count
}

// Result is the outcome of one aggregation run. It contains exactly one summary per input cell.
type Result struct {
	Summaries       []*CellSummary // Same order as the input cells
	SkippedFeatures int            // Number of features excluded due to invalid geometries

	summaryByCellId map[string]*CellSummary
}

func NewResult(summaries []*CellSummary, skippedFeatures int) *Result {
	summaryByCellId := make(map[string]*CellSummary, len(summaries))
	for _, summary := range summaries {
		summaryByCellId[summary.CellID] = summary
	}

	return &Result{
		Summaries:       summaries,
		SkippedFeatures: skippedFeatures,
		summaryByCellId: summaryByCellId,
	}
}

// Get returns the summary of the given cell.
func (r *Result) Get(cellId string) (*CellSummary, bool) {
	summary, ok := r.summaryByCellId[cellId]
	return summary, ok
}

// ByCellId returns all summaries keyed by their cell ID.
func (r *Result) ByCellId() map[string]*CellSummary {
	summaries := make(map[string]*CellSummary, len(r.summaryByCellId))
	for id, summary := range r.summaryByCellId {
		summaries[id] = summary
	}
	return summaries
}
