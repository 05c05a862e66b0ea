package aggregate

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"osmgrid/common"
	"osmgrid/grid"
)

// Report contains overall statistics of an aggregation run.
type Report struct {
	CellCount          int
	CoveredAreaM2      float64
	BuildingCount      int // Sum over all cells, buildings touching several cells are counted several times
	PoiCount           int
	TotalRoadLengthM   float64
	MeanRoadDensity    float64
	StdDevRoadDensity  float64 // Sample standard deviation, 0 for fewer than two cells
	SkippedFeatures    int
	DominantTypeCounts map[string]int // Number of cells per dominant building type
}

// NewReport computes the statistics of the given aggregation result. The cells must be the ones the result was
// created for.
func NewReport(cells []*grid.Cell, result *Result) *Report {
	report := &Report{
		CellCount:          len(cells),
		SkippedFeatures:    result.SkippedFeatures,
		DominantTypeCounts: map[string]int{},
	}

	areas := make([]float64, len(cells))
	for i, cell := range cells {
		areas[i] = cell.Area()
	}
	report.CoveredAreaM2 = floats.Sum(areas)

	roadLengths := make([]float64, len(result.Summaries))
	roadDensities := make([]float64, len(result.Summaries))
	for i, summary := range result.Summaries {
		roadLengths[i] = summary.RoadLengthM
		roadDensities[i] = summary.RoadDensity
		report.BuildingCount += summary.BuildingCount()
		report.PoiCount += summary.PoiCount()
		report.DominantTypeCounts[summary.DominantBuildingType]++
	}
	report.TotalRoadLengthM = floats.Sum(roadLengths)

	if len(roadDensities) > 0 {
		report.MeanRoadDensity = stat.Mean(roadDensities, nil)
	}
	if len(roadDensities) > 1 {
		report.StdDevRoadDensity = stat.StdDev(roadDensities, nil)
	}

	return report
}

// Write prints the report as aligned key-value table.
func (r *Report) Write(writer io.Writer) error {
	tableWriter := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)

	rows := [][2]string{
		{"cells", fmt.Sprintf("%d", r.CellCount)},
		{"covered area", fmt.Sprintf("%.2f m²", r.CoveredAreaM2)},
		{"buildings", fmt.Sprintf("%d", r.BuildingCount)},
		{"pois", fmt.Sprintf("%d", r.PoiCount)},
		{"road length", fmt.Sprintf("%.2f m", r.TotalRoadLengthM)},
		{"road density mean", fmt.Sprintf("%.6f m/m²", r.MeanRoadDensity)},
		{"road density stddev", fmt.Sprintf("%.6f m/m²", r.StdDevRoadDensity)},
		{"skipped features", fmt.Sprintf("%d", r.SkippedFeatures)},
	}

	var dominantTypes []string
	for t := range r.DominantTypeCounts {
		dominantTypes = append(dominantTypes, t)
	}
	for _, t := range common.Sort(dominantTypes) {
		rows = append(rows, [2]string{"cells dominated by " + t, fmt.Sprintf("%d", r.DominantTypeCounts[t])})
	}

	for _, row := range rows {
		_, err := fmt.Fprintf(tableWriter, "%s\t%s\n", row[0], row[1])
		if err != nil {
			return err
		}
	}

	return tableWriter.Flush()
}
