package grid

import (
	"math"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"osmgrid/common"
	"osmgrid/geo"
)

// Build partitions the bounding box of the region into square cells of the given size and keeps every cell whose
// centroid lies within the region or that overlaps the region. Cells are generated column by column (x first, then y)
// and numbered in that order starting at "cell_0".
//
// The cell size must be positive and the region must use a linear coordinate reference, otherwise an
// *geo.InvalidInputError is returned. An empty region results in an empty cell list.
func Build(region *geo.Region, cellSize float64) ([]*Cell, error) {
	if region == nil {
		return nil, geo.NewInvalidInputError("No region given")
	}
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, geo.NewInvalidInputError("Cell size must be a positive number but was %f", cellSize)
	}
	err := region.CRS.RequireLinear()
	if err != nil {
		return nil, err
	}

	if region.IsEmpty() {
		sigolo.Infof("Region is empty, no grid cells will be created")
		return []*Cell{}, nil
	}

	bound := region.Bound()
	origin := bound.Min
	extent := getCoveringExtent(bound, cellSize)

	sigolo.Infof("Build grid with %dx%d candidate cells of size %.2fm", extent.Columns(), extent.Rows(), cellSize)
	buildStartTime := time.Now()

	var cells []*Cell
	for x := 0; x < extent.Columns(); x++ {
		columnBound := common.CellExtent{
			common.CellIndex{x, 0},
			common.CellIndex{x, extent.Rows() - 1},
		}.ToBound(origin, cellSize)

		// The overlap of a cell with the region equals its overlap with the part of the region in the cell's
		// column. Clipping once per column keeps the per-cell clipping cheap for large and detailed regions.
		columnRegion := region.ClipToBound(columnBound)
		if columnRegion.IsEmpty() {
			sigolo.Tracef("Column %d does not overlap the region", x)
			continue
		}

		for y := 0; y < extent.Rows(); y++ {
			index := common.CellIndex{x, y}
			cellBound := index.ToBound(origin, cellSize)

			if region.Contains(cellBound.Center()) || columnRegion.OverlapArea(cellBound) > 0 {
				cells = append(cells, NewCell(len(cells), index, cellBound))
			}
		}
	}

	sigolo.Infof("Created %d grid cells in %s", len(cells), time.Since(buildStartTime))

	if cells == nil {
		return []*Cell{}, nil
	}
	return cells, nil
}

// getCoveringExtent returns the cell extent starting at the lower left corner of the bound and reaching up to or
// beyond its upper right corner.
func getCoveringExtent(bound orb.Bound, cellSize float64) common.CellExtent {
	columns := int(math.Ceil((bound.Max.X() - bound.Min.X()) / cellSize))
	rows := int(math.Ceil((bound.Max.Y() - bound.Min.Y()) / cellSize))

	// Regions with an extent of exactly zero in one direction still get one line of cells.
	columns = max(columns, 1)
	rows = max(rows, 1)

	return common.CellExtent{
		common.CellIndex{0, 0},
		common.CellIndex{columns - 1, rows - 1},
	}
}
