package grid

import (
	"github.com/google/uuid"
	"osmgrid/geo"
)

// Grid is the result of one build run. Cell IDs are only unique within one grid, the RunID distinguishes grids of
// different runs.
type Grid struct {
	RunID    string
	CRS      geo.CRS
	CellSize float64
	Cells    []*Cell
}

func NewGrid(cells []*Cell, crs geo.CRS, cellSize float64) *Grid {
	return &Grid{
		RunID:    uuid.NewString(),
		CRS:      crs.Normalize(),
		CellSize: cellSize,
		Cells:    cells,
	}
}

// BuildGrid builds the cells for the region and wraps them in a new grid with a fresh run ID.
func BuildGrid(region *geo.Region, cellSize float64) (*Grid, error) {
	cells, err := Build(region, cellSize)
	if err != nil {
		return nil, err
	}
	return NewGrid(cells, region.CRS, cellSize), nil
}

// GetCell returns the cell with the given ID or nil if this grid has no such cell.
func (g *Grid) GetCell(id string) *Cell {
	number, err := ParseCellId(id)
	if err != nil {
		return nil
	}

	// Cells are numbered in generation order, so the number usually is the position.
	if number < len(g.Cells) && g.Cells[number].ID == id {
		return g.Cells[number]
	}
	for _, cell := range g.Cells {
		if cell.ID == id {
			return cell
		}
	}
	return nil
}
