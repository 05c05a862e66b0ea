package common

import (
	"math"

	"github.com/paulmach/orb"
)

// CellIndex is the column and row of a cell within a uniform grid. The column grows along the x-axis, the row along
// the y-axis.
type CellIndex [2]int

// GetCellIndexForCoordinate returns the index of the cell containing the given coordinate. The grid starts at the
// given origin. Coordinates exactly on a grid line belong to the cell right of (or above) that line.
func GetCellIndexForCoordinate(x float64, y float64, origin orb.Point, cellSize float64) CellIndex {
	return CellIndex{
		int(math.Floor((x - origin.X()) / cellSize)),
		int(math.Floor((y - origin.Y()) / cellSize)),
	}
}

func (c CellIndex) X() int { return c[0] }

func (c CellIndex) Y() int { return c[1] }

func (c CellIndex) isBelowOrLeftOf(other CellIndex) bool {
	return c.X() < other.X() || c.Y() < other.Y()
}

func (c CellIndex) isAboveOrRightOf(other CellIndex) bool {
	return c.X() > other.X() || c.Y() > other.Y()
}

// ToPoint returns the lower left corner of the cell.
func (c CellIndex) ToPoint(origin orb.Point, cellSize float64) orb.Point {
	return orb.Point{
		origin.X() + float64(c[0])*cellSize,
		origin.Y() + float64(c[1])*cellSize,
	}
}

// ToBound returns the axis-aligned rectangle covered by the cell.
func (c CellIndex) ToBound(origin orb.Point, cellSize float64) orb.Bound {
	lowerLeft := c.ToPoint(origin, cellSize)
	upperRight := CellIndex{c[0] + 1, c[1] + 1}.ToPoint(origin, cellSize)
	return orb.Bound{Min: lowerLeft, Max: upperRight}
}

// CellExtent is a rectangular block of cells. Both corners are inclusive.
type CellExtent [2]CellIndex

// GetCellExtentForBound returns the block of cells touched by the given bound.
func GetCellExtentForBound(bound orb.Bound, origin orb.Point, cellSize float64) CellExtent {
	return CellExtent{
		GetCellIndexForCoordinate(bound.Min.X(), bound.Min.Y(), origin, cellSize),
		GetCellIndexForCoordinate(bound.Max.X(), bound.Max.Y(), origin, cellSize),
	}
}

func (c CellExtent) LowerLeftCell() CellIndex { return c[0] }

func (c CellExtent) UpperRightCell() CellIndex { return c[1] }

func (c CellExtent) Expand(cell CellIndex) CellExtent {
	if c.Contains(cell) {
		return c
	}

	minX := min(c.LowerLeftCell().X(), cell.X())
	minY := min(c.LowerLeftCell().Y(), cell.Y())
	maxX := max(c.UpperRightCell().X(), cell.X())
	maxY := max(c.UpperRightCell().Y(), cell.Y())

	return CellExtent{
		CellIndex{minX, minY},
		CellIndex{maxX, maxY},
	}
}

func (c CellExtent) Contains(cell CellIndex) bool {
	return !cell.isAboveOrRightOf(c.UpperRightCell()) && !cell.isBelowOrLeftOf(c.LowerLeftCell())
}

// Columns returns the number of cell columns of this extent.
func (c CellExtent) Columns() int {
	return c.UpperRightCell().X() - c.LowerLeftCell().X() + 1
}

// Rows returns the number of cell rows of this extent.
func (c CellExtent) Rows() int {
	return c.UpperRightCell().Y() - c.LowerLeftCell().Y() + 1
}

// GetCellIndices returns all cells of this extent in column-major order (all rows of the first column, then all rows of
// the second column and so on).
func (c CellExtent) GetCellIndices() []CellIndex {
	var indices []CellIndex

	for x := c.LowerLeftCell().X(); x <= c.UpperRightCell().X(); x++ {
		for y := c.LowerLeftCell().Y(); y <= c.UpperRightCell().Y(); y++ {
			indices = append(indices, CellIndex{x, y})
		}
	}

	return indices
}

func (c CellExtent) ToBound(origin orb.Point, cellSize float64) orb.Bound {
	lowerLeft := c.LowerLeftCell().ToBound(origin, cellSize)
	upperRight := c.UpperRightCell().ToBound(origin, cellSize)
	return lowerLeft.Union(upperRight)
}
