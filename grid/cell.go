package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"osmgrid/common"
)

const cellIdPrefix = "cell_"

// Cell is one square of the grid. Cells are immutable once the grid has been built.
type Cell struct {
	ID       string
	Number   int              // Running number of the cell within its build run, also part of the ID
	Index    common.CellIndex // Column and row of the cell relative to the lower left corner of the region
	Bounds   orb.Bound
	Geometry orb.Polygon
}

func NewCell(number int, index common.CellIndex, bounds orb.Bound) *Cell {
	return &Cell{
		ID:       FormatCellId(number),
		Number:   number,
		Index:    index,
		Bounds:   bounds,
		Geometry: bounds.ToPolygon(),
	}
}

// Area returns the area of the cell in square meters.
func (c *Cell) Area() float64 {
	return (c.Bounds.Max.X() - c.Bounds.Min.X()) * (c.Bounds.Max.Y() - c.Bounds.Min.Y())
}

func FormatCellId(number int) string {
	return fmt.Sprintf("%s%d", cellIdPrefix, number)
}

// ParseCellId returns the running number of the given cell ID.
func ParseCellId(id string) (int, error) {
	if !strings.HasPrefix(id, cellIdPrefix) {
		return -1, errors.Errorf("Cell ID '%s' does not start with '%s'", id, cellIdPrefix)
	}

	number, err := strconv.Atoi(strings.TrimPrefix(id, cellIdPrefix))
	if err != nil || number < 0 {
		return -1, errors.Errorf("Cell ID '%s' does not end with a cell number", id)
	}
	return number, nil
}
