package aggregate

import (
	"math"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"osmgrid/common"
	"osmgrid/grid"
)

// cellLookup finds the cells a feature might touch. Cells built by the grid builder lie on a uniform lattice, so the
// candidates of a bound can be determined by their cell index. Any other cell list falls back to checking all cells.
type cellLookup struct {
	origin    orb.Point
	cellSize  float64
	positions map[common.CellIndex][]int // Positions of the cells within the input cell list
	extent    common.CellExtent          // Block of all known cell indices
	uniform   bool
	cellCount int

	// Cells without right or top neighbor, they own the respective edge
	ownsRightEdge []bool
	ownsTopEdge   []bool
}

func newCellLookup(cells []*grid.Cell) *cellLookup {
	lookup := &cellLookup{
		positions: map[common.CellIndex][]int{},
		cellCount: len(cells),
	}
	if len(cells) == 0 {
		return lookup
	}

	first := cells[0]
	lookup.cellSize = first.Bounds.Max.X() - first.Bounds.Min.X()
	lookup.origin = orb.Point{
		first.Bounds.Min.X() - float64(first.Index.X())*lookup.cellSize,
		first.Bounds.Min.Y() - float64(first.Index.Y())*lookup.cellSize,
	}
	lookup.uniform = lookup.cellSize > 0

	tolerance := lookup.cellSize * 1e-6
	for i, cell := range cells {
		if !lookup.uniform {
			break
		}

		expectedBound := cell.Index.ToBound(lookup.origin, lookup.cellSize)
		if !boundsAlmostEqual(expectedBound, cell.Bounds, tolerance) {
			lookup.uniform = false
			break
		}

		lookup.positions[cell.Index] = append(lookup.positions[cell.Index], i)
		if i == 0 {
			lookup.extent = common.CellExtent{cell.Index, cell.Index}
		} else {
			lookup.extent = lookup.extent.Expand(cell.Index)
		}
	}

	if !lookup.uniform {
		sigolo.Debugf("Cells are not on a uniform lattice, every feature is checked against all %d cells", len(cells))
		lookup.positions = nil
	}

	lookup.ownsRightEdge = make([]bool, len(cells))
	lookup.ownsTopEdge = make([]bool, len(cells))
	for i, cell := range cells {
		if lookup.uniform {
			_, hasRightNeighbor := lookup.positions[common.CellIndex{cell.Index.X() + 1, cell.Index.Y()}]
			_, hasTopNeighbor := lookup.positions[common.CellIndex{cell.Index.X(), cell.Index.Y() + 1}]
			lookup.ownsRightEdge[i] = !hasRightNeighbor
			lookup.ownsTopEdge[i] = !hasTopNeighbor
		} else {
			lookup.ownsRightEdge[i], lookup.ownsTopEdge[i] = ownsEdgesWithoutLattice(cell, cells)
		}
	}

	return lookup
}

// ownsEdgesWithoutLattice searches the cell list for cells adjoining the right or top edge of the given cell. Any
// adjoining cell takes the edge, even when it covers only a part of it.
func ownsEdgesWithoutLattice(cell *grid.Cell, cells []*grid.Cell) (bool, bool) {
	ownsRightEdge := true
	ownsTopEdge := true
	for _, other := range cells {
		if other.Bounds.Min.X() == cell.Bounds.Max.X() && other.Bounds.Min.Y() < cell.Bounds.Max.Y() && other.Bounds.Max.Y() > cell.Bounds.Min.Y() {
			ownsRightEdge = false
		}
		if other.Bounds.Min.Y() == cell.Bounds.Max.Y() && other.Bounds.Min.X() < cell.Bounds.Max.X() && other.Bounds.Max.X() > cell.Bounds.Min.X() {
			ownsTopEdge = false
		}
	}
	return ownsRightEdge, ownsTopEdge
}

// ownsEdges returns whether the cell at the given position owns its right and top edge.
func (l *cellLookup) ownsEdges(position int) (bool, bool) {
	return l.ownsRightEdge[position], l.ownsTopEdge[position]
}

// getCandidates returns the positions of all cells that might touch the given bound. The result is a superset of the
// touched cells.
func (l *cellLookup) getCandidates(bound orb.Bound) []int {
	if !l.uniform {
		candidates := make([]int, l.cellCount)
		for i := range candidates {
			candidates[i] = i
		}
		return candidates
	}

	extent := common.GetCellExtentForBound(bound, l.origin, l.cellSize)

	// Features on a grid line touch the cells on both sides of it.
	extent = extent.
		Expand(common.CellIndex{extent.LowerLeftCell().X() - 1, extent.LowerLeftCell().Y() - 1}).
		Expand(common.CellIndex{extent.UpperRightCell().X() + 1, extent.UpperRightCell().Y() + 1})
	extent, ok := intersectExtents(extent, l.extent)
	if !ok {
		return nil
	}

	var candidates []int
	for _, index := range extent.GetCellIndices() {
		candidates = append(candidates, l.positions[index]...)
	}
	return candidates
}

func boundsAlmostEqual(a orb.Bound, b orb.Bound, tolerance float64) bool {
	return math.Abs(a.Min.X()-b.Min.X()) <= tolerance &&
		math.Abs(a.Min.Y()-b.Min.Y()) <= tolerance &&
		math.Abs(a.Max.X()-b.Max.X()) <= tolerance &&
		math.Abs(a.Max.Y()-b.Max.Y()) <= tolerance
}

func intersectExtents(a common.CellExtent, b common.CellExtent) (common.CellExtent, bool) {
	lowerLeft := common.CellIndex{
		max(a.LowerLeftCell().X(), b.LowerLeftCell().X()),
		max(a.LowerLeftCell().Y(), b.LowerLeftCell().Y()),
	}
	upperRight := common.CellIndex{
		min(a.UpperRightCell().X(), b.UpperRightCell().X()),
		min(a.UpperRightCell().Y(), b.UpperRightCell().Y()),
	}
	if lowerLeft.X() > upperRight.X() || lowerLeft.Y() > upperRight.Y() {
		return common.CellExtent{}, false
	}
	return common.CellExtent{lowerLeft, upperRight}, true
}
