package common

import (
	"testing"

	"github.com/paulmach/orb"
	"osmgrid/util"
)

func TestCellIndex_isBelowOrLeftOf(t *testing.T) {
	cell := CellIndex{10, 10}
	/*
		[ 9,11]   [10,11]   [11,11]

		[ 9,10]   [10,10]   [11,10]

		[ 9, 9]   [10, 9]   [11, 9]
	*/

	util.AssertTrue(t, cell.isBelowOrLeftOf(CellIndex{9, 11}))
	util.AssertFalse(t, cell.isBelowOrLeftOf(CellIndex{9, 10}))
	util.AssertFalse(t, cell.isBelowOrLeftOf(CellIndex{9, 9}))

	util.AssertTrue(t, cell.isBelowOrLeftOf(CellIndex{10, 11}))
	util.AssertFalse(t, cell.isBelowOrLeftOf(CellIndex{10, 10}))
	util.AssertFalse(t, cell.isBelowOrLeftOf(CellIndex{10, 9}))

	util.AssertTrue(t, cell.isBelowOrLeftOf(CellIndex{11, 11}))
	util.AssertTrue(t, cell.isBelowOrLeftOf(CellIndex{11, 10}))
	util.AssertTrue(t, cell.isBelowOrLeftOf(CellIndex{11, 9}))
}

func TestCellIndex_isAboveOrRightOf(t *testing.T) {
	cell := CellIndex{10, 10}

	util.AssertTrue(t, cell.isAboveOrRightOf(CellIndex{9, 11}))
	util.AssertTrue(t, cell.isAboveOrRightOf(CellIndex{9, 10}))
	util.AssertTrue(t, cell.isAboveOrRightOf(CellIndex{9, 9}))

	util.AssertFalse(t, cell.isAboveOrRightOf(CellIndex{10, 11}))
	util.AssertFalse(t, cell.isAboveOrRightOf(CellIndex{10, 10}))
	util.AssertTrue(t, cell.isAboveOrRightOf(CellIndex{10, 9}))

	util.AssertFalse(t, cell.isAboveOrRightOf(CellIndex{11, 11}))
	util.AssertFalse(t, cell.isAboveOrRightOf(CellIndex{11, 10}))
	util.AssertTrue(t, cell.isAboveOrRightOf(CellIndex{11, 9}))
}

func TestGetCellIndexForCoordinate(t *testing.T) {
	origin := orb.Point{1000, 2000}

	util.AssertEqual(t, CellIndex{0, 0}, GetCellIndexForCoordinate(1000, 2000, origin, 100))
	util.AssertEqual(t, CellIndex{0, 0}, GetCellIndexForCoordinate(1099.9, 2099.9, origin, 100))
	util.AssertEqual(t, CellIndex{1, 2}, GetCellIndexForCoordinate(1100, 2250, origin, 100))
	util.AssertEqual(t, CellIndex{-1, -1}, GetCellIndexForCoordinate(999.9, 1950, origin, 100))
}

func TestCellIndex_ToBound(t *testing.T) {
	// Act
	bound := CellIndex{2, 1}.ToBound(orb.Point{1000, 2000}, 100)

	// Assert
	util.AssertEqual(t, orb.Bound{Min: orb.Point{1200, 2100}, Max: orb.Point{1300, 2200}}, bound)
}

func TestCellExtent_expand(t *testing.T) {
	extent := CellExtent{CellIndex{10, 10}, CellIndex{20, 20}}

	util.AssertEqual(t, extent, extent.Expand(CellIndex{10, 10}))
	util.AssertEqual(t, extent, extent.Expand(CellIndex{15, 15}))
	util.AssertEqual(t, extent, extent.Expand(CellIndex{20, 20}))

	util.AssertEqual(t, CellExtent{CellIndex{9, 9}, CellIndex{20, 20}}, extent.Expand(CellIndex{9, 9}))
	util.AssertEqual(t, CellExtent{CellIndex{10, 10}, CellIndex{21, 21}}, extent.Expand(CellIndex{21, 21}))
	util.AssertEqual(t, CellExtent{CellIndex{9, 10}, CellIndex{20, 21}}, extent.Expand(CellIndex{9, 21}))
	util.AssertEqual(t, CellExtent{CellIndex{10, 9}, CellIndex{21, 20}}, extent.Expand(CellIndex{21, 9}))
}

func TestCellExtent_contains(t *testing.T) {
	extent := CellExtent{CellIndex{10, 10}, CellIndex{20, 20}}

	// Corners
	util.AssertTrue(t, extent.Contains(CellIndex{10, 10}))
	util.AssertTrue(t, extent.Contains(CellIndex{20, 20}))
	util.AssertTrue(t, extent.Contains(CellIndex{10, 20}))
	util.AssertTrue(t, extent.Contains(CellIndex{20, 10}))
	util.AssertTrue(t, extent.Contains(CellIndex{15, 15}))

	util.AssertFalse(t, extent.Contains(CellIndex{9, 10}))
	util.AssertFalse(t, extent.Contains(CellIndex{10, 9}))
	util.AssertFalse(t, extent.Contains(CellIndex{21, 20}))
	util.AssertFalse(t, extent.Contains(CellIndex{20, 21}))
}

func TestGetCellExtentForBound(t *testing.T) {
	// Arrange
	bound := orb.Bound{Min: orb.Point{1050, 2050}, Max: orb.Point{1250, 2100}}

	// Act
	extent := GetCellExtentForBound(bound, orb.Point{1000, 2000}, 100)

	// Assert
	util.AssertEqual(t, CellExtent{CellIndex{0, 0}, CellIndex{2, 1}}, extent)
	util.AssertEqual(t, 3, extent.Columns())
	util.AssertEqual(t, 2, extent.Rows())
	util.AssertEqual(t, orb.Bound{Min: orb.Point{1000, 2000}, Max: orb.Point{1300, 2200}}, extent.ToBound(orb.Point{1000, 2000}, 100))
}

func TestCellExtent_GetCellIndices(t *testing.T) {
	// Arrange
	extent := CellExtent{CellIndex{1, 5}, CellIndex{2, 7}}

	// Act
	indices := extent.GetCellIndices()

	// Assert
	util.AssertEqual(t, []CellIndex{{1, 5}, {1, 6}, {1, 7}, {2, 5}, {2, 6}, {2, 7}}, indices)
}
