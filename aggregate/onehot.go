package aggregate

import (
	"strings"

	"osmgrid/common"
)

const dominantBuildingTypeColumnPrefix = "dominant_building_type_"

// OneHotEncoding is the dominant building type of each cell as indicator columns. There is one column per observed
// type, row i belongs to CellIDs[i] and has exactly one column set to 1.
type OneHotEncoding struct {
	Types   []string // Observed dominant building types in natural sort order
	CellIDs []string
	Rows    [][]int
}

// EncodeDominantBuildingTypes turns the dominant building types of the summaries into a one-hot encoding. Cells without
// buildings have the "unknown" type, which is encoded like any other type.
func EncodeDominantBuildingTypes(summaries []*CellSummary) *OneHotEncoding {
	typeSet := map[string]bool{}
	for _, summary := range summaries {
		typeSet[strings.TrimSpace(summary.DominantBuildingType)] = true
	}

	var types []string
	for t := range typeSet {
		types = append(types, t)
	}
	types = common.Sort(types)

	typeToColumn := make(map[string]int, len(types))
	for i, t := range types {
		typeToColumn[t] = i
	}

	encoding := &OneHotEncoding{
		Types:   types,
		CellIDs: make([]string, len(summaries)),
		Rows:    make([][]int, len(summaries)),
	}
	for i, summary := range summaries {
		row := make([]int, len(types))
		row[typeToColumn[strings.TrimSpace(summary.DominantBuildingType)]] = 1

		encoding.CellIDs[i] = summary.CellID
		encoding.Rows[i] = row
	}

	return encoding
}

// ColumnNames returns the column names in the form "dominant_building_type_<type>".
func (e *OneHotEncoding) ColumnNames() []string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = dominantBuildingTypeColumnPrefix + t
	}
	return names
}

// Get returns the row of the given cell.
func (e *OneHotEncoding) Get(cellId string) ([]int, bool) {
	for i, id := range e.CellIDs {
		if id == cellId {
			return e.Rows[i], true
		}
	}
	return nil, false
}
