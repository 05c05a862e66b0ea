package io

import (
	"io"
	"os"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"osmgrid/common"
	"osmgrid/geo"
	"osmgrid/grid"
	"osmgrid/util"
)

const gridBinaryVersion = 1

var (
	cellBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "Number", BinaryType: util.DatatypeInt32},
			&util.BinaryDataItem{FieldName: "Column", BinaryType: util.DatatypeInt32},
			&util.BinaryDataItem{FieldName: "Row", BinaryType: util.DatatypeInt32},
			&util.BinaryDataItem{FieldName: "MinX", BinaryType: util.DatatypeFloat64},
			&util.BinaryDataItem{FieldName: "MinY", BinaryType: util.DatatypeFloat64},
			&util.BinaryDataItem{FieldName: "MaxX", BinaryType: util.DatatypeFloat64},
			&util.BinaryDataItem{FieldName: "MaxY", BinaryType: util.DatatypeFloat64},
		},
	}

	gridBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "Version", BinaryType: util.DatatypeByte},
			&util.BinaryRawCollectionItem{FieldName: "RunId", BinaryType: util.DatatypeByte},
			&util.BinaryRawCollectionItem{FieldName: "Crs", BinaryType: util.DatatypeByte},
			&util.BinaryDataItem{FieldName: "CellSize", BinaryType: util.DatatypeFloat64},
			&util.BinaryCollectionItem{FieldName: "Cells", ItemSchema: cellBinarySchema},
		},
	}
)

type gridDao struct {
	Version  uint8
	RunId    []byte
	Crs      []byte
	CellSize float64
	Cells    []cellDao
}

type cellDao struct {
	Number int
	Column int
	Row    int
	MinX   float64
	MinY   float64
	MaxX   float64
	MaxY   float64
}

// WriteGridBinaryFile writes the grid in the compact binary format to the given file.
func WriteGridBinaryFile(g *grid.Grid, filename string) error {
	return writeFile(filename, func(writer io.Writer) error {
		return WriteGridBinary(g, writer)
	})
}

// WriteGridBinary writes the grid in the compact binary format. All numbers are little endian, bounds are stored as
// 64 bit floats so reading the grid back results in identical cells.
func WriteGridBinary(g *grid.Grid, writer io.Writer) error {
	sigolo.Debugf("Write grid with %d cells as binary", len(g.Cells))
	writeStartTime := time.Now()

	dao := gridDao{
		Version:  gridBinaryVersion,
		RunId:    []byte(g.RunID),
		Crs:      []byte(g.CRS),
		CellSize: g.CellSize,
		Cells:    make([]cellDao, len(g.Cells)),
	}
	for i, cell := range g.Cells {
		dao.Cells[i] = cellDao{
			Number: cell.Number,
			Column: cell.Index.X(),
			Row:    cell.Index.Y(),
			MinX:   cell.Bounds.Min.X(),
			MinY:   cell.Bounds.Min.Y(),
			MaxX:   cell.Bounds.Max.X(),
			MaxY:   cell.Bounds.Max.Y(),
		}
	}

	size, err := gridBinarySchema.Size(dao)
	if err != nil {
		return err
	}

	data := make([]byte, size)
	_, err = gridBinarySchema.Write(dao, data, 0)
	if err != nil {
		return errors.Wrap(err, "Unable to encode grid")
	}

	_, err = writer.Write(data)
	if err != nil {
		return errors.Wrap(err, "Unable to write binary grid")
	}

	sigolo.Debugf("Wrote %d bytes in %s", size, time.Since(writeStartTime))
	return nil
}

// ReadGridBinaryFile reads a grid written by WriteGridBinaryFile.
func ReadGridBinaryFile(filename string) (*grid.Grid, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open binary grid file %s", filename)
	}
	defer file.Close()

	return ReadGridBinary(file)
}

// ReadGridBinary reads a grid written by WriteGridBinary.
func ReadGridBinary(reader io.Reader) (*grid.Grid, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read binary grid")
	}

	if len(data) == 0 || data[0] != gridBinaryVersion {
		return nil, errors.Errorf("Unsupported binary grid format, expected version %d", gridBinaryVersion)
	}

	dao := &gridDao{}
	index, err := gridBinarySchema.Read(dao, data, 0)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode binary grid")
	}
	if index != len(data) {
		return nil, errors.Errorf("Binary grid contains %d unexpected trailing bytes", len(data)-index)
	}

	g := &grid.Grid{
		RunID:    string(dao.RunId),
		CRS:      geo.CRS(dao.Crs),
		CellSize: dao.CellSize,
		Cells:    make([]*grid.Cell, len(dao.Cells)),
	}
	for i, cell := range dao.Cells {
		bounds := orb.Bound{
			Min: orb.Point{cell.MinX, cell.MinY},
			Max: orb.Point{cell.MaxX, cell.MaxY},
		}
		g.Cells[i] = grid.NewCell(cell.Number, common.CellIndex{cell.Column, cell.Row}, bounds)
	}

	return g, nil
}
