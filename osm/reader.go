package osm

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"osmgrid/geo"
)

// OsmDataHandler receives the objects of an OSM file in the order they appear in the file, which is nodes first, then
// ways and relations.
type OsmDataHandler interface {
	Name() string
	Init() error
	HandleNode(node *osm.Node) error
	HandleWay(way *osm.Way) error
	HandleRelation(relation *osm.Relation) error
	Done() error
}

type OsmReader struct {
	firstWayHasBeenProcessed      bool
	firstRelationHasBeenProcessed bool
}

func NewOsmReader() *OsmReader {
	return &OsmReader{}
}

// Read passes all objects of the given .osm or .pbf file to the handlers.
func (r *OsmReader) Read(ctx context.Context, filename string, handlers ...OsmDataHandler) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to open OSM input file %s", filename)
	}
	defer f.Close()

	var scanner osm.Scanner
	switch {
	case strings.HasSuffix(filename, ".osm"):
		scanner = osmxml.New(ctx, f)
	case strings.HasSuffix(filename, ".pbf"):
		scanner = osmpbf.New(ctx, f, 1)
	default:
		return geo.NewInvalidInputError("Input file %s must be an .osm or .pbf file", filename)
	}

	sigolo.Infof("Start processing OSM data file %s", filename)
	return r.scan(scanner, handlers)
}

// ReadXml passes all objects of the OSM XML data to the handlers.
func (r *OsmReader) ReadXml(ctx context.Context, reader io.Reader, handlers ...OsmDataHandler) error {
	return r.scan(osmxml.New(ctx, reader), handlers)
}

func (r *OsmReader) scan(scanner osm.Scanner, handlers []OsmDataHandler) error {
	defer scanner.Close()
	importStartTime := time.Now()

	var err error
	for _, handler := range handlers {
		err = handler.Init()
		if err != nil {
			return errors.Wrapf(err, "Initializing OSM data handler '%s' failed", handler.Name())
		}
	}

	sigolo.Debug("Start processing nodes (1/3)")
	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			for _, handler := range handlers {
				err = handler.HandleNode(osmObj)
				if err != nil {
					return errors.Wrapf(err, "Handling node %d using handler '%s' failed", osmObj.ID, handler.Name())
				}
			}
		case *osm.Way:
			if !r.firstWayHasBeenProcessed {
				sigolo.Debug("Start processing ways (2/3)")
				r.firstWayHasBeenProcessed = true
			}

			for _, handler := range handlers {
				err = handler.HandleWay(osmObj)
				if err != nil {
					return errors.Wrapf(err, "Handling way %d using handler '%s' failed", osmObj.ID, handler.Name())
				}
			}
		case *osm.Relation:
			if !r.firstRelationHasBeenProcessed {
				sigolo.Debug("Start processing relations (3/3)")
				r.firstRelationHasBeenProcessed = true
			}

			for _, handler := range handlers {
				err = handler.HandleRelation(osmObj)
				if err != nil {
					return errors.Wrapf(err, "Handling relation %d using handler '%s' failed", osmObj.ID, handler.Name())
				}
			}
		}
	}

	err = scanner.Err()
	if err != nil {
		return errors.Wrapf(err, "Unable to read OSM data")
	}

	for _, handler := range handlers {
		err = handler.Done()
		if err != nil {
			return errors.Wrapf(err, "Calling done function on handler '%s' failed", handler.Name())
		}
	}

	sigolo.Infof("Done processing OSM data in %s", time.Since(importStartTime))

	return nil
}
