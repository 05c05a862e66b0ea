package importing

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"osmgrid/aggregate"
	"osmgrid/feature"
	"osmgrid/geo"
	"osmgrid/grid"
	ownIo "osmgrid/io"
	"osmgrid/osm"
	"osmgrid/storage"
)

const (
	GridGeoJsonFile      = "grid.geojson"
	GridBinaryFile       = "grid.bin"
	SummaryGeoJsonFile   = "summaries.geojson"
	osmDataCrs           = geo.WGS84
	runFolderPermissions = 0755
)

// Pipeline runs the steps of building a grid and aggregating features into it. Grids and summaries are stored in the
// database, files are written into one folder per run below DataDir.
type Pipeline struct {
	Store   *storage.Store
	DataDir string
}

func NewPipeline(store *storage.Store, dataDir string) *Pipeline {
	return &Pipeline{
		Store:   store,
		DataDir: dataDir,
	}
}

// BuildGrid reads the region from the GeoJSON file, builds the grid in the target reference and persists it. The
// region is projected when its reference differs from the target reference.
func (p *Pipeline) BuildGrid(ctx context.Context, regionFile string, regionCrs geo.CRS, targetCrs geo.CRS, cellSize float64) (*grid.Grid, error) {
	sigolo.Infof("Build grid for region %s with cell size %.2fm", regionFile, cellSize)
	buildStartTime := time.Now()

	region, err := ownIo.ReadRegion(regionFile, regionCrs, targetCrs)
	if err != nil {
		return nil, err
	}

	g, err := grid.BuildGrid(region, cellSize)
	if err != nil {
		return nil, err
	}

	runFolder, err := p.createRunFolder(g.RunID)
	if err != nil {
		return nil, err
	}

	err = ownIo.WriteGridAsGeoJsonFile(g, path.Join(runFolder, GridGeoJsonFile))
	if err != nil {
		return nil, err
	}

	err = ownIo.WriteGridBinaryFile(g, path.Join(runFolder, GridBinaryFile))
	if err != nil {
		return nil, err
	}

	err = p.Store.SaveGrid(ctx, g)
	if err != nil {
		return nil, err
	}

	sigolo.Infof("Built grid %s with %d cells in %s", g.RunID, len(g.Cells), time.Since(buildStartTime))
	return g, nil
}

// Aggregate loads the features of the input file, aggregates them into the cells of the given run and persists the
// result. OSM files (.osm, .pbf) are always in WGS84, GeoJSON files are in inputCrs or, if empty, already in the
// reference of the grid.
func (p *Pipeline) Aggregate(ctx context.Context, inputFile string, inputCrs geo.CRS, runId string) (*grid.Grid, *aggregate.Result, error) {
	runId, err := p.Store.ResolveRunID(ctx, runId)
	if err != nil {
		return nil, nil, err
	}

	g, err := p.Store.LoadGrid(ctx, runId)
	if err != nil {
		return nil, nil, err
	}

	result, err := p.aggregateIntoGrid(ctx, g, inputFile, inputCrs)
	if err != nil {
		return nil, nil, err
	}
	return g, result, nil
}

// AggregateIntoGridFile works like Aggregate but takes the grid from a grid file (grid.bin or grid GeoJSON) written by
// BuildGrid. Grids unknown to the database are stored first.
func (p *Pipeline) AggregateIntoGridFile(ctx context.Context, inputFile string, inputCrs geo.CRS, gridFile string) (*grid.Grid, *aggregate.Result, error) {
	g, err := ReadGridFile(gridFile)
	if err != nil {
		return nil, nil, err
	}

	_, err = p.Store.LoadGrid(ctx, g.RunID)
	if errors.Is(err, storage.ErrRunNotFound) {
		sigolo.Infof("Store grid %s of file %s", g.RunID, gridFile)
		err = p.Store.SaveGrid(ctx, g)
	}
	if err != nil {
		return nil, nil, err
	}

	result, err := p.aggregateIntoGrid(ctx, g, inputFile, inputCrs)
	if err != nil {
		return nil, nil, err
	}
	return g, result, nil
}

// ReadGridFile reads a binary grid file (.bin) or a grid GeoJSON file (.geojson, .json).
func ReadGridFile(gridFile string) (*grid.Grid, error) {
	lowerGridFile := strings.ToLower(gridFile)

	switch {
	case strings.HasSuffix(lowerGridFile, ".bin"):
		return ownIo.ReadGridBinaryFile(gridFile)
	case strings.HasSuffix(lowerGridFile, ".geojson"), strings.HasSuffix(lowerGridFile, ".json"):
		return ownIo.ReadGridFromGeoJsonFile(gridFile)
	}

	return nil, geo.NewInvalidInputError("Grid file %s must be a .bin or .geojson file", gridFile)
}

func (p *Pipeline) aggregateIntoGrid(ctx context.Context, g *grid.Grid, inputFile string, inputCrs geo.CRS) (*aggregate.Result, error) {
	sigolo.Infof("Aggregate features of %s into grid %s", inputFile, g.RunID)
	aggregateStartTime := time.Now()

	buildings, pois, roads, err := p.loadFeatures(ctx, inputFile, inputCrs, g.CRS)
	if err != nil {
		return nil, err
	}

	result := aggregate.Aggregate(g.Cells, buildings, pois, roads)

	err = p.Store.SaveSummaries(ctx, g.RunID, result)
	if err != nil {
		return nil, err
	}

	runFolder, err := p.createRunFolder(g.RunID)
	if err != nil {
		return nil, err
	}

	err = ownIo.WriteSummariesAsGeoJsonFile(g, result.Summaries, path.Join(runFolder, SummaryGeoJsonFile))
	if err != nil {
		return nil, err
	}

	sigolo.Infof("Finished aggregation of grid %s in %s", g.RunID, time.Since(aggregateStartTime))
	return result, nil
}

// DeleteRun removes the grid and summaries of the run from the database together with its run folder.
func (p *Pipeline) DeleteRun(ctx context.Context, runId string) (string, error) {
	runId, err := p.Store.ResolveRunID(ctx, runId)
	if err != nil {
		return "", err
	}

	err = p.Store.DeleteRun(ctx, runId)
	if err != nil {
		return "", err
	}

	runFolder := path.Join(p.DataDir, runId)
	err = os.RemoveAll(runFolder)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to remove folder %s", runFolder)
	}

	sigolo.Infof("Deleted run %s", runId)
	return runId, nil
}

// Report creates the report of the stored summaries of the given run.
func (p *Pipeline) Report(ctx context.Context, runId string) (*aggregate.Report, error) {
	runId, err := p.Store.ResolveRunID(ctx, runId)
	if err != nil {
		return nil, err
	}

	g, err := p.Store.LoadGrid(ctx, runId)
	if err != nil {
		return nil, err
	}

	result, err := p.Store.LoadSummaries(ctx, runId)
	if err != nil {
		return nil, err
	}

	return aggregate.NewReport(g.Cells, result), nil
}

func (p *Pipeline) loadFeatures(ctx context.Context, inputFile string, inputCrs geo.CRS, targetCrs geo.CRS) (buildings []*feature.Feature, pois []*feature.Feature, roads []*feature.Feature, err error) {
	lowerInputFile := strings.ToLower(inputFile)

	switch {
	case strings.HasSuffix(lowerInputFile, ".geojson"), strings.HasSuffix(lowerInputFile, ".json"):
		buildings, pois, roads, err = ownIo.ReadFeaturesFromGeoJsonFile(inputFile)
		if err != nil {
			return nil, nil, nil, err
		}

		if inputCrs == "" {
			return buildings, pois, roads, nil
		}

		for _, features := range [][]*feature.Feature{buildings, pois, roads} {
			err = projectFeatures(features, inputCrs, targetCrs)
			if err != nil {
				return nil, nil, nil, err
			}
		}
		return buildings, pois, roads, nil
	case strings.HasSuffix(lowerInputFile, ".osm"), strings.HasSuffix(lowerInputFile, ".pbf"):
		var projection orb.Projection
		if targetCrs.Normalize() != osmDataCrs {
			projection, err = geo.GetProjection(osmDataCrs, targetCrs)
			if err != nil {
				return nil, nil, nil, err
			}
		}

		collector := osm.NewFeatureCollector(projection)
		err = osm.NewOsmReader().Read(ctx, inputFile, collector)
		if err != nil {
			return nil, nil, nil, err
		}

		if collector.IncompleteFeatures > 0 {
			sigolo.Warnf("%d features of %s reference objects outside of the file and have no geometry", collector.IncompleteFeatures, inputFile)
		}
		return collector.Buildings, collector.Pois, collector.Roads, nil
	}

	return nil, nil, nil, geo.NewInvalidInputError("Input file %s must be an .osm, .pbf or .geojson file", inputFile)
}

// projectFeatures replaces the geometry of each feature by its projection. Features without geometry are kept as they
// are, the aggregation skips them.
func projectFeatures(features []*feature.Feature, from geo.CRS, to geo.CRS) error {
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}

		projectedGeometry, err := geo.Project(f.Geometry, from, to)
		if err != nil {
			return errors.Wrapf(err, "Unable to project feature %s", f.ID)
		}
		f.Geometry = projectedGeometry
	}
	return nil
}

func (p *Pipeline) createRunFolder(runId string) (string, error) {
	runFolder := path.Join(p.DataDir, runId)
	err := os.MkdirAll(runFolder, runFolderPermissions)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to create folder %s", runFolder)
	}
	return runFolder, nil
}
