package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"osmgrid/aggregate"
	"osmgrid/geo"
	"osmgrid/importing"
	"osmgrid/storage"
	"osmgrid/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging  string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info" env:"OSMGRID_LOGGING"`
	Version  VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	DataDir  string      `help:"Folder the grid and summary files of each run are written to." placeholder:"<folder>" default:"osmgrid-data" env:"OSMGRID_DATA_DIR"`
	Database string      `help:"The sqlite database storing grids and summaries." placeholder:"<file>" default:"osmgrid.db" env:"OSMGRID_DB"`
	Grid     struct {
		Region    string  `help:"GeoJSON file containing the city boundary as Polygon or MultiPolygon." placeholder:"<region-file>" arg:"" type:"existingfile"`
		RegionCrs string  `help:"Coordinate reference of the region file." default:"EPSG:4326"`
		Crs       string  `help:"Meter based coordinate reference of the grid." default:"EPSG:3857" env:"OSMGRID_CRS"`
		CellSize  float64 `help:"The edge length of the grid cells in meters." short:"c" default:"500" env:"OSMGRID_CELL_SIZE"`
	} `cmd:"" help:"Builds a grid of square cells covering the given region."`
	Aggregate struct {
		Input    string `help:"The input file. Either .osm, .osm.pbf or a GeoJSON file of buildings, POIs and roads." placeholder:"<input-file>" arg:"" type:"existingfile"`
		InputCrs string `help:"Coordinate reference of GeoJSON input files. When not set, the features must already be in the reference of the grid."`
		Run      string `help:"The run ID of the grid to aggregate into." default:"latest"`
		Grid     string `help:"Grid file (grid.bin or grid.geojson) to aggregate into, takes precedence over --run." placeholder:"<grid-file>" type:"existingfile"`
	} `cmd:"" help:"Aggregates buildings, POIs and roads of the input file into the cells of a grid."`
	Report struct {
		Run string `help:"The run ID of the grid to report on." default:"latest"`
	} `cmd:"" help:"Prints statistics of the aggregated cells of a grid."`
	Delete struct {
		Run string `help:"The run ID to delete." arg:""`
	} `cmd:"" help:"Deletes the grid, summaries and files of a run."`
	Serve struct {
		Port    string `help:"The port of the HTTP server." default:"8080" env:"OSMGRID_PORT"`
		TlsCert string `help:"Certificate file, enables TLS together with --tls-key." type:"existingfile"`
		TlsKey  string `help:"Private key file of the certificate." type:"existingfile"`
	} `cmd:"" help:"Serves grids and cell summaries via HTTP."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	// Values of the .env file don't overwrite already set environment variables
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		sigolo.Fatalf("Unable to load .env file: %+v", err)
	}

	ctx := kong.Parse(
		&cli,
		kong.Name("osmgrid"),
		kong.Description("Builds square grids over city boundaries and aggregates OSM buildings, POIs and roads into their cells."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	store, err := storage.Open(cli.Database)
	sigolo.FatalCheck(err)
	defer store.Close()

	pipeline := importing.NewPipeline(store, cli.DataDir)

	switch ctx.Command() {
	case "grid <region>":
		g, err := pipeline.BuildGrid(context.Background(), cli.Grid.Region, geo.CRS(cli.Grid.RegionCrs), geo.CRS(cli.Grid.Crs), cli.Grid.CellSize)
		sigolo.FatalCheck(err)
		fmt.Println(g.RunID)
	case "aggregate <input>":
		var result *aggregate.Result
		if cli.Aggregate.Grid != "" {
			_, result, err = pipeline.AggregateIntoGridFile(context.Background(), cli.Aggregate.Input, geo.CRS(cli.Aggregate.InputCrs), cli.Aggregate.Grid)
		} else {
			_, result, err = pipeline.Aggregate(context.Background(), cli.Aggregate.Input, geo.CRS(cli.Aggregate.InputCrs), cli.Aggregate.Run)
		}
		sigolo.FatalCheck(err)
		if result.SkippedFeatures > 0 {
			sigolo.Warnf("Skipped %d features with invalid geometries", result.SkippedFeatures)
		}
	case "report":
		report, err := pipeline.Report(context.Background(), cli.Report.Run)
		sigolo.FatalCheck(err)
		err = report.Write(os.Stdout)
		sigolo.FatalCheck(err)
	case "delete <run>":
		runId, err := pipeline.DeleteRun(context.Background(), cli.Delete.Run)
		sigolo.FatalCheck(err)
		fmt.Println(runId)
	case "serve":
		if cli.Serve.TlsCert != "" && cli.Serve.TlsKey != "" {
			web.StartServerTls(cli.Serve.Port, cli.Serve.TlsCert, cli.Serve.TlsKey, store)
		} else {
			web.StartServer(cli.Serve.Port, store)
		}
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}
