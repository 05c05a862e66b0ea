package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
	"osmgrid/aggregate"
	"osmgrid/common"
	"osmgrid/geo"
	"osmgrid/grid"
)

var (
	ErrRunNotFound       = errors.New("Run not found")
	ErrSummariesNotFound = errors.New("No summaries stored for run")
)

// LatestRun can be used instead of a run ID to refer to the most recently stored grid.
const LatestRun = "latest"

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id            TEXT PRIMARY KEY,
		crs               TEXT NOT NULL,
		cell_size         DOUBLE NOT NULL,
		skipped_features  BIGINT,
		created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS cells (
		run_id            TEXT NOT NULL,
		cell_id           TEXT NOT NULL,
		number            BIGINT NOT NULL,
		column_index      BIGINT NOT NULL,
		row_index         BIGINT NOT NULL,
		min_x             DOUBLE NOT NULL,
		min_y             DOUBLE NOT NULL,
		max_x             DOUBLE NOT NULL,
		max_y             DOUBLE NOT NULL,
		PRIMARY KEY (run_id, cell_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS summaries (
		run_id                 TEXT NOT NULL,
		cell_id                TEXT NOT NULL,
		dominant_building_type TEXT NOT NULL,
		building_type_counts   TEXT NOT NULL,
		poi_type_counts        TEXT NOT NULL,
		road_length_m          DOUBLE NOT NULL,
		road_density           DOUBLE NOT NULL,
		PRIMARY KEY (run_id, cell_id),
		FOREIGN KEY (run_id, cell_id) REFERENCES cells(run_id, cell_id) ON DELETE CASCADE
	);
`

// Store persists grids and their cell summaries in a sqlite database. Each grid is stored under its run ID.
type Store struct {
	db *sql.DB
}

// RunInfo describes one stored grid.
type RunInfo struct {
	RunID           string
	CRS             geo.CRS
	CellSize        float64
	CellCount       int
	SkippedFeatures *int // Nil when no summaries have been stored for this run
	CreatedAt       time.Time
}

// Open opens or creates the database at the given path and creates the tables if needed.
func Open(path string) (*Store, error) {
	// Foreign keys are enabled per connection, the pragma in the DSN applies it to every new one.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open database %s", path)
	}

	// sqlite only supports one writer at a time.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "Unable to create schema in database %s", path)
	}

	sigolo.Debugf("Opened database %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGrid stores the grid and all its cells. Storing a run ID twice is an error.
func (s *Store) SaveGrid(ctx context.Context, g *grid.Grid) error {
	saveStartTime := time.Now()

	return s.inTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (run_id, crs, cell_size) VALUES (?, ?, ?)`,
			g.RunID, string(g.CRS), g.CellSize,
		)
		if err != nil {
			return errors.Wrapf(err, "Unable to store run %s", g.RunID)
		}

		statement, err := tx.PrepareContext(ctx, `
			INSERT INTO cells (run_id, cell_id, number, column_index, row_index, min_x, min_y, max_x, max_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return errors.Wrap(err, "Unable to prepare cell statement")
		}
		defer statement.Close()

		for _, cell := range g.Cells {
			_, err = statement.ExecContext(ctx,
				g.RunID, cell.ID, cell.Number, cell.Index.X(), cell.Index.Y(),
				cell.Bounds.Min.X(), cell.Bounds.Min.Y(), cell.Bounds.Max.X(), cell.Bounds.Max.Y(),
			)
			if err != nil {
				return errors.Wrapf(err, "Unable to store cell %s of run %s", cell.ID, g.RunID)
			}
		}

		sigolo.Infof("Stored grid %s with %d cells in %s", g.RunID, len(g.Cells), time.Since(saveStartTime))
		return nil
	})
}

// LoadGrid returns the grid of the given run. The cells are ordered by their number, which is the order they were
// built in.
func (s *Store) LoadGrid(ctx context.Context, runId string) (*grid.Grid, error) {
	g := &grid.Grid{RunID: runId}

	var crs string
	err := s.db.QueryRowContext(ctx, `SELECT crs, cell_size FROM runs WHERE run_id = ?`, runId).Scan(&crs, &g.CellSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "Unable to load grid %s", runId)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to load run %s", runId)
	}
	g.CRS = geo.CRS(crs)

	rows, err := s.db.QueryContext(ctx, `
		SELECT number, column_index, row_index, min_x, min_y, max_x, max_y
		FROM cells WHERE run_id = ? ORDER BY number`,
		runId,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to load cells of run %s", runId)
	}
	defer rows.Close()

	g.Cells = []*grid.Cell{}
	for rows.Next() {
		var number, column, row int
		var minX, minY, maxX, maxY float64
		err = rows.Scan(&number, &column, &row, &minX, &minY, &maxX, &maxY)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read cell of run %s", runId)
		}

		bounds := orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
		g.Cells = append(g.Cells, grid.NewCell(number, common.CellIndex{column, row}, bounds))
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "Unable to read cells of run %s", runId)
	}

	return g, nil
}

// LatestRunID returns the ID of the most recently stored grid.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runId string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY rowid DESC LIMIT 1`).Scan(&runId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(ErrRunNotFound, "No grid has been stored yet")
	}
	if err != nil {
		return "", errors.Wrap(err, "Unable to determine latest run")
	}
	return runId, nil
}

// ResolveRunID returns the given run ID unchanged unless it is empty or "latest", in which case the ID of the most
// recently stored grid is returned.
func (s *Store) ResolveRunID(ctx context.Context, runId string) (string, error) {
	if runId != "" && runId != LatestRun {
		return runId, nil
	}
	return s.LatestRunID(ctx)
}

// ListRuns returns all stored runs, the most recent one first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.crs, r.cell_size, r.skipped_features, r.created_at,
			(SELECT COUNT(*) FROM cells c WHERE c.run_id = r.run_id)
		FROM runs r ORDER BY r.rowid DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to list runs")
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var run RunInfo
		var crs string
		var skipped sql.NullInt64
		var createdAt sql.NullString
		err = rows.Scan(&run.RunID, &crs, &run.CellSize, &skipped, &createdAt, &run.CellCount)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to read run")
		}

		run.CRS = geo.CRS(crs)
		run.CreatedAt = parseTimestamp(createdAt.String)
		if skipped.Valid {
			skippedFeatures := int(skipped.Int64)
			run.SkippedFeatures = &skippedFeatures
		}
		runs = append(runs, run)
	}

	return runs, errors.Wrap(rows.Err(), "Unable to read runs")
}

// SaveSummaries stores the aggregation result of the given run. Previously stored summaries of this run are replaced.
func (s *Store) SaveSummaries(ctx context.Context, runId string, result *aggregate.Result) error {
	saveStartTime := time.Now()

	return s.inTransaction(ctx, func(tx *sql.Tx) error {
		updateResult, err := tx.ExecContext(ctx, `UPDATE runs SET skipped_features = ? WHERE run_id = ?`, result.SkippedFeatures, runId)
		if err != nil {
			return errors.Wrapf(err, "Unable to update run %s", runId)
		}
		if affected, _ := updateResult.RowsAffected(); affected == 0 {
			return errors.Wrapf(ErrRunNotFound, "Unable to store summaries of run %s", runId)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM summaries WHERE run_id = ?`, runId)
		if err != nil {
			return errors.Wrapf(err, "Unable to remove old summaries of run %s", runId)
		}

		statement, err := tx.PrepareContext(ctx, `
			INSERT INTO summaries (run_id, cell_id, dominant_building_type, building_type_counts, poi_type_counts, road_length_m, road_density)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return errors.Wrap(err, "Unable to prepare summary statement")
		}
		defer statement.Close()

		for _, summary := range result.Summaries {
			buildingTypeCounts, err := json.Marshal(summary.BuildingTypeCounts)
			if err != nil {
				return errors.Wrapf(err, "Unable to encode building counts of cell %s", summary.CellID)
			}
			poiTypeCounts, err := json.Marshal(summary.PoiTypeCounts)
			if err != nil {
				return errors.Wrapf(err, "Unable to encode POI counts of cell %s", summary.CellID)
			}

			_, err = statement.ExecContext(ctx,
				runId, summary.CellID, summary.DominantBuildingType, string(buildingTypeCounts), string(poiTypeCounts),
				summary.RoadLengthM, summary.RoadDensity,
			)
			if err != nil {
				return errors.Wrapf(err, "Unable to store summary of cell %s of run %s", summary.CellID, runId)
			}
		}

		sigolo.Infof("Stored %d summaries of run %s in %s", len(result.Summaries), runId, time.Since(saveStartTime))
		return nil
	})
}

// LoadSummaries returns the stored aggregation result of the given run. The summaries are ordered like the cells of
// the grid.
func (s *Store) LoadSummaries(ctx context.Context, runId string) (*aggregate.Result, error) {
	var skipped sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT skipped_features FROM runs WHERE run_id = ?`, runId).Scan(&skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "Unable to load summaries of run %s", runId)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to load run %s", runId)
	}
	if !skipped.Valid {
		return nil, errors.Wrapf(ErrSummariesNotFound, "Unable to load summaries of run %s", runId)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.cell_id, s.dominant_building_type, s.building_type_counts, s.poi_type_counts, s.road_length_m, s.road_density
		FROM summaries s JOIN cells c ON c.run_id = s.run_id AND c.cell_id = s.cell_id
		WHERE s.run_id = ? ORDER BY c.number`,
		runId,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to load summaries of run %s", runId)
	}
	defer rows.Close()

	summaries := []*aggregate.CellSummary{}
	for rows.Next() {
		summary := &aggregate.CellSummary{}
		var buildingTypeCounts, poiTypeCounts string
		err = rows.Scan(&summary.CellID, &summary.DominantBuildingType, &buildingTypeCounts, &poiTypeCounts, &summary.RoadLengthM, &summary.RoadDensity)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read summary of run %s", runId)
		}

		err = json.Unmarshal([]byte(buildingTypeCounts), &summary.BuildingTypeCounts)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode building counts of cell %s", summary.CellID)
		}
		err = json.Unmarshal([]byte(poiTypeCounts), &summary.PoiTypeCounts)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode POI counts of cell %s", summary.CellID)
		}

		summaries = append(summaries, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "Unable to read summaries of run %s", runId)
	}

	return aggregate.NewResult(summaries, int(skipped.Int64)), nil
}

// DeleteRun removes the grid and all summaries of the given run.
func (s *Store) DeleteRun(ctx context.Context, runId string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runId)
	if err != nil {
		return errors.Wrapf(err, "Unable to delete run %s", runId)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Wrapf(ErrRunNotFound, "Unable to delete run %s", runId)
	}
	return nil
}

// parseTimestamp parses timestamps as written by CURRENT_TIMESTAMP. Depending on the driver version they arrive as
// plain text or as formatted time value.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *Store) inTransaction(ctx context.Context, action func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "Unable to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			sigolo.Warnf("Failed to rollback transaction: %v", err)
		}
	}()

	err = action(tx)
	if err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "Unable to commit transaction")
}
