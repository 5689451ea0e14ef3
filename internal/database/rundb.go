package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/fircount/internal/model"
)

// FileName is the database file created in the database directory.
const FileName = "fircount.db"

// writeTimeout bounds a single Sink write.
const writeTimeout = 30 * time.Second

// RunDB provides SQLite-based storage for count rows and run history.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// buckets is the range rows written through Write belong to.
	buckets model.BucketRange
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per (region, sub-region) pair; the latest crawl wins.
	CREATE TABLE IF NOT EXISTS count_rows (
		region_id INTEGER NOT NULL,
		subregion_id TEXT NOT NULL,
		start_year INTEGER NOT NULL,
		end_year INTEGER NOT NULL,
		status TEXT NOT NULL,
		pages INTEGER DEFAULT 0,
		error TEXT,
		counts TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(region_id, subregion_id)
	);

	CREATE INDEX IF NOT EXISTS idx_rows_status ON count_rows(status);

	-- Crawl runs and their final statistics
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		first_region INTEGER NOT NULL,
		last_region INTEGER NOT NULL,
		start_year INTEGER NOT NULL,
		end_year INTEGER NOT NULL,
		resumed INTEGER DEFAULT 0,
		outcome TEXT,
		stats TEXT
	);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SetBuckets sets the range of the rows written through Write.
func (rdb *RunDB) SetBuckets(buckets model.BucketRange) {
	rdb.buckets = buckets
}

// Write implements report.Sink.
func (rdb *RunDB) Write(row model.CountRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return rdb.SaveRow(ctx, rdb.buckets, row)
}

// SaveRow inserts or replaces the row of (row.Region, row.SubRegion).
func (rdb *RunDB) SaveRow(ctx context.Context, buckets model.BucketRange, row model.CountRow) error {
	if len(row.Counts) != buckets.Len() {
		return fmt.Errorf("failed to save row %d/%s: %d counts for %d buckets",
			row.Region, row.SubRegion, len(row.Counts), buckets.Len())
	}
	countsJSON, err := json.Marshal(row.Counts)
	if err != nil {
		return fmt.Errorf("failed to serialize counts: %w", err)
	}

	query := `
	INSERT INTO count_rows (region_id, subregion_id, start_year, end_year, status, pages, error, counts)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(region_id, subregion_id) DO UPDATE SET
		start_year = excluded.start_year,
		end_year = excluded.end_year,
		status = excluded.status,
		pages = excluded.pages,
		error = excluded.error,
		counts = excluded.counts,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err = rdb.db.ExecContext(ctx, query,
		int(row.Region),
		string(row.SubRegion),
		buckets.StartYear,
		buckets.EndYear,
		row.Status.String(),
		row.Pages,
		row.ErrorString(),
		string(countsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save count row: %w", err)
	}
	return nil
}

// Completed returns the pairs stored with status ok for buckets.
// Rows of a different year range are not considered complete.
func (rdb *RunDB) Completed(ctx context.Context, buckets model.BucketRange) (map[model.Task]bool, error) {
	query := `
	SELECT region_id, subregion_id FROM count_rows
	WHERE status = ? AND start_year = ? AND end_year = ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, model.StatusOK.String(), buckets.StartYear, buckets.EndYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed rows: %w", err)
	}
	defer rows.Close()

	done := make(map[model.Task]bool)
	for rows.Next() {
		var region int
		var sub string
		if err := rows.Scan(&region, &sub); err != nil {
			return nil, fmt.Errorf("failed to scan completed row: %w", err)
		}
		done[model.Task{Region: model.Region(region), SubRegion: model.SubRegion(sub)}] = true
	}
	return done, rows.Err()
}

// Rows returns the stored rows of buckets ordered by region and sub-region.
func (rdb *RunDB) Rows(ctx context.Context, buckets model.BucketRange) ([]model.CountRow, error) {
	query := `
	SELECT region_id, subregion_id, status, pages, error, counts
	FROM count_rows
	WHERE start_year = ? AND end_year = ?
	ORDER BY region_id, subregion_id
	`

	rows, err := rdb.db.QueryContext(ctx, query, buckets.StartYear, buckets.EndYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query count rows: %w", err)
	}
	defer rows.Close()

	var results []model.CountRow
	for rows.Next() {
		var (
			region     int
			sub        string
			status     string
			pages      int
			errMsg     sql.NullString
			countsJSON string
		)
		if err := rows.Scan(&region, &sub, &status, &pages, &errMsg, &countsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}

		row := model.CountRow{
			Region:    model.Region(region),
			SubRegion: model.SubRegion(sub),
			Status:    model.ParseRowStatus(status),
			Pages:     pages,
		}
		if err := json.Unmarshal([]byte(countsJSON), &row.Counts); err != nil {
			return nil, fmt.Errorf("failed to parse counts of %d/%s: %w", region, sub, err)
		}
		if errMsg.Valid && errMsg.String != "" {
			row.Err = errors.New(errMsg.String)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Reset deletes every stored row. A fresh, non-resumed crawl starts here.
func (rdb *RunDB) Reset(ctx context.Context) error {
	if _, err := rdb.db.ExecContext(ctx, "DELETE FROM count_rows"); err != nil {
		return fmt.Errorf("failed to reset count rows: %w", err)
	}
	return nil
}

// Run is one crawl invocation.
type Run struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	FirstRegion int
	LastRegion  int
	StartYear   int
	EndYear     int
	Resumed     bool
	// Outcome is "completed", "cancelled" or "failed"; empty while running.
	Outcome string
	// Stats holds the row counts per status.
	Stats map[string]int
}

// StartRun records the start of a crawl and returns its ID.
func (rdb *RunDB) StartRun(ctx context.Context, run *Run) (int64, error) {
	query := `
	INSERT INTO runs (first_region, last_region, start_year, end_year, resumed)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		run.FirstRegion,
		run.LastRegion,
		run.StartYear,
		run.EndYear,
		run.Resumed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun records the outcome and statistics of run id.
func (rdb *RunDB) FinishRun(ctx context.Context, id int64, outcome string, stats map[string]int) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}

	query := `
	UPDATE runs SET finished_at = CURRENT_TIMESTAMP, outcome = ?, stats = ?
	WHERE id = ?
	`
	if _, err := rdb.db.ExecContext(ctx, query, outcome, string(statsJSON), id); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs first, at most limit of them.
func (rdb *RunDB) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, finished_at, first_region, last_region, start_year, end_year, resumed, outcome, stats
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var (
			run       Run
			started   string
			finished  sql.NullString
			outcome   sql.NullString
			statsJSON sql.NullString
		)
		err := rows.Scan(
			&run.ID,
			&started,
			&finished,
			&run.FirstRegion,
			&run.LastRegion,
			&run.StartYear,
			&run.EndYear,
			&run.Resumed,
			&outcome,
			&statsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		if finished.Valid {
			run.FinishedAt = parseTimestamp(finished.String)
		}
		run.Outcome = outcome.String
		run.Stats = make(map[string]int)
		if statsJSON.Valid && statsJSON.String != "" {
			if err := json.Unmarshal([]byte(statsJSON.String), &run.Stats); err != nil {
				run.Stats = make(map[string]int)
			}
		}
		results = append(results, run)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each of timestampFormats and returns the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
