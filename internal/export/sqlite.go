package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/archsearch/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	needle TEXT NOT NULL,
	encoding TEXT NOT NULL,
	started_at TIMESTAMP,
	source_root TEXT,
	output_root TEXT,
	zip_archives INTEGER NOT NULL DEFAULT 0,
	gzip_files INTEGER NOT NULL DEFAULT 0,
	files_written INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pass INTEGER NOT NULL,
	root TEXT NOT NULL,
	location TEXT NOT NULL,
	folder TEXT NOT NULL,
	display_name TEXT NOT NULL,
	occurrence_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sample_lines (
	result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
	line_number INTEGER NOT NULL,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS diagnostics (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	stage TEXT NOT NULL,
	path TEXT NOT NULL,
	entry TEXT,
	kind TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id);
`

// WriteSQLite appends report to the SQLite database at path in one
// transaction. A report without an id is assigned a new one. Writing the same
// run twice replaces the earlier copy.
func WriteSQLite(ctx context.Context, report *models.RunReport, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	runID := report.ID
	if runID == "" {
		runID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}

	var sourceRoot, outputRoot string
	var zips, gzips, written int
	if x := report.Extraction; x != nil {
		sourceRoot, outputRoot = x.SourceRoot, x.OutputRoot
		zips, gzips, written = x.ZipArchives, x.GzipFiles, x.FilesWritten
	} else if len(report.Searches) > 0 {
		sourceRoot = report.Searches[0].Root
	}

	var startedAt interface{}
	if !report.StartedAt.IsZero() {
		startedAt = report.StartedAt.UTC().Format(time.RFC3339Nano)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, needle, encoding, started_at, source_root, output_root, zip_archives, gzip_files, files_written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Needle, report.Encoding, startedAt, sourceRoot, outputRoot, zips, gzips, written); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	resultStmt, err := tx.PrepareContext(ctx, `INSERT INTO results
		(run_id, pass, root, location, folder, display_name, occurrence_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare results statement: %w", err)
	}
	defer resultStmt.Close()

	lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO sample_lines (result_id, line_number, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sample lines statement: %w", err)
	}
	defer lineStmt.Close()

	diagStmt, err := tx.PrepareContext(ctx, `INSERT INTO diagnostics
		(run_id, stage, path, entry, kind, message)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare diagnostics statement: %w", err)
	}
	defer diagStmt.Close()

	for pass, s := range report.Searches {
		for _, r := range s.Results {
			res, err := resultStmt.ExecContext(ctx, runID, pass+1, s.Root, r.Location, r.Folder, r.DisplayName, r.OccurrenceCount)
			if err != nil {
				return fmt.Errorf("insert result %s: %w", r.Location, err)
			}
			resultID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("result id: %w", err)
			}
			for _, l := range r.SampleLines {
				if _, err := lineStmt.ExecContext(ctx, resultID, l.Number, l.Text); err != nil {
					return fmt.Errorf("insert sample line: %w", err)
				}
			}
		}
		for _, d := range s.Diagnostics {
			if _, err := diagStmt.ExecContext(ctx, runID, "search", d.Path, d.Entry, d.Kind.String(), d.Message); err != nil {
				return fmt.Errorf("insert diagnostic: %w", err)
			}
		}
	}
	if x := report.Extraction; x != nil {
		for _, d := range x.Diagnostics {
			if _, err := diagStmt.ExecContext(ctx, runID, "extract", d.Path, d.Entry, d.Kind.String(), d.Message); err != nil {
				return fmt.Errorf("insert diagnostic: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
