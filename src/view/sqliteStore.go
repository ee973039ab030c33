package view

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sandpile/src/sandbox"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	engine     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	iteration INTEGER NOT NULL,
	mass      INTEGER NOT NULL,
	cells     TEXT NOT NULL,
	PRIMARY KEY (run_id, iteration)
);`

//SQLiteStore keeps the snapshots of the runs in the sqlite database
//the cells are stored in the same digit rows as the text log, separated by '\n'
type SQLiteStore struct {
	db    *sql.DB
	runID uuid.UUID
}

//Snapshot is one stored grid state
type Snapshot struct {
	Iteration int
	Mass      uint64
	Grid      *sandbox.Grid
}

//OpenSQLiteStore opens (creates) the database at path and applies the schema
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

//BeginRun registers the run, the following snapshots are stored under runID
func (s *SQLiteStore) BeginRun(runID uuid.UUID, size int, engine string) error {
	_, err := s.db.Exec(`INSERT INTO runs (run_id, size, engine, created_at) VALUES (?, ?, ?, ?)`,
		runID.String(), size, engine, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("registering run %s: %w", runID, err)
	}
	s.runID = runID
	return nil
}

//Export implements sandbox.Exporter
func (s *SQLiteStore) Export(iteration int, g *sandbox.Grid) error {
	if s.runID == uuid.Nil {
		return fmt.Errorf("sqlite store: no run registered")
	}
	var b strings.Builder
	if err := WriteSnapshot(&b, g); err != nil {
		return err
	}
	cells := strings.TrimSuffix(strings.TrimPrefix(b.String(), SnapshotHeader+"\n"), "\n")
	_, err := s.db.Exec(`INSERT INTO snapshots (run_id, iteration, mass, cells) VALUES (?, ?, ?, ?)`,
		s.runID.String(), iteration, int64(g.Mass()), cells)
	if err != nil {
		return fmt.Errorf("storing snapshot %d: %w", iteration, err)
	}
	return nil
}

//Snapshots returns the stored snapshots of the run ordered by iteration
func (s *SQLiteStore) Snapshots(runID uuid.UUID) ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT iteration, mass, cells FROM snapshots WHERE run_id = ? ORDER BY iteration`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Snapshot
	for rows.Next() {
		var (
			sn    Snapshot
			mass  int64
			cells string
		)
		if err := rows.Scan(&sn.Iteration, &mass, &cells); err != nil {
			return nil, err
		}
		grids, err := ReadTextLog(strings.NewReader(SnapshotHeader + "\n" + cells + "\n"))
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", sn.Iteration, err)
		}
		sn.Mass = uint64(mass)
		sn.Grid = grids[0]
		res = append(res, sn)
	}
	return res, rows.Err()
}

//Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
