// Package store keeps a history of pipeline runs in SQLite.
//
// The schema is managed with golang-migrate from SQL files embedded in the
// binary; Open applies any pending migrations.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one recorded pipeline run.
type Run struct {
	RunID        string        `json:"run_id"`
	ImagePath    string        `json:"image_path"`
	Detector     string        `json:"detector"`
	NoiseMean    float64       `json:"noise_mean"`
	NoiseStdDev  float64       `json:"noise_stddev"`
	NoiseSeed    uint64        `json:"noise_seed"`
	EdgePixels   int           `json:"edge_pixels"`
	SegmentCount int           `json:"segment_count"`
	Elapsed      time.Duration `json:"elapsed"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, err
	}
	// Note: m is not closed because that would close the shared DB connection.
	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return version, err
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Note: m is not closed because that would close the shared DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return monitoring.DebugEnabled()
}

// RecordRun stores a run and its segments in one transaction. A zero
// CreatedAt is replaced with the current time.
func (s *Store) RecordRun(run Run, segs []detection.LineSegment) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, image_path, detector, noise_mean, noise_stddev, noise_seed,
			edge_pixels, segment_count, elapsed_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ImagePath, run.Detector, run.NoiseMean, run.NoiseStdDev, int64(run.NoiseSeed),
		run.EdgePixels, len(segs), run.Elapsed.Nanoseconds(), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO segments (run_id, idx, x1, y1, x2, y2) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare segment insert: %w", err)
	}
	defer stmt.Close()
	for i, seg := range segs {
		if _, err := stmt.Exec(run.RunID, i, seg.X1, seg.Y1, seg.X2, seg.Y2); err != nil {
			return fmt.Errorf("failed to insert segment %d of run %s: %w", i, run.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT run_id, image_path, detector, noise_mean, noise_stddev, noise_seed,
		       edge_pixels, segment_count, elapsed_ns, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r         Run
			seed      int64
			elapsedNS int64
			created   int64
		)
		if err := rows.Scan(&r.RunID, &r.ImagePath, &r.Detector, &r.NoiseMean, &r.NoiseStdDev, &seed,
			&r.EdgePixels, &r.SegmentCount, &elapsedNS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.NoiseSeed = uint64(seed)
		r.Elapsed = time.Duration(elapsedNS)
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunSegments returns the segments of a run in discovery order. An unknown
// run yields an empty slice.
func (s *Store) RunSegments(runID string) ([]detection.LineSegment, error) {
	rows, err := s.db.Query(`SELECT x1, y1, x2, y2 FROM segments WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	segs := []detection.LineSegment{}
	for rows.Next() {
		var seg detection.LineSegment
		if err := rows.Scan(&seg.X1, &seg.Y1, &seg.X2, &seg.Y2); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}
