// Package storage persists finished analyses to sqlite. The schema is
// managed with embedded golang-migrate migrations so a fresh database file
// is usable on first open.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// Store is the result database.
type Store struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the sqlite database at path and applies
// any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{DB: db, path: path}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Closing m would close the underlying DB connection; leave it to GC.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// SaveResult writes a complete analysis in one transaction.
func (s *Store) SaveResult(res *engine.AnalysisResult) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("save %s: %w", res.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO analyses (id, created_at, fps, frame_count, duration_sec) VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.CreatedAt, res.FPS, res.FrameCount, res.DurationSec,
	); err != nil {
		return fmt.Errorf("save %s: analyses: %w", res.ID, err)
	}

	for _, z := range res.Zones {
		waits, err := json.Marshal(z.WaitTimesSec)
		if err != nil {
			return fmt.Errorf("save %s: zone %d wait times: %w", res.ID, z.ZoneID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO zone_metrics (
				analysis_id, zone_id, name,
				avg_wait_sec, min_wait_sec, max_wait_sec, p50_wait_sec, p90_wait_sec,
				avg_queue_len, max_queue_len, num_people_measured, total_people_tracked,
				wait_times
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ID, z.ZoneID, z.Name,
			z.AvgWaitSec, z.MinWaitSec, z.MaxWaitSec, z.P50WaitSec, z.P90WaitSec,
			z.AvgQueueLen, z.MaxQueueLen, z.NumPeopleMeasured, z.TotalPeopleTracked,
			string(waits),
		); err != nil {
			return fmt.Errorf("save %s: zone %d: %w", res.ID, z.ZoneID, err)
		}

		for i := range z.QueueTimestamps {
			// QueueTimestamps carries no frame index; recover it from the
			// timestamp and fps, which is exact for integer frames.
			frame := int64(z.QueueTimestamps[i]*res.FPS + 0.5)
			if _, err := tx.Exec(
				`INSERT INTO queue_snapshots (analysis_id, zone_id, frame_index, timestamp_sec, count) VALUES (?, ?, ?, ?, ?)`,
				res.ID, z.ZoneID, frame, z.QueueTimestamps[i], z.QueueLengths[i],
			); err != nil {
				return fmt.Errorf("save %s: zone %d snapshots: %w", res.ID, z.ZoneID, err)
			}
		}
	}

	for _, sf := range res.SampleFrames {
		if _, err := tx.Exec(
			`INSERT INTO sample_frames (analysis_id, frame_index, timestamp_sec, png) VALUES (?, ?, ?, ?)`,
			res.ID, sf.FrameIndex, sf.TimestampSec, sf.PNG,
		); err != nil {
			return fmt.Errorf("save %s: sample frame %d: %w", res.ID, sf.FrameIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: commit: %w", res.ID, err)
	}
	monitoring.Logf("storage: saved analysis %s (%d zones, %d samples)", res.ID, len(res.Zones), len(res.SampleFrames))
	return nil
}

// AnalysisSummary is one row of the analysis listing.
type AnalysisSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FPS         float64   `json:"fps"`
	FrameCount  int64     `json:"frame_count"`
	DurationSec float64   `json:"duration_sec"`
	ZoneCount   int       `json:"zone_count"`
}

// ListAnalyses returns stored analyses, newest first, up to limit.
func (s *Store) ListAnalyses(limit int) ([]AnalysisSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Query(`
		SELECT a.id, a.created_at, a.fps, a.frame_count, a.duration_sec, COUNT(z.zone_id)
		FROM analyses a LEFT JOIN zone_metrics z ON z.analysis_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var a AnalysisSummary
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.FPS, &a.FrameCount, &a.DurationSec, &a.ZoneCount); err != nil {
			return nil, fmt.Errorf("list analyses: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

// LoadResult reconstructs a stored analysis, sample frames included.
func (s *Store) LoadResult(id string) (*engine.AnalysisResult, error) {
	res := &engine.AnalysisResult{ID: id}
	err := s.QueryRow(
		`SELECT created_at, fps, frame_count, duration_sec FROM analyses WHERE id = ?`, id,
	).Scan(&res.CreatedAt, &res.FPS, &res.FrameCount, &res.DurationSec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	rows, err := s.Query(`
		SELECT zone_id, name,
			avg_wait_sec, min_wait_sec, max_wait_sec, p50_wait_sec, p90_wait_sec,
			avg_queue_len, max_queue_len, num_people_measured, total_people_tracked,
			wait_times
		FROM zone_metrics WHERE analysis_id = ? ORDER BY zone_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: zones: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var z engine.ZoneResult
		var waits string
		if err := rows.Scan(
			&z.ZoneID, &z.Name,
			&z.AvgWaitSec, &z.MinWaitSec, &z.MaxWaitSec, &z.P50WaitSec, &z.P90WaitSec,
			&z.AvgQueueLen, &z.MaxQueueLen, &z.NumPeopleMeasured, &z.TotalPeopleTracked,
			&waits,
		); err != nil {
			return nil, fmt.Errorf("load %s: zone scan: %w", id, err)
		}
		if err := json.Unmarshal([]byte(waits), &z.WaitTimesSec); err != nil {
			return nil, fmt.Errorf("load %s: zone %d wait times: %w", id, z.ZoneID, err)
		}
		z.QueueTimestamps = []float64{}
		z.QueueLengths = []int{}
		res.Zones = append(res.Zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: zones: %w", id, err)
	}

	snapRows, err := s.Query(`
		SELECT zone_id, timestamp_sec, count
		FROM queue_snapshots WHERE analysis_id = ? ORDER BY zone_id, frame_index`, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: snapshots: %w", id, err)
	}
	defer snapRows.Close()

	byZone := make(map[int]*engine.ZoneResult, len(res.Zones))
	for i := range res.Zones {
		byZone[res.Zones[i].ZoneID] = &res.Zones[i]
	}
	for snapRows.Next() {
		var zoneID, count int
		var ts float64
		if err := snapRows.Scan(&zoneID, &ts, &count); err != nil {
			return nil, fmt.Errorf("load %s: snapshot scan: %w", id, err)
		}
		if z, ok := byZone[zoneID]; ok {
			z.QueueTimestamps = append(z.QueueTimestamps, ts)
			z.QueueLengths = append(z.QueueLengths, count)
		}
	}
	if err := snapRows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: snapshots: %w", id, err)
	}

	frameRows, err := s.Query(`
		SELECT frame_index, timestamp_sec, png
		FROM sample_frames WHERE analysis_id = ? ORDER BY frame_index`, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: samples: %w", id, err)
	}
	defer frameRows.Close()

	for frameRows.Next() {
		var sf engine.SampleFrame
		if err := frameRows.Scan(&sf.FrameIndex, &sf.TimestampSec, &sf.PNG); err != nil {
			return nil, fmt.Errorf("load %s: sample scan: %w", id, err)
		}
		res.SampleFrames = append(res.SampleFrames, sf)
	}
	if err := frameRows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: samples: %w", id, err)
	}

	return res, nil
}

// DeleteAnalysis removes a stored analysis and its dependent rows.
func (s *Store) DeleteAnalysis(id string) error {
	res, err := s.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	// Cascades do the rest when foreign keys are on; sweep explicitly in
	// case they are not.
	for _, table := range []string{"zone_metrics", "queue_snapshots", "sample_frames"} {
		if _, err := s.Exec(`DELETE FROM `+table+` WHERE analysis_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %s: %w", id, table, err)
		}
	}
	return nil
}
