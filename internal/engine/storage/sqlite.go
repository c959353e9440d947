package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rendis/mealspin/internal/model"
)

// ErrRunNotFound is returned when no saved selection exists for a run id.
var ErrRunNotFound = errors.New("run not found")

// Store persists wheel selections and group shortlists in SQLite. The raw
// candidate pool is never written.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		radius_m REAL NOT NULL,
		in_person INTEGER NOT NULL,
		delivery INTEGER NOT NULL,
		target INTEGER NOT NULL,
		keyword TEXT,
		pool_size INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS candidates (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		name TEXT NOT NULL,
		raw_category TEXT,
		category TEXT NOT NULL,
		category_label TEXT,
		distance_m REAL,
		rating REAL,
		lat REAL,
		lng REAL,
		address TEXT,
		url TEXT,
		raw TEXT,
		PRIMARY KEY (run_id, position)
	);
	CREATE TABLE IF NOT EXISTS shortlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		name TEXT NOT NULL,
		raw_category TEXT,
		category TEXT NOT NULL,
		rating REAL,
		address TEXT,
		url TEXT,
		added_by TEXT,
		raw TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE(group_id, kind, provider_id)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_shortlist_group ON shortlist(group_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveSelection stores the wheel of a run, replacing any previous one.
func (s *Store) SaveSelection(ctx context.Context, runID string, p model.SearchParams, poolSize int, venues []model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM candidates WHERE run_id = ?`,
		`DELETE FROM runs WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return fmt.Errorf("clearing run: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, lat, lng, radius_m, in_person, delivery, target, keyword, pool_size, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		runID, p.Center.Lat, p.Center.Lng, p.Radius, p.WantInPerson, p.WantDelivery,
		p.Target, p.Keyword, poolSize, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates
		(run_id, position, kind, provider_id, name, raw_category, category, category_label,
		 distance_m, rating, lat, lng, address, url, raw)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	for i, v := range venues {
		_, err := stmt.ExecContext(ctx,
			runID, i, string(v.Kind), v.ProviderID, v.Name, v.RawCategory, string(v.Category), v.CategoryLabel,
			v.Distance, v.Rating, v.Lat, v.Lng, v.Address, v.URL, rawText(v.Raw),
		)
		if err != nil {
			return fmt.Errorf("inserting candidate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

// LoadSelection returns the saved wheel of a run in its original order.
func (s *Store) LoadSelection(ctx context.Context, runID string) (model.SearchParams, []model.Venue, error) {
	var p model.SearchParams
	var keyword sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT lat, lng, radius_m, in_person, delivery, target, keyword
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&p.Center.Lat, &p.Center.Lng, &p.Radius, &p.WantInPerson, &p.WantDelivery, &p.Target, &keyword)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return p, nil, fmt.Errorf("loading run: %w", err)
	}
	p.Keyword = keyword.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, provider_id, name, raw_category, category, category_label,
		       distance_m, rating, lat, lng, address, url, raw
		FROM candidates WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return p, nil, fmt.Errorf("loading candidates: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		var (
			v                             model.Venue
			kind, cat                     string
			rawCat, label, addr, url, raw sql.NullString
			dist, rating, lat, lng        sql.NullFloat64
		)
		if err := rows.Scan(&kind, &v.ProviderID, &v.Name, &rawCat, &cat, &label,
			&dist, &rating, &lat, &lng, &addr, &url, &raw); err != nil {
			return p, nil, fmt.Errorf("scanning candidate: %w", err)
		}
		v.Kind = model.ProviderKind(kind)
		v.Category = model.Category(cat)
		v.RawCategory = rawCat.String
		v.CategoryLabel = label.String
		v.Distance = dist.Float64
		v.Rating = rating.Float64
		v.Lat = lat.Float64
		v.Lng = lng.Float64
		v.Address = addr.String
		v.URL = url.String
		if raw.String != "" {
			v.Raw = json.RawMessage(raw.String)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return p, nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return p, venues, nil
}

// LatestRun returns the id of the most recently saved run.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	return id, err
}

// Summary describes what a database holds.
type Summary struct {
	Runs        int
	Shortlisted int
	LatestRun   string
	LatestAt    time.Time
}

// Summarize counts saved runs and shortlisted venues.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&sum.Runs); err != nil {
		return Summary{}, fmt.Errorf("counting runs: %w", err)
	}
	shortlisted, err := s.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("counting shortlist: %w", err)
	}
	sum.Shortlisted = shortlisted
	if sum.Runs == 0 {
		return sum, nil
	}

	var created int64
	err = s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&sum.LatestRun, &created)
	if err != nil {
		return Summary{}, fmt.Errorf("reading latest run: %w", err)
	}
	sum.LatestAt = time.Unix(created, 0)
	return sum, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func rawText(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
