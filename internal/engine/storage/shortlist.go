package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rendis/mealspin/internal/model"
)

// ShortlistEntry is a venue a group decided to keep.
type ShortlistEntry struct {
	ID      int64       `json:"id"`
	Group   string      `json:"group"`
	AddedBy string      `json:"added_by,omitempty"`
	AddedAt time.Time   `json:"added_at"`
	Venue   model.Venue `json:"venue"`
}

// AddToShortlist stores venues for group. Venues already on the group's
// shortlist are ignored; the number of new rows is returned.
func (s *Store) AddToShortlist(ctx context.Context, group, addedBy string, venues ...model.Venue) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO shortlist
		(group_id, kind, provider_id, name, raw_category, category, rating, address, url, added_by, raw, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	inserted := 0
	for _, v := range venues {
		res, err := stmt.ExecContext(ctx,
			group, string(v.Kind), v.ProviderID, v.Name, v.RawCategory, string(v.Category),
			v.Rating, v.Address, v.URL, addedBy, rawText(v.Raw), now,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s/%s: %w", v.Kind, v.ProviderID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}
	return inserted, nil
}

// ListShortlist returns a group's shortlist, oldest first. An empty group
// lists every group.
func (s *Store) ListShortlist(ctx context.Context, group string) ([]ShortlistEntry, error) {
	q := `SELECT id, group_id, kind, provider_id, name, raw_category, category, rating,
	             address, url, added_by, raw, created_at
	      FROM shortlist`
	var args []any
	if group != "" {
		q += ` WHERE group_id = ?`
		args = append(args, group)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying shortlist: %w", err)
	}
	defer rows.Close()

	var out []ShortlistEntry
	for rows.Next() {
		var (
			e                               ShortlistEntry
			kind, cat                       string
			rawCat, addr, url, addedBy, raw sql.NullString
			rating                          sql.NullFloat64
			created                         int64
		)
		if err := rows.Scan(&e.ID, &e.Group, &kind, &e.Venue.ProviderID, &e.Venue.Name, &rawCat, &cat,
			&rating, &addr, &url, &addedBy, &raw, &created); err != nil {
			return nil, fmt.Errorf("scanning shortlist: %w", err)
		}
		e.Venue.Kind = model.ProviderKind(kind)
		e.Venue.Category = model.Category(cat)
		e.Venue.RawCategory = rawCat.String
		e.Venue.Rating = rating.Float64
		e.Venue.Address = addr.String
		e.Venue.URL = url.String
		e.AddedBy = addedBy.String
		if raw.String != "" {
			e.Venue.Raw = json.RawMessage(raw.String)
		}
		e.AddedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of shortlisted venues across all groups.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shortlist").Scan(&count)
	return count, err
}
