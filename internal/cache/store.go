// Package cache persists rendered lecture pages together with the catalog
// snapshot they were rendered from, and decides whether they are still valid.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/lecturedoc/internal/db"
	"github.com/ziadkadry99/lecturedoc/internal/source"
)

// snapshotName is the row holding the last catalog seen.
const snapshotName = "cached_gist"

// ErrMiss is returned by Lookup when no valid page is cached.
var ErrMiss = errors.New("cache: miss")

// Store manages persistence of rendered pages and the catalog snapshot.
type Store struct {
	db    *db.DB
	names map[string]string
}

// NewStore creates a new cache store. names are the lecture display names
// applied when a cached snapshot is decoded.
func NewStore(database *db.DB, names map[string]string) *Store {
	return &Store{db: database, names: names}
}

// Page is a rendered lecture article.
type Page struct {
	LectureID   string
	HTML        string
	Fingerprint string
	Settings    string
	RenderedAt  time.Time
}

// Cached is the stored snapshot plus its revision id.
type Cached struct {
	Snapshot *source.Snapshot
	Revision string
}

// GetPage returns the cached page for a lecture, or nil if there is none.
func (s *Store) GetPage(ctx context.Context, lectureID string) (*Page, error) {
	p := Page{LectureID: lectureID}
	err := s.db.QueryRowContext(ctx,
		`SELECT html, fingerprint, settings, rendered_at FROM pages WHERE lecture_id = ?`, lectureID,
	).Scan(&p.HTML, &p.Fingerprint, &p.Settings, &p.RenderedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}
	return &p, nil
}

// PutPage inserts or replaces a page.
func (s *Store) PutPage(ctx context.Context, p Page) error {
	if p.RenderedAt.IsZero() {
		p.RenderedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (lecture_id, html, fingerprint, settings, rendered_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(lecture_id) DO UPDATE SET html = excluded.html, fingerprint = excluded.fingerprint,
		     settings = excluded.settings, rendered_at = excluded.rendered_at`,
		p.LectureID, p.HTML, p.Fingerprint, p.Settings, p.RenderedAt,
	)
	if err != nil {
		return fmt.Errorf("storing page: %w", err)
	}
	return nil
}

// DeletePage removes one page.
func (s *Store) DeletePage(ctx context.Context, lectureID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE lecture_id = ?`, lectureID); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	return nil
}

// Clear removes every cached page and returns how many were dropped. The
// snapshot is kept so offline starts still have a catalog.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages`)
	if err != nil {
		return 0, fmt.Errorf("clearing pages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PageInfo summarizes a cached page without its body.
type PageInfo struct {
	LectureID   string    `json:"lecture_id"`
	Bytes       int       `json:"bytes"`
	Fingerprint string    `json:"fingerprint"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// Pages lists cached pages ordered by lecture id.
func (s *Store) Pages(ctx context.Context) ([]PageInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lecture_id, length(html), fingerprint, rendered_at FROM pages ORDER BY lecture_id`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []PageInfo
	for rows.Next() {
		var p PageInfo
		if err := rows.Scan(&p.LectureID, &p.Bytes, &p.Fingerprint, &p.RenderedAt); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetSnapshot returns the stored catalog snapshot, or nil if none was saved.
func (s *Store) GetSnapshot(ctx context.Context) (*Cached, error) {
	var c Cached
	var snap source.Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, fingerprint, etag, data, fetched_at FROM snapshots WHERE name = ?`, snapshotName,
	).Scan(&c.Revision, &snap.Fingerprint, &snap.ETag, &snap.Raw, &snap.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}

	decoded, err := source.Decode(snap.Raw, source.Options{Names: s.names})
	if err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	snap.Catalog = decoded.Catalog
	c.Snapshot = &snap
	return &c, nil
}

// PutSnapshot stores snap as the current snapshot. The revision changes only
// when the content fingerprint does; the returned bool reports that.
func (s *Store) PutSnapshot(ctx context.Context, snap *source.Snapshot) (string, bool, error) {
	var revision, fingerprint string
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, fingerprint FROM snapshots WHERE name = ?`, snapshotName,
	).Scan(&revision, &fingerprint)
	if err != nil && err != sql.ErrNoRows {
		return "", false, fmt.Errorf("reading snapshot revision: %w", err)
	}

	changed := err == sql.ErrNoRows || fingerprint != snap.Fingerprint
	if changed {
		revision = uuid.New().String()
	}

	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, revision, fingerprint, etag, data, fetched_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET revision = excluded.revision, fingerprint = excluded.fingerprint,
		   etag = excluded.etag, data = excluded.data, fetched_at = excluded.fetched_at`,
		snapshotName, revision, snap.Fingerprint, snap.ETag, snap.Raw, fetchedAt,
	)
	if err != nil {
		return "", false, fmt.Errorf("storing snapshot: %w", err)
	}
	return revision, changed, nil
}
