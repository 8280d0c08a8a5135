package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/lecturedoc/internal/source"
)

// Validity is the outcome of comparing a fresh snapshot with the cached one.
type Validity int

const (
	// Trusted means cached pages may be served.
	Trusted Validity = iota
	// Stale means the remote catalog changed since pages were rendered.
	Stale
)

func (v Validity) String() string {
	if v == Trusted {
		return "trusted"
	}
	return "stale"
}

// Validate compares fresh against the stored snapshot. A nil fresh snapshot
// means nothing newer is known yet (offline, or the fetch is still pending),
// so the cache is trusted as it is.
func (s *Store) Validate(ctx context.Context, fresh *source.Snapshot) (Validity, error) {
	if fresh == nil {
		return Trusted, nil
	}
	cached, err := s.GetSnapshot(ctx)
	if err != nil {
		return Stale, err
	}
	if cached == nil || cached.Snapshot.Fingerprint != fresh.Fingerprint {
		return Stale, nil
	}
	return Trusted, nil
}

// Lookup returns the cached article for a lecture when the cache is trusted,
// the page was rendered from the current snapshot and with the given render
// settings. It returns ErrMiss otherwise.
func (s *Store) Lookup(ctx context.Context, lectureID string, fresh *source.Snapshot, settings string) (string, error) {
	v, err := s.Validate(ctx, fresh)
	if err != nil {
		return "", err
	}
	if v != Trusted {
		return "", ErrMiss
	}

	page, err := s.GetPage(ctx, lectureID)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", ErrMiss
	}
	if fresh != nil && page.Fingerprint != fresh.Fingerprint {
		return "", ErrMiss
	}
	if page.Settings != settings {
		return "", ErrMiss
	}
	return page.HTML, nil
}

// Invalidate drops every rendered page.
func (s *Store) Invalidate(ctx context.Context) error {
	_, err := s.Clear(ctx)
	return err
}

// Remember stores the snapshot first, then the page rendered from it with
// the given render settings.
func (s *Store) Remember(ctx context.Context, snap *source.Snapshot, lectureID, settings, html string) error {
	if snap == nil {
		return fmt.Errorf("remember %s: no snapshot", lectureID)
	}
	if _, _, err := s.PutSnapshot(ctx, snap); err != nil {
		return err
	}
	return s.PutPage(ctx, Page{
		LectureID:   lectureID,
		HTML:        html,
		Fingerprint: snap.Fingerprint,
		Settings:    settings,
	})
}

// Stats describes the cache contents.
type Stats struct {
	Pages       int        `json:"pages"`
	Bytes       int64      `json:"bytes"`
	Revision    string     `json:"revision,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	ETag        string     `json:"etag,omitempty"`
	FetchedAt   *time.Time `json:"fetched_at,omitempty"`
	Lectures    int        `json:"lectures"`
	PageList    []PageInfo `json:"page_list"`
}

// Stats summarizes pages and the stored snapshot.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	pages, err := s.Pages(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Pages: len(pages), PageList: pages}
	if st.PageList == nil {
		st.PageList = []PageInfo{}
	}
	for _, p := range pages {
		st.Bytes += int64(p.Bytes)
	}

	cached, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		st.Revision = cached.Revision
		st.Fingerprint = cached.Snapshot.Fingerprint
		st.ETag = cached.Snapshot.ETag
		fetched := cached.Snapshot.FetchedAt
		st.FetchedAt = &fetched
		st.Lectures = cached.Snapshot.Catalog.Len()
	}
	return st, nil
}
