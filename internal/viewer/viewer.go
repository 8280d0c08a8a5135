// Package viewer runs the rendering loop: fetch the catalog, build the
// sidebar, render the selected lecture and keep rendered pages cached.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ziadkadry99/lecturedoc/internal/cache"
	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/source"
)

var (
	// ErrNotFound is returned for lecture ids that are not in the catalog.
	ErrNotFound = errors.New("viewer: lecture not found")
	// ErrNoSnapshot is returned when nothing has been loaded yet.
	ErrNoSnapshot = errors.New("viewer: no catalog loaded")
)

// Viewer holds the current catalog and serves rendered lectures.
type Viewer struct {
	fetcher  source.Fetcher
	cache    *cache.Store
	renderer *render.Renderer
	logger   *slog.Logger

	include []string
	exclude []string

	loadMu sync.Mutex // serializes fetches

	mu      sync.RWMutex
	current *source.Snapshot // catalog being displayed
	fresh   *source.Snapshot // confirmed by the host; nil while offline
	catalog *catalog.Catalog // current catalog after filters
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithFilter limits the displayed lectures to ids matching include and not
// matching exclude.
func WithFilter(include, exclude []string) Option {
	return func(v *Viewer) {
		v.include = include
		v.exclude = exclude
	}
}

// New creates a Viewer. Nothing is fetched until Load is called.
func New(fetcher source.Fetcher, store *cache.Store, renderer *render.Renderer, logger *slog.Logger, opts ...Option) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Viewer{
		fetcher:  fetcher,
		cache:    store,
		renderer: renderer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the catalog. When the host is unreachable and a snapshot was
// cached earlier, the viewer continues offline on that snapshot.
func (v *Viewer) Load(ctx context.Context) error {
	v.loadMu.Lock()
	defer v.loadMu.Unlock()

	cached, err := v.cache.GetSnapshot(ctx)
	if err != nil {
		return err
	}
	var etag string
	if cached != nil {
		etag = cached.Snapshot.ETag
	}

	snap, err := v.fetcher.Fetch(ctx, etag)
	switch {
	case err == nil:
		v.logger.Debug("catalog fetched", "source", v.fetcher.Location(), "lectures", snap.Catalog.Len(), "fingerprint", short(snap.Fingerprint))
		return v.install(snap, snap)

	case errors.Is(err, source.ErrNotModified) && cached != nil:
		v.logger.Debug("catalog not modified", "source", v.fetcher.Location())
		return v.install(cached.Snapshot, cached.Snapshot)

	case cached != nil && ctx.Err() == nil:
		v.logger.Warn("fetch failed, using cached catalog", "source", v.fetcher.Location(), "error", err)
		return v.install(cached.Snapshot, nil)

	default:
		return fmt.Errorf("loading catalog: %w", err)
	}
}

// Refresh fetches the catalog again and reports whether its content
// changed. On failure the current catalog stays in place.
func (v *Viewer) Refresh(ctx context.Context) (bool, error) {
	v.loadMu.Lock()
	defer v.loadMu.Unlock()

	v.mu.RLock()
	prev := v.current
	v.mu.RUnlock()

	var etag string
	if prev != nil {
		etag = prev.ETag
	}

	snap, err := v.fetcher.Fetch(ctx, etag)
	if errors.Is(err, source.ErrNotModified) && prev != nil {
		v.mu.Lock()
		v.fresh = prev
		v.mu.Unlock()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("refreshing catalog: %w", err)
	}

	changed := prev == nil || prev.Fingerprint != snap.Fingerprint
	if err := v.install(snap, snap); err != nil {
		return false, err
	}
	if changed {
		v.logger.Info("catalog changed", "lectures", snap.Catalog.Len(), "fingerprint", short(snap.Fingerprint))
	}
	return changed, nil
}

func (v *Viewer) install(current, fresh *source.Snapshot) error {
	filtered, err := current.Catalog.Filter(v.include, v.exclude)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.current = current
	v.fresh = fresh
	v.catalog = filtered
	v.mu.Unlock()
	return nil
}

// Result is a rendered lecture article.
type Result struct {
	LectureID string
	Name      string
	HTML      string
	FromCache bool
}

// Select returns the article for a lecture, from the cache when it is still
// valid, otherwise rendered and stored.
func (v *Viewer) Select(ctx context.Context, id string) (*Result, error) {
	v.mu.RLock()
	current, fresh, cat := v.current, v.fresh, v.catalog
	v.mu.RUnlock()
	if current == nil {
		return nil, ErrNoSnapshot
	}

	lecture, ok := cat.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	res := &Result{LectureID: id, Name: lecture.Name}
	settings := v.renderer.Settings(lecture)

	html, err := v.cache.Lookup(ctx, id, fresh, settings)
	if err == nil {
		v.logger.Debug("cache hit", "lecture", id)
		res.HTML = html
		res.FromCache = true
		return res, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}

	validity, err := v.cache.Validate(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if validity == cache.Stale {
		v.logger.Debug("catalog changed, invalidating cached pages")
		if err := v.cache.Invalidate(ctx); err != nil {
			return nil, err
		}
	}

	html, err = v.renderer.Lecture(lecture)
	if err != nil {
		return nil, err
	}
	if err := v.cache.Remember(ctx, current, id, settings, html); err != nil {
		return nil, err
	}
	v.logger.Debug("rendered lecture", "lecture", id, "bytes", len(html))

	res.HTML = html
	return res, nil
}

// Catalog returns the displayed catalog, or nil before Load.
func (v *Viewer) Catalog() *catalog.Catalog {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.catalog
}

// Snapshot returns the snapshot being displayed, or nil before Load.
func (v *Viewer) Snapshot() *source.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Offline reports whether the displayed catalog came from the cache because
// the host could not be reached.
func (v *Viewer) Offline() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current != nil && v.fresh == nil
}

// Lecture looks up a lecture in the displayed catalog.
func (v *Viewer) Lecture(id string) (*catalog.Lecture, error) {
	cat := v.Catalog()
	if cat == nil {
		return nil, ErrNoSnapshot
	}
	l, ok := cat.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, nil
}

// Default is the lecture shown when none is selected: the first one.
func (v *Viewer) Default() (string, bool) {
	return v.Catalog().First()
}

// Nav renders the sidebar for the given selection.
func (v *Viewer) Nav(state render.NavState, link render.LinkFunc) (string, error) {
	cat := v.Catalog()
	if cat == nil {
		return "", ErrNoSnapshot
	}
	return render.Nav(cat, state, link)
}

// NavItems returns the sidebar model for the given selection.
func (v *Viewer) NavItems(state render.NavState, link render.LinkFunc) []render.NavItem {
	return render.NavItems(v.Catalog(), state, link)
}

// Renderer returns the renderer used for articles.
func (v *Viewer) Renderer() *render.Renderer { return v.renderer }

// Cache returns the page cache.
func (v *Viewer) Cache() *cache.Store { return v.cache }

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
