package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/lecturedoc/internal/cache"
	"github.com/ziadkadry99/lecturedoc/internal/config"
	"github.com/ziadkadry99/lecturedoc/internal/db"
	"github.com/ziadkadry99/lecturedoc/internal/embeddings"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/source"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lecturedoc init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openCache opens the page cache database, creating its directory.
func openCache(cfg *config.Config) (*db.DB, *cache.Store, error) {
	if dir := filepath.Dir(cfg.CachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	database, err := db.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	return database, cache.NewStore(database, cfg.Courses), nil
}

// openViewer wires the fetcher, cache and renderer described by cfg. The
// returned database must be closed by the caller.
func openViewer(cfg *config.Config) (*viewer.Viewer, *db.DB, error) {
	fetcher, err := source.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	database, store, err := openCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	v := viewer.New(fetcher, store, render.NewRenderer(cfg.SectionLink), newLogger(),
		viewer.WithFilter(cfg.Include, cfg.Exclude))
	return v, database, nil
}

// loadViewer opens the viewer and loads the catalog, falling back to the
// cached copy when the source is unreachable.
func loadViewer(ctx context.Context, cfg *config.Config) (*viewer.Viewer, *db.DB, error) {
	v, database, err := openViewer(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := v.Load(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	if v.Offline() {
		fmt.Fprintln(os.Stderr, "Source unreachable, showing the cached catalog.")
	}
	return v, database, nil
}

// openIndex opens the search index, or returns nil when search is disabled.
func openIndex(ctx context.Context, cfg *config.Config) (*search.Index, error) {
	if !cfg.Search.Enabled() {
		return nil, nil
	}
	embedder, err := embeddings.FromConfig(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return search.Open(ctx, cfg.Search.IndexDir, embedder)
}
