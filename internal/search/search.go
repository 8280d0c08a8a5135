// Package search maintains a semantic index of lecture sections.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/embeddings"
	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/vectordb"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("search: query is required")

const stateFile = "state.json"

// State describes what the index was built from.
type State struct {
	Fingerprint string    `json:"fingerprint"`
	Model       string    `json:"model"`
	Documents   int       `json:"documents"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	defaultLimit = 8
	maxLimit     = 20
)

// StoreFunc creates an empty vector store.
type StoreFunc func() (vectordb.VectorStore, error)

// Index is a vector index over every section of a catalog.
type Index struct {
	dir      string
	model    string
	newStore StoreFunc

	buildMu sync.Mutex // serializes rebuilds

	mu    sync.RWMutex
	store vectordb.VectorStore
	state State
}

// Open creates an index persisted in dir, loading the previous build when it
// was made with the same embedding model. An empty dir keeps the index in
// memory only.
func Open(ctx context.Context, dir string, embedder embeddings.Embedder) (*Index, error) {
	ix, err := NewIndex(dir, embedder.Name(), func() (vectordb.VectorStore, error) {
		return vectordb.NewChromemStore(embedder)
	})
	if err != nil {
		return nil, err
	}
	if dir == "" || !vectordb.Exists(dir) {
		return ix, nil
	}

	state, err := loadState(dir)
	if err != nil {
		return nil, err
	}
	if state.Model != embedder.Name() {
		return ix, nil
	}
	if err := ix.store.Load(ctx, dir); err != nil {
		return nil, fmt.Errorf("loading search index: %w", err)
	}
	ix.state = *state
	return ix, nil
}

// NewIndex creates an empty index. newStore is called once now and again for
// every rebuild.
func NewIndex(dir, model string, newStore StoreFunc) (*Index, error) {
	store, err := newStore()
	if err != nil {
		return nil, err
	}
	return &Index{dir: dir, model: model, newStore: newStore, store: store}, nil
}

// State returns what the index currently holds.
func (ix *Index) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// Current reports whether the index was built from the given fingerprint.
func (ix *Index) Current(fingerprint string) bool {
	st := ix.State()
	return st.Fingerprint == fingerprint && st.Model == ix.model
}

// Sync rebuilds the index when the catalog fingerprint differs from the one
// it was built from. It reports whether a rebuild happened.
func (ix *Index) Sync(ctx context.Context, cat *catalog.Catalog, fingerprint string, rep progress.Reporter) (bool, error) {
	if ix.Current(fingerprint) {
		return false, nil
	}
	if err := ix.Rebuild(ctx, cat, fingerprint, rep); err != nil {
		return false, err
	}
	return true, nil
}

// Rebuild indexes the sections of cat into a new store and swaps it in once
// every lecture is embedded. On error the previous contents stay searchable.
func (ix *Index) Rebuild(ctx context.Context, cat *catalog.Catalog, fingerprint string, rep progress.Reporter) error {
	if rep == nil {
		rep = progress.Discard{}
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	store, err := ix.newStore()
	if err != nil {
		return err
	}

	rep.Start(cat.Len())
	for i, l := range cat.Lectures {
		if err := store.AddDocuments(ctx, LectureDocuments(&l, fingerprint)); err != nil {
			return fmt.Errorf("indexing lecture %s: %w", l.ID, err)
		}
		rep.Update(i+1, l.Name)
	}
	rep.Finish()

	state := State{
		Fingerprint: fingerprint,
		Model:       ix.model,
		Documents:   store.Count(),
		UpdatedAt:   time.Now().UTC(),
	}

	ix.mu.Lock()
	ix.store = store
	ix.state = state
	ix.mu.Unlock()

	if ix.dir == "" {
		return nil
	}
	if err := store.Persist(ctx, ix.dir); err != nil {
		return fmt.Errorf("persisting search index: %w", err)
	}
	return saveState(ix.dir, state)
}

// Hit is one matching section.
type Hit struct {
	LectureID   string  `json:"lecture_id"`
	LectureName string  `json:"lecture_name"`
	SectionKey  string  `json:"section_key"`
	Heading     string  `json:"heading"`
	Index       int     `json:"index"`
	Anchor      string  `json:"anchor"`
	Similarity  float64 `json:"similarity"`
	Snippet     string  `json:"snippet"`
}

// Search returns the sections most similar to query. A non-empty lectureID
// restricts results to that lecture. limit defaults to 8 and is capped at 20.
func (ix *Index) Search(ctx context.Context, query string, limit int, lectureID string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	var filter *vectordb.SearchFilter
	if lectureID != "" {
		filter = &vectordb.SearchFilter{LectureID: &lectureID}
	}

	ix.mu.RLock()
	results, err := ix.store.Search(ctx, query, limit, filter)
	ix.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		md := r.Document.Metadata
		hits[i] = Hit{
			LectureID:   md.LectureID,
			LectureName: md.LectureName,
			SectionKey:  md.SectionKey,
			Heading:     md.Heading,
			Index:       md.Index,
			Anchor:      catalog.ToID(md.SectionKey),
			Similarity:  float64(r.Similarity),
			Snippet:     vectordb.Snippet(r.Document.Content, 300),
		}
	}
	return hits, nil
}

// LectureDocuments turns each section of a lecture into a search document
// with id "<lecture>/<section>".
func LectureDocuments(l *catalog.Lecture, fingerprint string) []vectordb.Document {
	docs := make([]vectordb.Document, 0, len(l.Sections))
	for i, s := range l.Sections {
		heading := s.Heading()
		content := strings.TrimSpace(render.StripTimestamps(s.Content))
		if content == "" {
			content = heading
		}
		docs = append(docs, vectordb.Document{
			ID:      l.ID + "/" + s.Key,
			Content: content,
			Metadata: vectordb.DocumentMetadata{
				LectureID:   l.ID,
				LectureName: l.Name,
				SectionKey:  s.Key,
				Heading:     heading,
				Index:       i + 1,
				Fingerprint: fingerprint,
			},
		})
	}
	return docs
}

func loadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("reading search state: %w", err)
	}
	return &st, nil
}

func saveState(dir string, st State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}
