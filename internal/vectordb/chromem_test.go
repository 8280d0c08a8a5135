package vectordb

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Shared characters contribute to the same positions, so similar texts get
// similar vectors.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func testDocs() []Document {
	return []Document{
		{
			ID:      "2673357/1",
			Content: "Groups, rings and fields with their axioms",
			Metadata: DocumentMetadata{
				LectureID: "2673357", LectureName: "Algebra", SectionKey: "1",
				Heading: "Algebraic structures", Index: 1, Fingerprint: "f1",
			},
		},
		{
			ID:      "2673357/2",
			Content: "Graphs, trees and spanning trees",
			Metadata: DocumentMetadata{
				LectureID: "2673357", LectureName: "Algebra", SectionKey: "2",
				Heading: "Graph theory", Index: 2, Fingerprint: "f1",
			},
		},
		{
			ID:      "2657588/1",
			Content: "Logic gates AND OR NOT and boolean algebra",
			Metadata: DocumentMetadata{
				LectureID: "2657588", LectureName: "Digital systems", SectionKey: "1",
				Heading: "Gates", Index: 1, Fingerprint: "f1",
			},
		},
	}
}

func newStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := store.AddDocuments(context.Background(), testDocs()); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	return store
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	store := newStore(t)

	if count := store.Count(); count != 3 {
		t.Errorf("Count: got %d, want 3", count)
	}

	results, err := store.Search(context.Background(), "logic gates", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || len(results) > 2 {
		t.Fatalf("Search returned %d results", len(results))
	}
	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
		if r.Document.Metadata.LectureID == "" || r.Document.Metadata.Index == 0 {
			t.Errorf("metadata not restored: %+v", r.Document.Metadata)
		}
	}
}

func TestChromemStore_LimitClampedToCount(t *testing.T) {
	store := newStore(t)
	results, err := store.Search(context.Background(), "anything", 50, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestChromemStore_SearchWithFilter(t *testing.T) {
	store := newStore(t)

	id := "2657588"
	results, err := store.Search(context.Background(), "algebra", 10, &SearchFilter{LectureID: &id})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Document.Metadata.LectureID != id {
		t.Errorf("unexpected lecture %s", results[0].Document.Metadata.LectureID)
	}
}

func TestChromemStore_EmptySearch(t *testing.T) {
	ctx := context.Background()
	store, err := NewChromemStore(newMockEmbedder(8))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count: got %d", store.Count())
	}
	results, err := store.Search(ctx, "x", 5, nil)
	if err != nil || results != nil {
		t.Errorf("empty store search: %v, %v", results, err)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newStore(t)

	if Exists(dir) {
		t.Fatal("nothing persisted yet")
	}
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected persisted file")
	}

	loaded, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := loaded.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != 3 {
		t.Errorf("loaded Count: got %d, want 3", loaded.Count())
	}
}

// batchRecorder records the size of every Embed call.
type batchRecorder struct {
	mockEmbedder
	sizes []int
	short bool
}

func (b *batchRecorder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b.sizes = append(b.sizes, len(texts))
	vecs, err := b.mockEmbedder.Embed(ctx, texts)
	if b.short {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, err
}

func TestChromemStore_EmbedsInBatches(t *testing.T) {
	rec := &batchRecorder{mockEmbedder: mockEmbedder{dims: 16}}
	store, err := NewChromemStore(rec)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := make([]Document, 70)
	for i := range docs {
		docs[i] = Document{
			ID:       fmt.Sprintf("1/%d", i),
			Content:  fmt.Sprintf("section %d", i),
			Metadata: DocumentMetadata{LectureID: "1", Index: i + 1},
		}
	}
	if err := store.AddDocuments(context.Background(), docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if len(rec.sizes) != 2 || rec.sizes[0] != 64 || rec.sizes[1] != 6 {
		t.Errorf("batch sizes = %v", rec.sizes)
	}
	if store.Count() != 70 {
		t.Errorf("Count = %d", store.Count())
	}
}

func TestChromemStore_EmbeddingCountMismatch(t *testing.T) {
	rec := &batchRecorder{mockEmbedder: mockEmbedder{dims: 16}, short: true}
	store, err := NewChromemStore(rec)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := store.AddDocuments(context.Background(), testDocs()); err == nil {
		t.Fatal("expected an error when the embedder drops sections")
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("äbc", 5); got != "äbc" {
		t.Errorf("short: %q", got)
	}
	if got := Snippet("äbcdef", 3); got != "äbc..." {
		t.Errorf("long: %q", got)
	}
}
