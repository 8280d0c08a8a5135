package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/lecturedoc/internal/embeddings"
)

const (
	collectionName = "sections"
	exportFile     = "sections.gob.gz"

	// embedBatch is how many sections are sent to the embedder at once.
	embedBatch = 64
)

// ChromemStore implements VectorStore using chromem-go. Section embeddings
// are computed in batches by the embedder; chromem only embeds queries.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates an empty in-memory store.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col, embedder: embedder, embedFunc: ef}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatch {
		batch := docs[start:min(start+embedBatch, len(docs))]
		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding sections: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("%s returned %d embeddings for %d sections", s.embedder.Name(), len(vecs), len(batch))
		}
		for i, doc := range batch {
			chromDocs = append(chromDocs, chromem.Document{
				ID:        doc.ID,
				Content:   doc.Content,
				Metadata:  metadataToMap(doc.Metadata),
				Embedding: vecs[i],
			})
		}
	}
	return s.collection.AddDocuments(ctx, chromDocs, runtime.NumCPU())
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return s.db.ExportToFile(filepath.Join(dir, exportFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, exportFile), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Exists reports whether a persisted store is present in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, exportFile))
	return err == nil
}

func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"lecture_id":   m.LectureID,
		"lecture_name": m.LectureName,
		"section_key":  m.SectionKey,
		"heading":      m.Heading,
		"index":        strconv.Itoa(m.Index),
		"fingerprint":  m.Fingerprint,
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	index, _ := strconv.Atoi(m["index"])
	return DocumentMetadata{
		LectureID:   m["lecture_id"],
		LectureName: m["lecture_name"],
		SectionKey:  m["section_key"],
		Heading:     m["heading"],
		Index:       index,
		Fingerprint: m["fingerprint"],
	}
}

func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil || filter.LectureID == nil {
		return nil
	}
	return map[string]string{"lecture_id": *filter.LectureID}
}
