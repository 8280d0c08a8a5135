package vectordb

// Document is one searchable lecture section.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata locates a section within the catalog.
type DocumentMetadata struct {
	LectureID   string
	LectureName string
	SectionKey  string
	Heading     string
	Index       int // 1-based position within the lecture
	Fingerprint string
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows results by metadata fields.
type SearchFilter struct {
	LectureID *string
}
