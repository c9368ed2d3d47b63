package ingest

import "errors"

var (
	// ErrExtraction is returned when a document's bytes cannot be parsed.
	// Fatal for the file only: it is skipped and left in place.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding is returned on any embedding service failure. Aborts the
	// file and fails the job; partially embedded chunks are discarded.
	ErrEmbedding = errors.New("embedding service failure")

	// ErrIndexWrite is returned when the vector store rejects an upsert.
	// Treated the same as an embedding failure.
	ErrIndexWrite = errors.New("vector index write failed")

	// ErrRelocation is returned when a processed file cannot be moved to the
	// archive. Logged as degraded; the indexed vectors are already durable.
	ErrRelocation = errors.New("file relocation failed")
)
