package ingest

import (
	"context"
)

// Job describes one unit of queued work: ingest every PDF under SourceDir and
// archive processed files into DestDir.
type Job struct {
	ID        string
	SourceDir string
	DestDir   string
}

// Record is the unit persisted into the vector store. ID is deterministic per
// (file, chunk), "<file>-<chunkIndex>", so re-ingestion overwrites in place.
type Record struct {
	ID       string
	Values   []float32
	Metadata RecordMetadata
}

type RecordMetadata struct {
	File string
	Page int
}

type Extractor interface {
	Extract(raw []byte) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Indexer interface {
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)
}

type Relocator interface {
	Relocate(src, dest string) error
}
