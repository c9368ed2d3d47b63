package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pdfvector/internal/text"
)

// Pipeline runs one job end to end: enumerate the source directory, and for
// each PDF run extract -> chunk -> embed -> index -> archive. Files are
// processed sequentially to bound embedding request rate; per file, chunk
// order is preserved through embedding and indexing.
type Pipeline struct {
	extractor Extractor
	embedder  Embedder
	indexer   Indexer
	relocator Relocator

	namespace    string
	maxChunkSize int
}

func NewPipeline(ex Extractor, em Embedder, ix Indexer, rl Relocator, namespace string, maxChunkSize int) *Pipeline {
	return &Pipeline{
		extractor:    ex,
		embedder:     em,
		indexer:      ix,
		relocator:    rl,
		namespace:    namespace,
		maxChunkSize: maxChunkSize,
	}
}

// Run processes every entry of job.SourceDir in directory-listing order.
// Non-PDF entries are logged as skipped and never touched. An unparseable PDF
// is skipped and the job continues; an embedding or index failure aborts the
// job immediately so the queue can redeliver it. Relocation failures are
// logged but do not fail the job; the vectors are already durable.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	slog.InfoContext(ctx, "job started", "job_id", job.ID, "source_dir", job.SourceDir, "dest_dir", job.DestDir)

	entries, err := os.ReadDir(job.SourceDir)
	if err != nil {
		return fmt.Errorf("read source directory %s: %w", job.SourceDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			slog.InfoContext(ctx, "skipped: not a pdf", "job_id", job.ID, "file", name)
			continue
		}

		if err := p.processFile(ctx, job, name); err != nil {
			if errors.Is(err, ErrExtraction) {
				slog.ErrorContext(ctx, "unparseable document, skipping file", "job_id", job.ID, "file", name, "error", err)
				continue
			}
			slog.ErrorContext(ctx, "file processing failed", "job_id", job.ID, "file", name, "error", err)
			return err
		}
	}

	slog.InfoContext(ctx, "all pdf files processed", "job_id", job.ID)
	return nil
}

func (p *Pipeline) processFile(ctx context.Context, job Job, name string) error {
	src := filepath.Join(job.SourceDir, name)
	dest := filepath.Join(job.DestDir, name)

	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	slog.InfoContext(ctx, "extracting text", "job_id", job.ID, "file", name)
	extracted, err := p.extractor.Extract(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExtraction, name, err)
	}

	chunks := text.Split(extracted, p.maxChunkSize)
	slog.InfoContext(ctx, "text chunked", "job_id", job.ID, "file", name, "chunks", len(chunks))

	// An empty document produces zero chunks: nothing to embed or index, but
	// the file is still archived as processed.
	if len(chunks) > 0 {
		records := make([]Record, 0, len(chunks))
		for i, chunk := range chunks {
			slog.InfoContext(ctx, "embedding chunk", "job_id", job.ID, "file", name, "chunk_index", i)
			vector, err := p.embedder.Embed(ctx, chunk)
			if err != nil {
				return fmt.Errorf("%w: %s chunk %d: %v", ErrEmbedding, name, i, err)
			}
			records = append(records, Record{
				ID:       name + "-" + strconv.Itoa(i),
				Values:   vector,
				Metadata: RecordMetadata{File: name, Page: i},
			})
		}

		slog.InfoContext(ctx, "indexing vectors", "job_id", job.ID, "file", name, "count", len(records))
		written, err := p.indexer.Upsert(ctx, p.namespace, records)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrIndexWrite, name, err)
		}
		slog.InfoContext(ctx, "vectors indexed", "job_id", job.ID, "file", name, "written", written)
	}

	if err := p.relocator.Relocate(src, dest); err != nil {
		// Relocation failure does not fail the job.
		slog.ErrorContext(ctx, "archive move failed", "job_id", job.ID, "file", name,
			"error", fmt.Errorf("%w: %v", ErrRelocation, err))
		return nil
	}

	slog.InfoContext(ctx, "file archived", "job_id", job.ID, "file", name, "dest", dest)
	return nil
}
