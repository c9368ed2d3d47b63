package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfvector/internal/archive"
	"pdfvector/internal/ingest"
)

// Mocks

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(raw []byte) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockIndexer struct{ mock.Mock }

func (m *MockIndexer) Upsert(ctx context.Context, namespace string, records []ingest.Record) (int, error) {
	args := m.Called(ctx, namespace, records)
	return args.Int(0), args.Error(1)
}

type MockRelocator struct{ mock.Mock }

func (m *MockRelocator) Relocate(src, dest string) error {
	args := m.Called(src, dest)
	return args.Error(0)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "archived")

	writeFile(t, srcDir, "a.pdf", "%PDF raw bytes")
	writeFile(t, srcDir, "b.txt", "not a document")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)

	ex.On("Extract", mock.Anything).Return("Hello world", nil).Once()
	em.On("Embed", mock.Anything, "Hello world").Return([]float32{0.1, 0.2, 0.3}, nil).Once()
	ix.On("Upsert", mock.Anything, "ns1", mock.MatchedBy(func(records []ingest.Record) bool {
		return len(records) == 1 &&
			records[0].ID == "a.pdf-0" &&
			records[0].Metadata.File == "a.pdf" &&
			records[0].Metadata.Page == 0
	})).Return(1, nil).Once()

	p := ingest.NewPipeline(ex, em, ix, archive.NewRelocator(), "ns1", 8000)

	err := p.Run(context.Background(), ingest.Job{ID: "job-1", SourceDir: srcDir, DestDir: destDir})
	assert.NoError(t, err)

	// a.pdf moved into the freshly created destination, b.txt untouched.
	_, err = os.Stat(filepath.Join(destDir, "a.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(srcDir, "a.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(srcDir, "b.txt"))
	assert.NoError(t, err)

	ex.AssertExpectations(t)
	em.AssertExpectations(t)
	ix.AssertExpectations(t)
}

func TestPipeline_Run_EmbeddingFailureMidFile(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, srcDir, "doc.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)
	rl := new(MockRelocator)

	// 10 characters with maxChunkSize=2 -> 5 chunks. Chunk index 2 fails.
	ex.On("Extract", mock.Anything).Return("aabbccddee", nil).Once()
	em.On("Embed", mock.Anything, "aa").Return([]float32{0.1}, nil).Once()
	em.On("Embed", mock.Anything, "bb").Return([]float32{0.2}, nil).Once()
	em.On("Embed", mock.Anything, "cc").Return(nil, errors.New("quota exceeded")).Once()

	p := ingest.NewPipeline(ex, em, ix, rl, "ns1", 2)

	err := p.Run(context.Background(), ingest.Job{ID: "job-2", SourceDir: srcDir, DestDir: destDir})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ingest.ErrEmbedding))

	// Nothing indexed, nothing moved.
	ix.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	rl.AssertNotCalled(t, "Relocate", mock.Anything, mock.Anything)
	_, statErr := os.Stat(filepath.Join(srcDir, "doc.pdf"))
	assert.NoError(t, statErr)

	em.AssertExpectations(t)
}

func TestPipeline_Run_EmbeddingAlwaysFails(t *testing.T) {
	srcDir := t.TempDir()

	writeFile(t, srcDir, "doc.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)
	rl := new(MockRelocator)

	ex.On("Extract", mock.Anything).Return("some content", nil)
	em.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("service unavailable"))

	p := ingest.NewPipeline(ex, em, ix, rl, "ns1", 8000)

	err := p.Run(context.Background(), ingest.Job{ID: "job-3", SourceDir: srcDir, DestDir: t.TempDir()})
	assert.True(t, errors.Is(err, ingest.ErrEmbedding))

	ix.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	rl.AssertNotCalled(t, "Relocate", mock.Anything, mock.Anything)
	_, statErr := os.Stat(filepath.Join(srcDir, "doc.pdf"))
	assert.NoError(t, statErr)
}

func TestPipeline_Run_IndexWriteFailure(t *testing.T) {
	srcDir := t.TempDir()

	writeFile(t, srcDir, "doc.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)
	rl := new(MockRelocator)

	ex.On("Extract", mock.Anything).Return("some content", nil).Once()
	em.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil).Once()
	ix.On("Upsert", mock.Anything, "ns1", mock.Anything).Return(0, errors.New("store down")).Once()

	p := ingest.NewPipeline(ex, em, ix, rl, "ns1", 8000)

	err := p.Run(context.Background(), ingest.Job{ID: "job-4", SourceDir: srcDir, DestDir: t.TempDir()})
	assert.True(t, errors.Is(err, ingest.ErrIndexWrite))

	rl.AssertNotCalled(t, "Relocate", mock.Anything, mock.Anything)
	ix.AssertExpectations(t)
}

func TestPipeline_Run_UnparseableFileSkipped(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, srcDir, "bad.pdf", "garbage")
	writeFile(t, srcDir, "good.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)

	ex.On("Extract", []byte("garbage")).Return("", errors.New("invalid header")).Once()
	ex.On("Extract", []byte("raw")).Return("fine", nil).Once()
	em.On("Embed", mock.Anything, "fine").Return([]float32{0.9}, nil).Once()
	ix.On("Upsert", mock.Anything, "ns1", mock.Anything).Return(1, nil).Once()

	p := ingest.NewPipeline(ex, em, ix, archive.NewRelocator(), "ns1", 8000)

	// The unparseable file is skipped; the job still succeeds.
	err := p.Run(context.Background(), ingest.Job{ID: "job-5", SourceDir: srcDir, DestDir: destDir})
	assert.NoError(t, err)

	// bad.pdf left in place, good.pdf archived.
	_, statErr := os.Stat(filepath.Join(srcDir, "bad.pdf"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(destDir, "good.pdf"))
	assert.NoError(t, statErr)

	ex.AssertExpectations(t)
}

func TestPipeline_Run_EmptyDocument(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, srcDir, "empty.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)

	ex.On("Extract", mock.Anything).Return("", nil).Once()

	p := ingest.NewPipeline(ex, em, ix, archive.NewRelocator(), "ns1", 8000)

	err := p.Run(context.Background(), ingest.Job{ID: "job-6", SourceDir: srcDir, DestDir: destDir})
	assert.NoError(t, err)

	// Zero embedding and index calls, but the file is still archived.
	em.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	ix.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	_, statErr := os.Stat(filepath.Join(destDir, "empty.pdf"))
	assert.NoError(t, statErr)
}

func TestPipeline_Run_RelocationFailureDoesNotFailJob(t *testing.T) {
	srcDir := t.TempDir()

	writeFile(t, srcDir, "doc.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)
	rl := new(MockRelocator)

	ex.On("Extract", mock.Anything).Return("content", nil).Once()
	em.On("Embed", mock.Anything, "content").Return([]float32{0.1}, nil).Once()
	ix.On("Upsert", mock.Anything, "ns1", mock.Anything).Return(1, nil).Once()
	rl.On("Relocate", mock.Anything, mock.Anything).Return(errors.New("read-only filesystem")).Once()

	p := ingest.NewPipeline(ex, em, ix, rl, "ns1", 8000)

	// Vectors are durable; a failed move is degraded but not a job failure.
	err := p.Run(context.Background(), ingest.Job{ID: "job-7", SourceDir: srcDir, DestDir: t.TempDir()})
	assert.NoError(t, err)

	rl.AssertExpectations(t)
}

func TestPipeline_Run_ChunkOrderPreserved(t *testing.T) {
	srcDir := t.TempDir()

	writeFile(t, srcDir, "doc.pdf", "raw")

	ex := new(MockExtractor)
	em := new(MockEmbedder)
	ix := new(MockIndexer)

	ex.On("Extract", mock.Anything).Return("abcdef", nil).Once()
	em.On("Embed", mock.Anything, "ab").Return([]float32{1}, nil).Once()
	em.On("Embed", mock.Anything, "cd").Return([]float32{2}, nil).Once()
	em.On("Embed", mock.Anything, "ef").Return([]float32{3}, nil).Once()
	ix.On("Upsert", mock.Anything, "ns1", mock.MatchedBy(func(records []ingest.Record) bool {
		if len(records) != 3 {
			return false
		}
		for i, rec := range records {
			if rec.Metadata.Page != i || rec.ID != "doc.pdf-"+string(rune('0'+i)) {
				return false
			}
		}
		return records[0].Values[0] == 1 && records[1].Values[0] == 2 && records[2].Values[0] == 3
	})).Return(3, nil).Once()

	p := ingest.NewPipeline(ex, em, ix, archive.NewRelocator(), "ns1", 2)

	err := p.Run(context.Background(), ingest.Job{ID: "job-8", SourceDir: srcDir, DestDir: t.TempDir()})
	assert.NoError(t, err)
	ix.AssertExpectations(t)
}

func TestPipeline_Run_MissingSourceDir(t *testing.T) {
	p := ingest.NewPipeline(new(MockExtractor), new(MockEmbedder), new(MockIndexer), new(MockRelocator), "ns1", 8000)

	err := p.Run(context.Background(), ingest.Job{ID: "job-9", SourceDir: "/does/not/exist", DestDir: t.TempDir()})
	assert.Error(t, err)
}
