package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
	"github.com/Divas-Gupta30/support-triage/internal/processing"
)

// ChunkEmbedder embeds a batch of chunks.
type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error)
}

// PassageSink stores one embedded passage.
type PassageSink interface {
	Insert(ctx context.Context, source string, p graph.Passage, embedding []float32) error
}

// Pipeline loads CSV knowledge-base files into the passage store.
type Pipeline struct {
	chunker  *processing.Chunker
	embedder ChunkEmbedder
	sink     PassageSink
	now      func() time.Time
}

func NewPipeline(chunker *processing.Chunker, embedder ChunkEmbedder, sink PassageSink) *Pipeline {
	return &Pipeline{chunker: chunker, embedder: embedder, sink: sink, now: time.Now}
}

// IngestFile renders, chunks, embeds and stores every row of one CSV file.
// It returns the number of chunks stored.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	rows, err := ExtractRows(path)
	if err != nil {
		return 0, fmt.Errorf("extracting %s: %w", path, err)
	}
	golog.Infof("Loaded %d rows from %s", len(rows), path)

	source := filepath.Base(path)
	imported := p.now()

	var (
		chunks []string
		metas  []processing.Metadata
	)
	for i, row := range rows {
		parts, err := p.chunker.ChunkText(row)
		if err != nil {
			return 0, fmt.Errorf("chunking row %d: %w", i+1, err)
		}
		for j, part := range parts {
			chunks = append(chunks, part)
			metas = append(metas, processing.Metadata{Source: source, Row: i + 1, Chunk: j, ImportedAt: imported})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	golog.Infof("Split %s into %d chunks", source, len(chunks))

	embs, err := p.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	stored := 0
	for i, chunk := range chunks {
		passage := graph.Passage{Content: chunk, Metadata: metas[i].Map()}
		if err := p.sink.Insert(ctx, source, passage, embs[i]); err != nil {
			return stored, fmt.Errorf("storing chunk %d of %s: %w", i, source, err)
		}
		stored++
	}
	return stored, nil
}

// IngestPath ingests every CSV file under root. A failing file is logged and
// skipped.
func (p *Pipeline) IngestPath(ctx context.Context, root string) (int, error) {
	files, err := LoadLocalFiles(root)
	if err != nil {
		return 0, fmt.Errorf("load files: %w", err)
	}
	total := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		golog.Infof("Indexing: %s", f)
		n, err := p.IngestFile(ctx, f)
		total += n
		if err != nil {
			golog.Errorf("skip file %s: %v", f, err)
		}
	}
	return total, nil
}
