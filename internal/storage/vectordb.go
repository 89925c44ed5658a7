package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
)

// DefaultTopK is how many passages Retrieve returns. It is fixed.
const DefaultTopK = 5

// QueryEmbedder turns a query into a vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PassageStore keeps ingested support passages in a pgvector table and
// serves nearest-neighbour lookups.
type PassageStore struct {
	pool     DBPool
	embedder QueryEmbedder
	table    string
	topK     int
}

var _ graph.Retriever = (*PassageStore)(nil)

// NewPassageStore returns a store over table.
func NewPassageStore(pool DBPool, embedder QueryEmbedder, table string) *PassageStore {
	if table == "" {
		table = "dantelcsv"
	}
	return &PassageStore{
		pool:     pool,
		embedder: embedder,
		table:    pgx.Identifier{table}.Sanitize(),
		topK:     DefaultTopK,
	}
}

// InitSchema creates the vector extension and the passage table.
func (s *PassageStore) InitSchema(ctx context.Context, dim int) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		);
	`, s.table, dim)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create passage schema: %w", err)
	}
	return nil
}

// Insert adds a chunk with its embedding.
func (s *PassageStore) Insert(ctx context.Context, source string, p graph.Passage, embedding []float32) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("encoding passage metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (source, content, metadata, embedding) VALUES ($1, $2, $3, $4)", s.table),
		source, p.Content, meta, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("inserting passage: %w", err)
	}
	return nil
}

// QuerySimilar returns the topK passages closest to queryEmb.
func (s *PassageStore) QuerySimilar(ctx context.Context, queryEmb []float32, topK int) ([]graph.Passage, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT content, metadata FROM %s ORDER BY embedding <-> $1 LIMIT $2", s.table),
		pgvector.NewVector(queryEmb), topK)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []graph.Passage
	for rows.Next() {
		var (
			p    graph.Passage
			meta []byte
		)
		if err := rows.Scan(&p.Content, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &p.Metadata); err != nil {
				return nil, fmt.Errorf("decoding passage metadata: %w", err)
			}
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Retrieve embeds query and returns its nearest passages.
func (s *PassageStore) Retrieve(ctx context.Context, query string) ([]graph.Passage, error) {
	emb, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.QuerySimilar(ctx, emb, s.topK)
}

// Ping checks the database connection.
func (s *PassageStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
