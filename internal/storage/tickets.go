package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TicketStore appends triaged tickets to Postgres. When an embedder is set
// the ticket passage is embedded so stored tickets are searchable like any
// other passage.
type TicketStore struct {
	db       execer
	embedder QueryEmbedder
	table    string
}

var _ graph.TicketStore = (*TicketStore)(nil)

// OpenTicketDB opens a lib/pq connection and pings it.
func OpenTicketDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ticket database: %w", err)
	}
	return db, nil
}

// NewTicketStore returns a store writing to table. embedder may be nil.
func NewTicketStore(db execer, embedder QueryEmbedder, table string) *TicketStore {
	if table == "" {
		table = "triage_tickets"
	}
	return &TicketStore{db: db, embedder: embedder, table: table}
}

// InitSchema creates the ticket table. ticket_id is indexed but not unique:
// IDs issued within the same second are allowed to collide.
func (s *TicketStore) InitSchema(ctx context.Context, dim int) error {
	table := pq.QuoteIdentifier(s.table)
	index := pq.QuoteIdentifier("idx_" + s.table + "_ticket_id")
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			ticket_id TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL,
			embedding vector(%d),
			stored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS %s ON %s (ticket_id);
	`, table, dim, index, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create ticket schema: %w", err)
	}
	return nil
}

// Append writes one ticket passage.
func (s *TicketStore) Append(ctx context.Context, p graph.Passage) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("encoding ticket metadata: %w", err)
	}
	ticketID, _ := p.Metadata["ticket_id"].(string)

	var embedding any
	if s.embedder != nil {
		v, err := s.embedder.EmbedQuery(ctx, p.Content)
		if err != nil {
			return fmt.Errorf("embedding ticket: %w", err)
		}
		embedding = pgvector.NewVector(v)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (ticket_id, content, metadata, embedding) VALUES ($1, $2, $3, $4)", pq.QuoteIdentifier(s.table)),
		ticketID, p.Content, string(meta), embedding)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}
	return nil
}
