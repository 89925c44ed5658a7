package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/config"
	"github.com/Divas-Gupta30/support-triage/internal/ingestion"
	"github.com/Divas-Gupta30/support-triage/internal/llm"
	"github.com/Divas-Gupta30/support-triage/internal/processing"
	"github.com/Divas-Gupta30/support-triage/internal/storage"
)

func main() {
	path := flag.String("path", "combined.csv", "CSV file or folder to index")
	chunkSize := flag.Int("chunk-size", processing.DefaultChunkSize, "maximum characters per chunk")
	chunkOverlap := flag.Int("chunk-overlap", processing.DefaultChunkOverlap, "characters shared by neighbouring chunks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("Config: %v", err)
	}
	cfg.ApplyLogging()
	ctx := context.Background()

	golog.Info("Initializing embeddings model...")
	embedder, err := processing.NewEmbedder(llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.EmbeddingModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
	}, cfg.EmbeddingDim)
	if err != nil {
		golog.Fatalf("embedder: %v", err)
	}

	golog.Info("Connecting to the vector store...")
	pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		golog.Fatalf("DB init: %v", err)
	}
	defer pool.Close()

	store := storage.NewPassageStore(pool, embedder, cfg.PassageTable)
	if err := store.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
		golog.Fatalf("DB schema: %v", err)
	}

	pipeline := ingestion.NewPipeline(processing.NewChunker(*chunkSize, *chunkOverlap), embedder, store)
	total, err := pipeline.IngestPath(ctx, *path)
	if err != nil {
		golog.Errorf("Ingestion failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Data ingestion complete. Total chunks added: %d\n", total)
}
