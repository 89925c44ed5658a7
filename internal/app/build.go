package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/config"
	"github.com/Divas-Gupta30/support-triage/internal/graph"
	"github.com/Divas-Gupta30/support-triage/internal/llm"
	"github.com/Divas-Gupta30/support-triage/internal/processing"
	"github.com/Divas-Gupta30/support-triage/internal/storage"
)

// Build connects every backend named in cfg and compiles the workflows. The
// returned cleanup closes whatever was opened, including on error.
func Build(ctx context.Context, cfg *config.Config, observer graph.NodeObserver) (*Components, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	completer, err := llm.New(llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating llm client: %w", err)
	}

	embedder, err := processing.NewEmbedder(llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.EmbeddingModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
	}, cfg.EmbeddingDim)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating embedder: %w", err)
	}

	pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, pool.Close)
	passages := storage.NewPassageStore(pool, embedder, cfg.PassageTable)

	var retriever graph.Retriever = passages
	if rdb := connectRedis(ctx, cfg); rdb != nil {
		closers = append(closers, func() { rdb.Close() })
		retriever = storage.NewCachedRetriever(passages, rdb, cfg.CacheTTL)
	}

	ticketDB, err := storage.OpenTicketDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { ticketDB.Close() })
	tickets := storage.NewTicketStore(ticketDB, embedder, cfg.TicketTable)
	if err := tickets.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
		return nil, cleanup, err
	}

	var ids graph.IDGenerator = graph.UnixSecondIDs{}
	if cfg.TicketIDMode == config.TicketIDMonotonic {
		ids = &graph.MonotonicIDs{}
	}

	c := New(Deps{
		LLM:       completer,
		Retriever: retriever,
		Tickets:   tickets,
		IDs:       ids,
		Health:    passages,
	}, graph.WorkflowConfig{GenericRouting: cfg.GenericRouting, Observer: observer})
	golog.Info("All components initialized successfully.")
	return c, cleanup, nil
}

// connectRedis returns nil when the cache is disabled or unreachable; the
// service then works without caching.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		golog.Warnf("Failed to connect to Redis: %v", err)
		golog.Warn("Retrieval will work without caching")
		client.Close()
		return nil
	}
	golog.Info("Connected to Redis cache")
	return client
}
