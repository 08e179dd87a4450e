package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/backlog"
	"github.com/ziadkadry99/runbookqa/internal/config"
	"github.com/ziadkadry99/runbookqa/internal/db"
	"github.com/ziadkadry99/runbookqa/internal/embeddings"
	"github.com/ziadkadry99/runbookqa/internal/history"
	"github.com/ziadkadry99/runbookqa/internal/ingest"
	"github.com/ziadkadry99/runbookqa/internal/llm"
	"github.com/ziadkadry99/runbookqa/internal/progress"
	"github.com/ziadkadry99/runbookqa/internal/retrieval"
	"github.com/ziadkadry99/runbookqa/internal/runbooks"
	"github.com/ziadkadry99/runbookqa/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `runbookqa init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// app holds the long-lived components a command needs.
type app struct {
	cfg       *config.Config
	db        *db.DB
	store     *vectordb.ChromemStore
	retriever *retrieval.StoreRetriever
	runbooks  *runbooks.FileStore
	history   *history.Store
	catalog   *ingest.Catalog
	ingester  *ingest.Ingester
	backlog   *backlog.Store
	// engine is nil unless the app was opened with an engine.
	engine *assistant.Engine
}

// openApp opens the database and vector store. withEngine additionally
// builds the completion provider and the assistant engine.
func openApp(ctx context.Context, cfg *config.Config, withEngine bool) (*app, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder, vectordb.Options{
		QueryPrefix:    cfg.Retrieval.QueryPrefix,
		DocumentPrefix: cfg.Retrieval.DocumentPrefix,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.LoadIfExists(ctx, cfg.VectorStorePath()); err != nil {
		database.Close()
		return nil, fmt.Errorf("loading vector store from %s: %w", cfg.VectorStorePath(), err)
	}

	rb, err := runbooks.NewFileStore(cfg.RunbooksDir)
	if err != nil {
		database.Close()
		return nil, err
	}

	catalog := ingest.NewCatalog(database)
	a := &app{
		cfg:       cfg,
		db:        database,
		store:     store,
		retriever: retrieval.NewStoreRetriever(store),
		runbooks:  rb,
		history:   history.NewStore(database),
		catalog:   catalog,
		backlog:   backlog.NewStore(database),
		ingester: ingest.New(store, catalog, ingest.Options{
			ChunkSize:    cfg.Ingest.ChunkSize,
			ChunkOverlap: cfg.Ingest.ChunkOverlap,
			Include:      cfg.Ingest.Include,
			Exclude:      cfg.Ingest.Exclude,
			StorePath:    cfg.VectorStorePath(),
			Reporter:     progress.NewReporter(),
		}),
	}

	if withEngine {
		if a.engine, err = a.buildEngine(); err != nil {
			database.Close()
			return nil, err
		}
	}

	log.Debug().Str("db", database.Path()).Int("chunks", store.Count()).Str("runbooks", rb.Root()).Msg("app opened")
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) buildEngine() (*assistant.Engine, error) {
	provider, err := createLLMProviderFromConfig(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	small := a.cfg.ClassifierModel
	if small == "" {
		small = a.cfg.Model
	}
	prompts := assistant.DefaultPrompts(a.cfg.Domain)

	llmClassifier := assistant.NewLLMClassifier(provider, small, prompts)
	var classifier assistant.Classifier = llmClassifier
	if a.cfg.Chat.Classifier == config.ClassifierKeyword {
		classifier = &assistant.KeywordClassifier{Fallback: llmClassifier}
	}

	return assistant.NewEngine(
		classifier,
		assistant.NewCondenser(provider, small, prompts, a.cfg.Chat.CondenseWindow),
		a.retriever,
		assistant.NewSynthesizer(provider, a.cfg.Model, prompts, a.cfg.Chat.HistoryWindow),
		a.runbooks,
		prompts,
		assistant.Options{TopK: a.cfg.Retrieval.TopK, MinSimilarity: a.cfg.Retrieval.MinSimilarity},
	), nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Providers without native embeddings fall back to OpenAI.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	switch provider {
	case config.ProviderOpenAI, config.ProviderGoogle, config.ProviderOllama:
	default:
		provider = config.ProviderOpenAI
	}
	return embeddings.New(string(provider), cfg.EmbeddingModel)
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, rate limited when rate_limit_rpm is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	return provider, nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
}

// withTimeout bounds a whole turn by server.request_timeout_seconds. A
// non-positive setting means no deadline.
func withTimeout(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if d := requestTimeout(cfg); d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}
