package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/config"
	"github.com/kailas-cloud/docmind/internal/db"
	dbMemory "github.com/kailas-cloud/docmind/internal/db/memory"
	dbRedis "github.com/kailas-cloud/docmind/internal/db/redis"
	"github.com/kailas-cloud/docmind/internal/domain"
	logpkg "github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/metrics"
	budgetrepo "github.com/kailas-cloud/docmind/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/docmind/internal/repository/document"
	"github.com/kailas-cloud/docmind/internal/repository/embcache"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
	searchrepo "github.com/kailas-cloud/docmind/internal/repository/search"
	arxivClient "github.com/kailas-cloud/docmind/internal/transport/arxiv"
	chiTransport "github.com/kailas-cloud/docmind/internal/transport/chi"
	geminiProvider "github.com/kailas-cloud/docmind/internal/transport/gemini"
	"github.com/kailas-cloud/docmind/internal/transport/hashing"
	openaiProvider "github.com/kailas-cloud/docmind/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docmind/internal/usecase/answer"
	arxivuc "github.com/kailas-cloud/docmind/internal/usecase/arxiv"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docmind/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	indexuc "github.com/kailas-cloud/docmind/internal/usecase/index"
	retrieveuc "github.com/kailas-cloud/docmind/internal/usecase/retrieve"
	structureuc "github.com/kailas-cloud/docmind/internal/usecase/structure"
	usageuc "github.com/kailas-cloud/docmind/internal/usecase/usage"
	"github.com/kailas-cloud/docmind/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docmind API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Vectorizer.Provider),
		zap.String("completion_provider", cfg.Completion.Provider),
	)

	ctx := context.Background()

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer closeStore(store, logger)

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	keys := keyspace.New(cfg.Storage.KeyPrefix)
	vectorDim := cfg.Embedding.Vectorizer.Dimensions
	if vectorDim <= 0 {
		vectorDim = domain.DefaultVectorConfig().Dimensions
	}

	docRepo := documentrepo.New(store, keys)
	if err := docRepo.EnsureIndex(ctx, vectorDim); err != nil {
		logger.Fatal("Failed to create chunk index", zap.Error(err))
	}
	searchRepo := searchrepo.New(store, keys)

	// One budget tracker shared by the embedder chain and the usage service.
	provName := cfg.Embedding.Vectorizer.Provider
	provCfg := cfg.Embedding.Providers[provName]
	budget := buildBudget(ctx, provName, provCfg.Budget, store, keys, logger)

	// Pass a nil interface, not a typed nil pointer, when no budget is configured.
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	baseEmbedder, err := buildBaseEmbedder(ctx, cfg, vectorDim, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	embedder := buildEmbedder(cfg, baseEmbedder, store, keys, budgetChecker, logger)
	logger.Info("Embedder created",
		zap.String("provider", provName),
		zap.String("model", cfg.Embedding.Vectorizer.Model),
		zap.Int("dimensions", vectorDim),
	)

	completer, err := buildCompleter(ctx, cfg.Completion, logger)
	if err != nil {
		logger.Fatal("Failed to create completer", zap.Error(err))
	}

	indexer := indexuc.New(docRepo, embedder, domain.ChunkConfig{
		Size:    cfg.Index.ChunkSize,
		Overlap: cfg.Index.ChunkOverlap,
	}, vectorDim)
	retriever := retrieveuc.New(embedder, searchRepo, vectorDim)
	generator := answeruc.New(retriever, completer, docRepo, answeruc.Options{
		TopK:           cfg.Index.TopK,
		Retries:        cfg.Completion.Retries,
		InitialBackoff: time.Duration(cfg.Completion.InitialBackoff) * time.Millisecond,
		Timeout:        time.Duration(cfg.Completion.TimeoutSec) * time.Second,
	})

	structurer := structureuc.New(logger)
	batchSvc := batchuc.New(structurer, indexer).WithMaxBatchSize(cfg.Index.MaxUploadDocuments)
	docSvc := documentuc.New(docRepo, indexer, generator).WithTopK(cfg.Index.TopK, cfg.Index.MaxTopK)

	arxiv := arxivClient.NewClient(
		arxivClient.WithBaseURL(cfg.Arxiv.BaseURL),
		arxivClient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Arxiv.TimeoutSec) * time.Second}),
		arxivClient.WithRateLimit(time.Duration(cfg.Arxiv.IntervalMs)*time.Millisecond, 1),
		arxivClient.WithRetry(cfg.Arxiv.Retries, time.Second),
		arxivClient.WithLogger(logger),
	)
	arxivSvc := arxivuc.New(arxiv, indexer).WithDefaultPageSize(cfg.Arxiv.DefaultPageSize)

	usageSvc := usageuc.New(budgetReader, generator)

	healthSvc := healthuc.New(store)
	if hc, ok := baseEmbedder.(healthuc.Checker); ok {
		healthSvc = healthSvc.WithCheck("embedding", hc)
	}
	if hc, ok := completer.(healthuc.Checker); ok {
		healthSvc = healthSvc.WithCheck("completion", hc)
	}

	if docs, err := docRepo.List(ctx); err != nil {
		logger.Warn("Failed to count indexed documents", zap.Error(err))
	} else {
		metrics.IndexedDocuments.Set(float64(len(docs)))
		logger.Info("Index loaded", zap.Int("documents", len(docs)))
	}

	server := chiTransport.NewServer(docSvc, batchSvc, arxivSvc, usageSvc, healthSvc, logger).
		WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes).
		WithMaxBatchSize(cfg.Index.MaxUploadDocuments)
	handler := chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// closeStore writes the memory snapshot before closing so a failed write is
// logged instead of lost.
func closeStore(store db.Store, logger *zap.Logger) {
	if f, ok := store.(db.Flusher); ok {
		if err := f.Flush(); err != nil {
			logger.Error("Failed to write database snapshot", zap.Error(err))
		}
	}
	store.Close()
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverMemory, "":
		return dbMemory.NewStore(dbMemory.Config{SnapshotPath: cfg.SnapshotPath})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func buildBudget(
	ctx context.Context,
	provName string,
	cfg config.BudgetConfig,
	store db.Store,
	keys keyspace.Keyspace,
	logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if cfg.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(
		provName, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, keys.BudgetKey, logger,
	)
	return budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
}

// buildBaseEmbedder creates the provider client at the bottom of the chain.
func buildBaseEmbedder(ctx context.Context, cfg config.Config, dim int, logger *zap.Logger) (domain.Embedder, error) {
	vec := cfg.Embedding.Vectorizer
	prov := cfg.Embedding.Providers[vec.Provider]

	switch cfg.EmbeddingProviderType() {
	case config.ProviderHashing:
		return hashing.New(dim), nil
	case config.ProviderGemini:
		return geminiProvider.NewEmbedder(ctx, &geminiProvider.Config{
			APIKey:     prov.APIKey,
			BaseURL:    prov.BaseURL,
			EmbedModel: vec.Model,
			Dimensions: dim,
			Provider:   vec.Provider,
			Logger:     logger,
		})
	default:
		return openaiProvider.NewEmbedder(&openaiProvider.Config{
			APIKey:     prov.APIKey,
			BaseURL:    prov.BaseURL,
			Model:      vec.Model,
			Dimensions: dim,
			Provider:   vec.Provider,
			Logger:     logger,
		}), nil
	}
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented.
func buildEmbedder(
	cfg config.Config,
	base domain.Embedder,
	store db.Store,
	keys keyspace.Keyspace,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	vec := cfg.Embedding.Vectorizer

	var embedder domain.Embedder = base
	if cfg.EmbeddingProviderType() != config.ProviderHashing {
		embedder = embcache.New(base, store, keys, embcache.Options{
			Model:      vec.Model,
			TTL:        cfg.Embedding.CacheTTL,
			CacheTotal: metrics.EmbeddingCacheTotal,
		}, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, vec.Provider, vec.Model,
		time.Duration(cfg.Embedding.TimeoutSec)*time.Second,
		budget, logger,
	)
}

func buildCompleter(ctx context.Context, cfg config.CompletionConfig, logger *zap.Logger) (domain.Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return geminiProvider.NewCompleter(ctx, &geminiProvider.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Provider:    cfg.Provider,
			Logger:      logger,
		})
	case config.ProviderOpenAI:
		return openaiProvider.NewCompleter(&openaiProvider.CompleterConfig{
			Config: openaiProvider.Config{
				APIKey:   cfg.APIKey,
				BaseURL:  cfg.BaseURL,
				Model:    cfg.Model,
				Provider: cfg.Provider,
				Logger:   logger,
			},
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
