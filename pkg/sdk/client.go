package docmind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/db"
	dbMemory "github.com/kailas-cloud/docmind/internal/db/memory"
	dbRedis "github.com/kailas-cloud/docmind/internal/db/redis"
	"github.com/kailas-cloud/docmind/internal/domain"
	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	documentrepo "github.com/kailas-cloud/docmind/internal/repository/document"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
	searchrepo "github.com/kailas-cloud/docmind/internal/repository/search"
	"github.com/kailas-cloud/docmind/internal/transport/hashing"
	answeruc "github.com/kailas-cloud/docmind/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	indexuc "github.com/kailas-cloud/docmind/internal/usecase/index"
	retrieveuc "github.com/kailas-cloud/docmind/internal/usecase/retrieve"
	structureuc "github.com/kailas-cloud/docmind/internal/usecase/structure"
	usageuc "github.com/kailas-cloud/docmind/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "docmind:"
)

// Internal interfaces, replaced by mocks in tests.
type uploadUseCase interface {
	Upload(ctx context.Context, items []batchuc.Item) ([]dombatch.Result, error)
}

type documentUseCase interface {
	List(ctx context.Context) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, question string, documentIDs []string, topK int) (domanswer.Answer, error)
	Summary(ctx context.Context, id string) (answeruc.Summary, error)
	Metrics(ctx context.Context, id string) ([]answeruc.Metric, error)
}

// Client is the docmind SDK entry point.
type Client struct {
	store     db.Store
	uploadSvc uploadUseCase
	docSvc    documentUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
}

// New creates a Client and opens its storage backend.
// The provided context is used for the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:           driverMemory,
		keyPrefix:        defaultKeyPrefix,
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.vectorDimensions <= 0 {
		return nil, errors.New("docmind: vector dimensions must be positive")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docmind: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverMemory:
		s, err := dbMemory.NewStore(dbMemory.Config{SnapshotPath: cfg.snapshotPath})
		if err != nil {
			return nil, fmt.Errorf("docmind: create memory store: %w", err)
		}
		return s, nil
	case driverRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("docmind: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("docmind: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("docmind: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	dim := cfg.vectorDimensions
	keys := keyspace.New(cfg.keyPrefix)

	docRepo := documentrepo.New(store, keys)
	if err := docRepo.EnsureIndex(ctx, dim); err != nil {
		return nil, fmt.Errorf("docmind: ensure index: %w", err)
	}
	searchRepo := searchrepo.New(store, keys)

	var emb domain.Embedder = hashing.New(dim)
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}
	var completer domain.Completer = noopCompleter{}
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	}

	indexer := indexuc.New(docRepo, emb, domain.ChunkConfig{
		Size:    cfg.chunkSize,
		Overlap: cfg.chunkOverlap,
	}, dim)
	retriever := retrieveuc.New(emb, searchRepo, dim)
	generator := answeruc.New(retriever, completer, docRepo, answeruc.DefaultOptions())

	uploadSvc := batchuc.New(structureuc.New(zap.NewNop()), indexer)
	if cfg.maxBatchSize > 0 {
		uploadSvc = uploadSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Client{
		store:     store,
		uploadSvc: uploadSvc,
		docSvc:    documentuc.New(docRepo, indexer, generator),
		healthSvc: healthuc.New(store),
		usageSvc:  usageuc.New(nil, generator), // nil: no embedding budget in the SDK
		obs:       obs,
	}, nil
}

// Close releases all resources. The memory backend writes its snapshot
// here; a failed write is returned after the store is closed.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	var err error
	if f, ok := c.store.(db.Flusher); ok {
		if err = f.Flush(); err != nil {
			err = fmt.Errorf("write snapshot: %w", err)
		}
	}
	c.store.Close()
	return err
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
