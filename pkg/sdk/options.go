package docmind

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverMemory = "memory"
	driverRedis  = "redis"
)

type clientConfig struct {
	driver       string
	addrs        []string
	password     string
	snapshotPath string
	keyPrefix    string

	embedder  Embedder
	completer Completer

	vectorDimensions int
	chunkSize        int
	chunkOverlap     int
	maxBatchSize     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemory keeps the index in process. A non-empty snapshotPath is loaded
// on start and written on Close. This is the default backend.
func WithMemory(snapshotPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.snapshotPath = snapshotPath
	})
}

// WithRedis stores the index in Redis 8+ with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces every storage key. Default "docmind:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the embedding provider. Without one the client uses a
// local feature-hashing embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the language model used by Ask and Summarize.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithVectorDimensions sets the index vector size. It must match the embedder.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithChunking sets chunk size and overlap in runes. Default 1000/200.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	})
}

// WithMaxBatchSize sets the maximum number of documents per Upload. Default 5.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
