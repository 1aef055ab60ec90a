package health

import "context"

// DBPinger checks vector index availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker probes an external capability such as an embedding or completion provider.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
