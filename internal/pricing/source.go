package pricing

import (
	"context"
	"sync"
	"time"
)

// Source produces a pricing table. Implementations may hit the network;
// the composed tiered source never lets a remote failure surface.
type Source interface {
	Table(ctx context.Context) (PricingTable, error)
}

// StaticSource serves only the embedded fallback table.
type StaticSource struct{}

func (StaticSource) Table(ctx context.Context) (PricingTable, error) {
	return LoadStatic()
}

// RemoteSource fetches the LiteLLM table and caches it in-process for
// a TTL so repeated invocations within one process (watch mode) do not
// refetch.
type RemoteSource struct {
	ttl   time.Duration
	fetch func(ctx context.Context) (PricingTable, error)

	mu        sync.Mutex
	cached    PricingTable
	fetchedAt time.Time
}

// NewRemoteSource returns a remote source with the given cache TTL.
func NewRemoteSource(ttl time.Duration) *RemoteSource {
	return &RemoteSource{ttl: ttl, fetch: FetchLiteLLM}
}

func (r *RemoteSource) Table(ctx context.Context) (PricingTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && time.Since(r.fetchedAt) < r.ttl {
		return r.cached, nil
	}

	table, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.cached = table
	r.fetchedAt = time.Now()
	return table, nil
}

// TieredSource layers a remote source over the static table. A remote
// failure is recovered locally: callers always get a usable table.
type TieredSource struct {
	remote Source
}

// NewTieredSource composes remote-then-static. A nil remote (offline
// mode) yields static-table-only operation.
func NewTieredSource(remote Source) *TieredSource {
	return &TieredSource{remote: remote}
}

func (t *TieredSource) Table(ctx context.Context) (PricingTable, error) {
	table, err := LoadStatic()
	if err != nil {
		return nil, err
	}
	if t.remote != nil {
		if fetched, err := t.remote.Table(ctx); err == nil {
			table.Merge(fetched)
		}
	}
	return table, nil
}
