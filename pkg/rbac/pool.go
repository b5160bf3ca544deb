package rbac

import (
	"github.com/hashicorp/golang-lru/v2"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/sirupsen/logrus"
)

// DefaultPoolSize bounds the number of clients with a live resolver
const DefaultPoolSize = 10000

// ResolverPool hands out one Resolver per client (browser) so the user-switch rule applies
// to what a single client sees, not to every user the process serves. Least recently
// used clients are evicted.
type ResolverPool struct {
	resolvers *lru.Cache[string, *Resolver]
	logger    logrus.FieldLogger
	metrics   *observability.Metrics
	newCache  func() DecisionCache
}

// NewResolverPool creates a pool holding at most size resolvers
func NewResolverPool(size int, logger logrus.FieldLogger, metrics *observability.Metrics) (*ResolverPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	resolvers, err := lru.New[string, *Resolver](size)
	if err != nil {
		return nil, err
	}

	return &ResolverPool{
		resolvers: resolvers,
		logger:    logger,
		metrics:   metrics,
		newCache:  func() DecisionCache { return NewMemoryCache() },
	}, nil
}

// For returns the resolver of a client, creating it on first use
func (p *ResolverPool) For(clientID string) *Resolver {
	if r, ok := p.resolvers.Get(clientID); ok {
		return r
	}

	r := NewResolver(p.newCache(), p.logger.WithField("client_id", clientID), p.metrics)
	// Another request for the same client may have raced us; keep the first one
	if existing, ok, _ := p.resolvers.PeekOrAdd(clientID, r); ok {
		return existing
	}
	return r
}

// ClearPermissionCheckCache resets the cached decisions of one client
func (p *ResolverPool) ClearPermissionCheckCache(clientID string) {
	if r, ok := p.resolvers.Peek(clientID); ok {
		r.ClearPermissionCheckCache()
	}
}

// ClearAll resets the cached decisions of every client and returns how many were dropped.
// Role permission edits call it since the per-user switch rule cannot see them.
func (p *ResolverPool) ClearAll() int {
	cleared := 0
	for _, clientID := range p.resolvers.Keys() {
		if r, ok := p.resolvers.Peek(clientID); ok {
			cleared += r.CachedEntries()
			r.ClearPermissionCheckCache()
		}
	}
	return cleared
}

// Len returns the number of clients with a resolver
func (p *ResolverPool) Len() int {
	return p.resolvers.Len()
}
