package permissions

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/guard"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Defaults for Provider
const (
	DefaultCacheSize    = 64
	DefaultCacheTTL     = time.Minute
	DefaultWait         = 500 * time.Millisecond
	DefaultFetchTimeout = 5 * time.Second
)

// Load sources reported to metrics
const (
	sourceBypass = "bypass"
	sourceCache  = "cache"
	sourceStore  = "store"
)

// Config tunes a Provider
type Config struct {
	CacheSize int
	CacheTTL  time.Duration
	// Wait bounds how long Load blocks on a store query before reporting Loading
	Wait time.Duration
	// FetchTimeout bounds the shared store query itself
	FetchTimeout time.Duration
}

// Provider resolves a profile into its permission state
type Provider struct {
	source  Source
	config  Config
	cache   *expirable.LRU[auth.Role, []rbac.Permission]
	group   singleflight.Group
	logger  logrus.FieldLogger
	metrics *observability.Metrics
}

// NewProvider creates a provider; zero config values take the defaults
func NewProvider(source Source, config Config, logger logrus.FieldLogger, metrics *observability.Metrics) *Provider {
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultCacheSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.Wait <= 0 {
		config.Wait = DefaultWait
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Provider{
		source:  source,
		config:  config,
		cache:   expirable.NewLRU[auth.Role, []rbac.Permission](config.CacheSize, nil, config.CacheTTL),
		logger:  logger,
		metrics: metrics,
	}
}

// Load returns the permission state for profile. Permissions are not requested until
// the profile resolves, and a failed store query is reported as Failed.
func (p *Provider) Load(ctx context.Context, profile guard.Load[*auth.Profile]) guard.Load[rbac.PermissionState] {
	if profile.InFlight() {
		return guard.Loading[rbac.PermissionState]()
	}
	prof, ok := profile.Value()
	if !ok || prof == nil {
		return guard.NotStarted[rbac.PermissionState]()
	}

	start := time.Now()
	role := prof.Role

	if role.BypassesPermissions() {
		p.metrics.RecordPermissionLoad(sourceBypass, time.Since(start))
		return guard.Ready(rbac.NewPermissionState(role, nil))
	}

	if perms, ok := p.cache.Get(role); ok {
		p.metrics.RecordPermissionLoad(sourceCache, time.Since(start))
		return guard.Ready(rbac.NewPermissionState(role, perms))
	}

	ch := p.group.DoChan(string(role), func() (interface{}, error) {
		return p.fetch(ctx, role)
	})

	timer := time.NewTimer(p.config.Wait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			p.logger.WithError(res.Err).WithField("role", role).Warn("Failed to load role permissions")
			return guard.Failed[rbac.PermissionState](res.Err)
		}
		p.metrics.RecordPermissionLoad(sourceStore, time.Since(start))
		return guard.Ready(rbac.NewPermissionState(role, res.Val.([]rbac.Permission)))
	case <-timer.C:
		return guard.Loading[rbac.PermissionState]()
	case <-ctx.Done():
		return guard.Loading[rbac.PermissionState]()
	}
}

// fetch outlives the caller that started it so slow queries still fill the cache
func (p *Provider) fetch(ctx context.Context, role auth.Role) ([]rbac.Permission, error) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.FetchTimeout)
	defer cancel()

	perms, err := p.source.PermissionsForRole(fetchCtx, role)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", role, err)
	}
	p.cache.Add(role, perms)
	return perms, nil
}

// Invalidate drops the cached set of role
func (p *Provider) Invalidate(role auth.Role) {
	p.cache.Remove(role)
}

// Purge drops every cached set
func (p *Provider) Purge() {
	p.cache.Purge()
}
