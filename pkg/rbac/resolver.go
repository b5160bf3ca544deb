package rbac

import (
	"sync"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Cache clear reasons
const (
	ClearUserSwitch = "user_switch"
	ClearRoleChange = "role_change"
	ClearExplicit   = "explicit"
)

// Request is a single permission check
type Request struct {
	// RequiredPermission is empty for routes that only require a login
	RequiredPermission string

	User    *auth.User
	Profile *auth.Profile

	// IsLoading is true while the permission state is still in flight
	IsLoading bool
	// Unavailable is true when the permission state failed to load. Uncached checks are
	// denied without being stored so they are recomputed once the state loads.
	Unavailable bool
	State       PermissionState
}

// Resolver decides access for the active user of one client and memoizes the
// decisions. It tracks the previously seen user and clears the cache when a
// different user (or the same user with a different role) shows up.
type Resolver struct {
	cache   DecisionCache
	logger  logrus.FieldLogger
	metrics *observability.Metrics

	mu          sync.Mutex
	lastUserID  string
	hasLastUser bool
	lastRole    auth.Role
}

// NewResolver creates a resolver backed by cache (a fresh MemoryCache when nil)
func NewResolver(cache DecisionCache, logger logrus.FieldLogger, metrics *observability.Metrics) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve produces the access decision for req
func (r *Resolver) Resolve(req Request) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trackLocked(req.User, req.Profile)

	decision := r.resolveLocked(req)
	r.metrics.RecordDecision(decision.String())
	return decision
}

func (r *Resolver) resolveLocked(req Request) Decision {
	if req.RequiredPermission == "" {
		return Granted
	}
	if req.User == nil || req.Profile == nil {
		return Denied
	}
	if req.IsLoading {
		return Indeterminate
	}

	if granted, ok := r.cache.Get(req.User.ID, req.RequiredPermission); ok {
		r.metrics.RecordCacheLookup(true)
		return fromBool(granted)
	}
	r.metrics.RecordCacheLookup(false)

	if req.Unavailable {
		return Denied
	}
	granted := compute(req.RequiredPermission, req.State)
	r.cache.Set(req.User.ID, req.RequiredPermission, granted)
	return fromBool(granted)
}

// compute evaluates a permission without the cache. Names match exactly.
func compute(permission string, state PermissionState) bool {
	if state.Bypass() {
		return true
	}
	if len(state.Permissions) == 0 {
		return false
	}
	return state.Has(permission)
}

// trackLocked applies the clear-on-switch rule and records the current user
func (r *Resolver) trackLocked(user *auth.User, profile *auth.Profile) {
	current := ""
	if user != nil {
		current = user.ID
	}

	switch {
	case r.hasLastUser && r.lastUserID != current:
		r.clearLocked(ClearUserSwitch)
		r.lastRole = ""
	case r.hasLastUser && profile != nil && r.lastRole != "" && profile.Role != r.lastRole:
		r.clearLocked(ClearRoleChange)
	}

	r.lastUserID = current
	r.hasLastUser = user != nil
	if user == nil {
		r.lastRole = ""
	} else if profile != nil {
		r.lastRole = profile.Role
	}
}

func (r *Resolver) clearLocked(reason string) {
	if r.cache.Len() > 0 {
		r.logger.WithFields(logrus.Fields{
			"reason":  reason,
			"entries": r.cache.Len(),
		}).Debug("Clearing permission decision cache")
	}
	r.cache.Clear()
	r.metrics.RecordCacheClear(reason)
}

// ClearPermissionCheckCache drops every cached decision. The logout path calls it in
// addition to the automatic user-switch detection.
func (r *Resolver) ClearPermissionCheckCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked(ClearExplicit)
}

// CachedEntries returns the number of memoized decisions
func (r *Resolver) CachedEntries() int {
	return r.cache.Len()
}

func fromBool(granted bool) Decision {
	if granted {
		return Granted
	}
	return Denied
}
