package rbac

import (
	"sync"
	"testing"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyCache counts writes so tests can tell cache hits from recomputation
type spyCache struct {
	*MemoryCache
	sets int
}

func (s *spyCache) Set(userID, permission string, granted bool) {
	s.sets++
	s.MemoryCache.Set(userID, permission, granted)
}

func newTestResolver() (*Resolver, *spyCache) {
	cache := &spyCache{MemoryCache: NewMemoryCache()}
	logger, _ := test.NewNullLogger()
	return NewResolver(cache, logger, nil), cache
}

func standardRequest(userID, required string, perms ...string) Request {
	set := make([]Permission, 0, len(perms))
	for _, p := range perms {
		set = append(set, Permission{Name: p})
	}
	return Request{
		RequiredPermission: required,
		User:               &auth.User{ID: userID},
		Profile:            &auth.Profile{UserID: userID, Role: auth.RoleStandard},
		State:              NewPermissionState(auth.RoleStandard, set),
	}
}

func TestResolver_NoRequiredPermissionAlwaysGrants(t *testing.T) {
	r, cache := newTestResolver()

	cases := []Request{
		{},
		{User: &auth.User{ID: "u1"}},
		{User: &auth.User{ID: "u1"}, Profile: &auth.Profile{Role: auth.RoleStandard}, IsLoading: true},
		standardRequest("u1", ""),
	}
	for _, req := range cases {
		assert.Equal(t, Granted, r.Resolve(req))
	}
	assert.Equal(t, 0, cache.sets, "login-only checks are not cached")
}

func TestResolver_MissingIdentityDenies(t *testing.T) {
	r, _ := newTestResolver()

	req := standardRequest("u1", "view:reports", "view:reports")
	req.Profile = nil
	assert.Equal(t, Denied, r.Resolve(req))

	req = standardRequest("u1", "view:reports", "view:reports")
	req.User = nil
	assert.Equal(t, Denied, r.Resolve(req))
}

func TestResolver_LoadingIsIndeterminateAndNotCached(t *testing.T) {
	r, cache := newTestResolver()

	req := standardRequest("u1", "view:reports", "view:reports")
	req.IsLoading = true
	assert.Equal(t, Indeterminate, r.Resolve(req))
	assert.Equal(t, 0, cache.Len())

	req.IsLoading = false
	assert.Equal(t, Granted, r.Resolve(req))
	assert.Equal(t, 1, cache.Len())
}

func TestResolver_UnavailableDeniesWithoutCaching(t *testing.T) {
	r, cache := newTestResolver()

	req := standardRequest("u1", "view:reports")
	req.State = PermissionState{}
	req.Unavailable = true
	assert.Equal(t, Denied, r.Resolve(req))
	assert.Equal(t, 0, cache.sets)

	// Once the state loads the check is computed and stored
	req = standardRequest("u1", "view:reports", "view:reports")
	assert.Equal(t, Granted, r.Resolve(req))
	assert.Equal(t, 1, cache.sets)

	// Earlier decisions still answer while the store is down
	req.State = PermissionState{}
	req.Unavailable = true
	assert.Equal(t, Granted, r.Resolve(req))
}

func TestResolver_AdminBypass(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleSuperAdmin, auth.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			r, _ := newTestResolver()
			for _, perm := range []string{"view:payroll", "manage:users", "does:not:exist"} {
				req := Request{
					RequiredPermission: perm,
					User:               &auth.User{ID: "u1"},
					Profile:            &auth.Profile{UserID: "u1", Role: role},
					State:              NewPermissionState(role, nil),
				}
				assert.Equal(t, Granted, r.Resolve(req), perm)
			}
		})
	}

	t.Run("flags alone bypass an empty set", func(t *testing.T) {
		r, _ := newTestResolver()
		req := standardRequest("u1", "view:payroll")
		req.State.IsAdmin = true
		assert.Equal(t, Granted, r.Resolve(req))
	})
}

func TestResolver_EmptySetDenies(t *testing.T) {
	r, _ := newTestResolver()
	assert.Equal(t, Denied, r.Resolve(standardRequest("u1", "view:reports")))
}

func TestResolver_ExactMatch(t *testing.T) {
	r, _ := newTestResolver()

	assert.Equal(t, Granted, r.Resolve(standardRequest("u1", "manage:users", "manage:users")))
	assert.Equal(t, Denied, r.Resolve(standardRequest("u1", "manage:user", "manage:users")))
	assert.Equal(t, Denied, r.Resolve(standardRequest("u1", "manage:users:extra", "manage:users")))
	assert.Equal(t, Denied, r.Resolve(standardRequest("u1", "Manage:Users", "manage:users")))
}

func TestResolver_CacheShortCircuits(t *testing.T) {
	r, cache := newTestResolver()

	req := standardRequest("u1", "view:reports", "view:reports")
	require.Equal(t, Granted, r.Resolve(req))
	require.Equal(t, 1, cache.sets)

	// Same user, permission removed from the set: the memoized decision wins
	req = standardRequest("u1", "view:reports")
	assert.Equal(t, Granted, r.Resolve(req))
	assert.Equal(t, 1, cache.sets, "cache hit must not recompute")
}

func TestResolver_CacheKeyIsolation(t *testing.T) {
	r, _ := newTestResolver()

	require.Equal(t, Granted, r.Resolve(standardRequest("u1", "p", "p")))
	assert.Equal(t, Denied, r.Resolve(standardRequest("u2", "p")))
}

func TestResolver_ClearsExactlyOnUserSwitch(t *testing.T) {
	r, cache := newTestResolver()

	r.Resolve(standardRequest("A", "view:reports", "view:reports"))
	require.Equal(t, 1, cache.Len())

	r.Resolve(standardRequest("A", "view:payroll"))
	assert.Equal(t, 2, cache.Len(), "same user keeps entries")
	_, ok := cache.Get("A", "view:reports")
	assert.True(t, ok)

	r.Resolve(Request{User: &auth.User{ID: "B"}})
	assert.Equal(t, 0, cache.Len(), "switch to B clears before anything else")
}

func TestResolver_FirstUserDoesNotClear(t *testing.T) {
	cache := NewMemoryCache()
	cache.Set("preloaded", "p", true)
	r := NewResolver(cache, nil, nil)

	r.Resolve(standardRequest("u1", "view:reports"))
	_, ok := cache.Get("preloaded", "p")
	assert.True(t, ok, "previous user starts absent, so no clear")
}

func TestResolver_LogoutThenLogin(t *testing.T) {
	r, cache := newTestResolver()

	r.Resolve(standardRequest("u1", "view:reports", "view:reports"))
	require.Equal(t, 1, cache.Len())

	r.Resolve(Request{RequiredPermission: "view:reports"})
	assert.Equal(t, 0, cache.Len(), "u1 to no user clears")

	assert.Equal(t, Denied, r.Resolve(standardRequest("u2", "view:reports")))
}

func TestResolver_RoleChangeClears(t *testing.T) {
	r, cache := newTestResolver()

	admin := Request{
		RequiredPermission: "view:payroll",
		User:               &auth.User{ID: "u1"},
		Profile:            &auth.Profile{UserID: "u1", Role: auth.RoleAdmin},
		State:              NewPermissionState(auth.RoleAdmin, nil),
	}
	require.Equal(t, Granted, r.Resolve(admin))

	demoted := standardRequest("u1", "view:payroll")
	assert.Equal(t, Denied, r.Resolve(demoted), "demotion must not reuse the admin decision")
	assert.Equal(t, 1, cache.Len())
}

func TestResolver_ProfileGapKeepsRole(t *testing.T) {
	r, cache := newTestResolver()

	r.Resolve(standardRequest("u1", "view:reports", "view:reports"))
	r.Resolve(Request{RequiredPermission: "view:reports", User: &auth.User{ID: "u1"}})
	r.Resolve(standardRequest("u1", "view:reports", "view:reports"))
	assert.Equal(t, 1, cache.Len(), "a reloading profile is not a role change")
}

func TestResolver_ClearPermissionCheckCache(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := NewResolver(nil, logger, metrics)

	r.Resolve(standardRequest("u1", "view:reports", "view:reports"))
	require.Equal(t, 1, r.CachedEntries())

	r.ClearPermissionCheckCache()
	assert.Equal(t, 0, r.CachedEntries())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PermissionCacheClearsTotal.WithLabelValues(ClearExplicit)))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, ClearExplicit, hook.LastEntry().Data["reason"])
}

func TestResolver_Scenarios(t *testing.T) {
	t.Run("A granted", func(t *testing.T) {
		r, _ := newTestResolver()
		assert.Equal(t, Granted, r.Resolve(standardRequest("u1", "view:reports", "view:reports")))
	})

	t.Run("B denied", func(t *testing.T) {
		r, _ := newTestResolver()
		assert.Equal(t, Denied, r.Resolve(standardRequest("u1", "edit:reports", "view:reports")))
	})

	t.Run("C loading", func(t *testing.T) {
		r, _ := newTestResolver()
		r.Resolve(standardRequest("u1", "view:reports", "view:reports"))
		req := standardRequest("u1", "view:reports", "view:reports")
		req.IsLoading = true
		assert.Equal(t, Indeterminate, r.Resolve(req), "loading wins over a warm cache")
	})
}

func TestResolver_Concurrent(t *testing.T) {
	r, _ := newTestResolver()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Granted, r.Resolve(standardRequest("u1", "view:reports", "view:reports")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.CachedEntries())
}
