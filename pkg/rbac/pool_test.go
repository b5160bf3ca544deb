package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverPool(t *testing.T) {
	pool, err := NewResolverPool(2, nil, nil)
	require.NoError(t, err)

	a := pool.For("client-a")
	assert.Same(t, a, pool.For("client-a"))

	b := pool.For("client-b")
	assert.NotSame(t, a, b)

	// Different clients do not clear each other
	a.Resolve(standardRequest("u1", "view:reports", "view:reports"))
	b.Resolve(standardRequest("u2", "view:reports", "view:reports"))
	assert.Equal(t, 1, a.CachedEntries())
	assert.Equal(t, 1, b.CachedEntries())

	pool.ClearPermissionCheckCache("client-a")
	assert.Equal(t, 0, a.CachedEntries())
	assert.Equal(t, 1, b.CachedEntries())

	pool.ClearPermissionCheckCache("unknown")
	assert.Equal(t, 2, pool.Len())

	pool.For("client-c")
	assert.Equal(t, 2, pool.Len(), "least recently used client is evicted")
}

func TestResolverPool_ClearAll(t *testing.T) {
	pool, err := NewResolverPool(8, nil, nil)
	require.NoError(t, err)

	pool.For("client-a").Resolve(standardRequest("u1", "view:reports", "view:reports"))
	pool.For("client-a").Resolve(standardRequest("u1", "view:payroll", "view:reports"))
	pool.For("client-b").Resolve(standardRequest("u2", "view:reports"))

	assert.Equal(t, 3, pool.ClearAll())
	assert.Zero(t, pool.For("client-a").CachedEntries())
	assert.Zero(t, pool.For("client-b").CachedEntries())
	assert.Zero(t, pool.ClearAll())
}
