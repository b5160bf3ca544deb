// Package permissions loads the permission set granted to a role and turns it into the
// rbac.PermissionState the resolver reads.
//
// Role sets are cached with a TTL. Concurrent loads of the same role share one store query,
// and a caller waits at most the configured budget before being told the set is still
// Loading; the shared query keeps running and fills the cache for the next request.
package permissions
