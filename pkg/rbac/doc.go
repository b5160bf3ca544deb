// Package rbac resolves access decisions for the HR portal.
//
// # Overview
//
// A permission check turns the current user, profile and role-derived permission state
// into a tri-state Decision:
//
//	Granted        - serve the page
//	Denied         - redirect elsewhere
//	Indeterminate  - permission data still loading, decide later
//
// # Resolution Order
//
//  1. No required permission: Granted (login-only routes)
//  2. No user or no profile: Denied
//  3. Permission state loading: Indeterminate
//  4. Cached decision for (user, permission): returned as is
//  5. Super admin or admin: Granted; otherwise exact name match against the set
//
// Only final decisions are cached. Names are compared with exact string equality, so
// "manage:users" does not satisfy "manage:user" or "manage:users:extra".
//
// # Cache Invalidation
//
// Each Resolver remembers the last user it saw. When a different user appears, or the same
// user shows up with a different role, every cached decision is dropped before the new
// check runs. Logout additionally calls ClearPermissionCheckCache.
//
// ResolverPool keeps one Resolver per client so these rules follow a single browser.
//
// # Related Packages
//
//   - pkg/guard: Route guard state machine consuming decisions
//   - pkg/permissions: Loads role permission states
package rbac
