// Package auth holds the identity types shared by the access gate: users, sessions,
// profiles and the role sum type.
//
// # Sessions
//
// A session is valid while its expiry is absent or not in the past:
//
//	sess.ValidAt(time.Now())
//
// # Roles
//
// Roles form a closed set. Super admins and admins bypass explicit permission lookups;
// callers ask the role instead of comparing strings:
//
//	if profile.Role.BypassesPermissions() { ... }
//
// # Related Packages
//
//   - pkg/rbac: Permission resolution and decision cache
//   - pkg/session: Session and profile stores
package auth
