// Package session resolves the identity behind a request: the session a token points to
// and the profile of the user holding it.
//
// Sessions live in a Store (Redis in production, memory for single-node setups and tests)
// and are kept past their expiry for a grace period so the guard can still see an expired
// session, redirect, and force the sign-out. Profiles come from the profiles table.
//
// Provider.Load never returns an error. Collaborator failures become Failed load states and
// a lookup that outlives the wait budget is reported as Loading.
package session
