// Package guard decides what a protected route renders: Loading, Redirect(target) or
// Content.
//
// # Rules
//
// Evaluated in order, first match wins:
//
//  1. Auth or permissions loading: Loading
//  2. Permission required and the decision is indeterminate: Loading
//  3. No user, no session or an expired session: Redirect to home
//  4. Profile not loaded yet: Loading
//  5. Permission required and denied: Redirect to the first accessible route
//  6. Content
//
// Each collaborator is described by a Load value (NotStarted, Loading, Ready, Failed), so
// every completion order of the session, profile and permission loads can be replayed in
// tests.
//
// # Forced Logout
//
// ExpiryWatcher runs beside Evaluate. When a user still presents an expired session it
// signs the session out once for that expiry, however many requests observe it.
package guard
