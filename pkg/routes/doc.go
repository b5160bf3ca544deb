// Package routes holds the ordered table of HR portal pages and the permission each one
// requires.
//
// The table answers the redirect question the guard asks after a confirmed denial: which
// page may this user open first. Entries are consulted in order; pages whose module the
// user cannot view are skipped, the permissions admin page is offered only to users who
// can manage permissions, and the home route is the fallback.
//
// A table can be loaded from YAML and reloaded when the file changes:
//
//	table, err := routes.LoadFile("routes.yaml")
//	w, err := routes.Watch(ctx, "routes.yaml", table, logger)
package routes
