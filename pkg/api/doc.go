// Package api wires the HTTP surface of the portal.
//
// Every page in the route table is served behind the gate with the permission its route
// requires; the table is consulted per request so reloaded route files take effect
// without a restart. The API adds:
//
//	GET  /              public home
//	GET  /api/me        caller identity, role and the pages it may open
//	POST /logout        end the session and reset the client's decision cache
//	POST /api/permissions/refresh  drop cached role permissions after an edit
//	GET  /health/live   liveness
//	GET  /health/ready  readiness (database and Redis)
//	GET  /metrics       Prometheus metrics
package api
