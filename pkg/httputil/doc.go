// Package httputil provides HTTP helpers shared by the gate middleware and the API
// handlers.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteErrorMessage(w, http.StatusNotFound, "not found")
//	httputil.WriteLoading(w, time.Second)
//
// Errors are always JSON objects of the form {"error": "..."}.
//
// # Request Helpers
//
//	token := httputil.SessionToken(r, "hrportal_session")
//
// The session token is read from the session cookie first and from an
// "Authorization: Bearer" header otherwise.
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		middleware.RequestID(logger),
//	)
package httputil
