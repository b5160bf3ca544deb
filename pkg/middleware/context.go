package middleware

import (
	"net/http"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/platinummonkey/hrportal/pkg/rbac"
)

// AuthContext is what a guarded handler knows about the caller
type AuthContext struct {
	User        *auth.User
	Session     *auth.Session
	Profile     *auth.Profile
	Permissions rbac.PermissionState
	ClientID    string
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *AuthContext {
	authCtx, ok := r.Context().Value(contextkeys.AuthKey).(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
