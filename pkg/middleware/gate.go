package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/platinummonkey/hrportal/pkg/guard"
	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/sirupsen/logrus"
)

// DefaultSessionCookie names the session cookie
const DefaultSessionCookie = "hrportal_session"

// AuthLoader resolves the identity and profile behind a session token
type AuthLoader interface {
	Load(ctx context.Context, token string) (guard.Load[guard.Identity], guard.Load[*auth.Profile])
}

// PermissionLoader resolves the permission state of a profile
type PermissionLoader interface {
	Load(ctx context.Context, profile guard.Load[*auth.Profile]) guard.Load[rbac.PermissionState]
}

// GateConfig configures a Gate
type GateConfig struct {
	SessionCookie string
	// RetryAfter is advertised on Loading responses
	RetryAfter    time.Duration
	SecureCookies bool
}

// Gate evaluates guarded routes for HTTP requests
type Gate struct {
	auth      AuthLoader
	perms     PermissionLoader
	resolvers *rbac.ResolverPool
	guard     *guard.Guard
	watcher   *guard.ExpiryWatcher
	config    GateConfig
	logger    logrus.FieldLogger
}

// NewGate creates a gate; watcher may be nil to disable forced sign-outs
func NewGate(authLoader AuthLoader, perms PermissionLoader, resolvers *rbac.ResolverPool, g *guard.Guard, watcher *guard.ExpiryWatcher, config GateConfig, logger logrus.FieldLogger) *Gate {
	if config.SessionCookie == "" {
		config.SessionCookie = DefaultSessionCookie
	}
	if config.RetryAfter <= 0 {
		config.RetryAfter = time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{
		auth:      authLoader,
		perms:     perms,
		resolvers: resolvers,
		guard:     g,
		watcher:   watcher,
		config:    config,
		logger:    logger,
	}
}

// Evaluation is one gate decision with the data it was made from
type Evaluation struct {
	Outcome guard.Outcome
	Auth    *AuthContext
	Token   string
}

// Evaluate resolves the caller and runs the guard for permission. An empty permission
// only requires a valid login.
func (g *Gate) Evaluate(r *http.Request, permission string) Evaluation {
	ctx := r.Context()
	token := httputil.SessionToken(r, g.config.SessionCookie)
	clientKey := ClientKey(r, token)

	identity, profile := g.auth.Load(ctx, token)
	permissions := g.perms.Load(ctx, profile)

	outcome := g.guard.Evaluate(ctx, g.resolvers.For(clientKey), guard.Input{
		RequiredPermission: permission,
		Identity:           identity,
		Profile:            profile,
		Permissions:        permissions,
	})
	if g.watcher != nil {
		g.watcher.Observe(ctx, identity)
	}

	id, _ := identity.Value()
	prof, _ := profile.Value()
	state, _ := permissions.Value()
	return Evaluation{
		Outcome: outcome,
		Token:   token,
		Auth: &AuthContext{
			User:        id.User,
			Session:     id.Session,
			Profile:     prof,
			Permissions: state,
			ClientID:    clientKey,
		},
	}
}

// Require guards next with permission
func (g *Gate) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			eval := g.Evaluate(r, permission)

			switch eval.Outcome.Kind {
			case guard.KindLoading:
				httputil.WriteLoading(w, g.config.RetryAfter, eval.Outcome.Reason)
			case guard.KindRedirect:
				g.redirect(w, r, eval)
			default:
				ctx := contextkeys.WithAuth(r.Context(), eval.Auth)
				if eval.Auth.User != nil {
					ctx = contextkeys.WithUserID(ctx, eval.Auth.User.ID)
					ctx = observability.WithLogger(ctx, observability.GetLogger(ctx).WithField("user_id", eval.Auth.User.ID))
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// RedirectResponse is sent instead of a 302 to clients asking for JSON
type RedirectResponse struct {
	Error    string `json:"error"`
	Reason   string `json:"reason"`
	Redirect string `json:"redirect"`
}

func (g *Gate) redirect(w http.ResponseWriter, r *http.Request, eval Evaluation) {
	loginProblem := eval.Outcome.Reason != guard.ReasonPermissionDenied
	if loginProblem && eval.Token != "" {
		g.ClearSessionCookie(w)
	}

	if httputil.WantsJSON(r) {
		status := http.StatusForbidden
		if loginProblem {
			status = http.StatusUnauthorized
		}
		httputil.WriteJSON(w, status, RedirectResponse{
			Error:    "access denied",
			Reason:   eval.Outcome.Reason,
			Redirect: eval.Outcome.Target,
		})
		return
	}
	http.Redirect(w, r, eval.Outcome.Target, http.StatusFound)
}

// SetSessionCookie stores a session token in the browser
func (g *Gate) SetSessionCookie(w http.ResponseWriter, session *auth.Session, now time.Time) {
	cookie := &http.Cookie{
		Name:     g.config.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl := session.TTL(now); ttl > 0 {
		cookie.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie removes the session cookie from the browser
func (g *Gate) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.config.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the session token the request carries
func (g *Gate) SessionToken(r *http.Request) string {
	return httputil.SessionToken(r, g.config.SessionCookie)
}

// ClientKey returns the resolver and rate limit key of the request's client
func (g *Gate) ClientKey(r *http.Request) string {
	return ClientKey(r, g.SessionToken(r))
}

// ClearAllPermissionCheckCaches empties every client's decision cache
func (g *Gate) ClearAllPermissionCheckCaches() int {
	return g.resolvers.ClearAll()
}

// ClearPermissionCheckCache empties the decision cache of the request's client
func (g *Gate) ClearPermissionCheckCache(r *http.Request) {
	g.resolvers.ClearPermissionCheckCache(g.ClientKey(r))
}
