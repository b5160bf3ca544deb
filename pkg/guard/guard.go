package guard

import (
	"context"
	"time"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Kind is the renderable state of a guarded route
type Kind int8

const (
	KindLoading Kind = iota
	KindRedirect
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindContent:
		return "content"
	default:
		return "loading"
	}
}

// Outcome reasons
const (
	ReasonAuthLoading        = "auth_loading"
	ReasonPermissionsLoading = "permissions_loading"
	ReasonDecisionPending    = "decision_pending"
	ReasonAuthFailed         = "auth_failed"
	ReasonNoUser             = "no_user"
	ReasonNoSession          = "no_session"
	ReasonSessionExpired     = "session_expired"
	ReasonProfileLoading     = "profile_loading"
	ReasonProfileUnavailable = "profile_unavailable"
	ReasonPermissionDenied   = "permission_denied"
	ReasonGranted            = "granted"
)

// DefaultHomeRoute is where unauthenticated visitors are sent
const DefaultHomeRoute = "/"

// Outcome is exactly one of Loading, Redirect(Target) or Content
type Outcome struct {
	Kind     Kind
	Target   string
	Reason   string
	Decision rbac.Decision
}

// Identity is what the auth collaborator resolves for a request
type Identity struct {
	User    *auth.User
	Session *auth.Session
}

// Input is everything the guard reads for one evaluation
type Input struct {
	// RequiredPermission is empty for login-only routes
	RequiredPermission string

	Identity    Load[Identity]
	Profile     Load[*auth.Profile]
	Permissions Load[rbac.PermissionState]
}

// DecisionResolver resolves access decisions for one client
type DecisionResolver interface {
	Resolve(req rbac.Request) rbac.Decision
}

// RouteFinder computes the first route a user may open
type RouteFinder interface {
	FirstAccessible(canViewModule func(module string) bool, canManagePermissions func() bool) string
}

// Guard evaluates route access rules in strict priority order
type Guard struct {
	routes  RouteFinder
	home    string
	logger  logrus.FieldLogger
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures a Guard
type Option func(*Guard)

// WithHomeRoute overrides the unauthenticated redirect target
func WithHomeRoute(path string) Option {
	return func(g *Guard) { g.home = path }
}

// WithMetrics records outcomes
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// New creates a guard redirecting denied users to routes.FirstAccessible
func New(routes RouteFinder, logger logrus.FieldLogger, opts ...Option) *Guard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	g := &Guard{
		routes: routes,
		home:   DefaultHomeRoute,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate returns the outcome for in. Loading checks always run before denial checks
// so a decision still moving from indeterminate to final is never read as denied.
func (g *Guard) Evaluate(ctx context.Context, resolver DecisionResolver, in Input) Outcome {
	ctx, span := observability.Tracer().Start(ctx, "guard.Evaluate")
	defer span.End()

	out := g.evaluate(ctx, resolver, in)

	span.SetAttributes(
		attribute.String("guard.outcome", out.Kind.String()),
		attribute.String("guard.reason", out.Reason),
		attribute.String("guard.permission", in.RequiredPermission),
	)
	g.metrics.RecordGuardOutcome(out.Kind.String(), out.Reason)
	return out
}

func (g *Guard) evaluate(ctx context.Context, resolver DecisionResolver, in Input) Outcome {
	authLoading := in.Identity.Pending()
	permissionsLoading := in.Permissions.InFlight()

	// 1. Either collaborator still loading
	if authLoading {
		return Outcome{Kind: KindLoading, Reason: ReasonAuthLoading, Decision: rbac.Indeterminate}
	}
	if permissionsLoading {
		return Outcome{Kind: KindLoading, Reason: ReasonPermissionsLoading, Decision: rbac.Indeterminate}
	}

	identity, _ := in.Identity.Value()
	profile, _ := in.Profile.Value()
	state, _ := in.Permissions.Value()

	decision := resolver.Resolve(rbac.Request{
		RequiredPermission: in.RequiredPermission,
		User:               identity.User,
		Profile:            profile,
		IsLoading:          in.Permissions.Pending(),
		Unavailable:        in.Permissions.IsFailed(),
		State:              state,
	})

	// 2. Permissions can be unrequested while the general flags are already clear
	if in.RequiredPermission != "" && decision == rbac.Indeterminate {
		return Outcome{Kind: KindLoading, Reason: ReasonDecisionPending, Decision: decision}
	}

	// 3. No valid login
	if reason, denied := g.sessionDenial(in.Identity, identity); denied {
		g.logDenial(ctx, in, identity, reason)
		return Outcome{Kind: KindRedirect, Target: g.home, Reason: reason, Decision: decision}
	}

	// 4. User known, profile still arriving
	if in.Profile.IsFailed() {
		g.logDenial(ctx, in, identity, ReasonProfileUnavailable)
		return Outcome{Kind: KindRedirect, Target: g.home, Reason: ReasonProfileUnavailable, Decision: decision}
	}
	if !AllReady(in.Identity, in.Profile) || profile == nil {
		return Outcome{Kind: KindLoading, Reason: ReasonProfileLoading, Decision: decision}
	}

	// 5. Confirmed denial only
	if in.RequiredPermission != "" && decision == rbac.Denied {
		target := g.firstAccessible(state)
		g.logDenial(ctx, in, identity, ReasonPermissionDenied)
		return Outcome{Kind: KindRedirect, Target: target, Reason: ReasonPermissionDenied, Decision: decision}
	}

	// 6. Serve the guarded content
	return Outcome{Kind: KindContent, Reason: ReasonGranted, Decision: decision}
}

func (g *Guard) sessionDenial(source Load[Identity], identity Identity) (string, bool) {
	switch {
	case source.IsFailed():
		return ReasonAuthFailed, true
	case identity.User == nil:
		return ReasonNoUser, true
	case identity.Session == nil:
		return ReasonNoSession, true
	case identity.Session.ExpiredAt(g.now()):
		return ReasonSessionExpired, true
	}
	return "", false
}

func (g *Guard) firstAccessible(state rbac.PermissionState) string {
	if g.routes == nil {
		return g.home
	}
	target := g.routes.FirstAccessible(state.CanViewModule, state.CanManagePermissions)
	if target == "" {
		return g.home
	}
	return target
}

func (g *Guard) logDenial(ctx context.Context, in Input, identity Identity, reason string) {
	fields := logrus.Fields{
		"reason":     reason,
		"permission": in.RequiredPermission,
	}
	if identity.User != nil {
		fields["user_id"] = identity.User.ID
	}
	if err := in.Identity.Err(); err != nil {
		fields["error"] = err.Error()
	} else if err := in.Profile.Err(); err != nil {
		fields["error"] = err.Error()
	}
	observability.WithTraceFields(ctx, g.logger).WithFields(fields).Info("Route access denied")
}
