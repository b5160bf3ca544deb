package api

import (
	"net/http"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/platinummonkey/hrportal/pkg/middleware"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/platinummonkey/hrportal/pkg/routes"
	"github.com/sirupsen/logrus"
)

// HomeResponse is the public landing payload
type HomeResponse struct {
	Name  string `json:"name"`
	Login string `json:"login"`
}

// PageResponse describes a guarded page the caller may open
type PageResponse struct {
	Path   string `json:"path"`
	Module string `json:"module"`
	Title  string `json:"title,omitempty"`
	UserID string `json:"user_id"`
}

// MeResponse is the caller's identity and reachable pages
type MeResponse struct {
	UserID               string         `json:"user_id"`
	Role                 string         `json:"role"`
	DisplayName          string         `json:"display_name,omitempty"`
	Email                string         `json:"email,omitempty"`
	ExpiresAt            *int64         `json:"expires_at,omitempty"`
	CanManagePermissions bool           `json:"can_manage_permissions"`
	Permissions          []string       `json:"permissions"`
	Routes               []routes.Route `json:"routes"`
	Landing              string         `json:"landing"`
}

// RefreshResponse reports what a permission refresh dropped
type RefreshResponse struct {
	Role             string `json:"role,omitempty"`
	ClearedDecisions int    `json:"cleared_decisions"`
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, HomeResponse{Name: "hrportal", Login: "/login"})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	route, ok := s.routes.Lookup(r.URL.Path)
	if !ok {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "page not found")
		return
	}

	s.gate.Require(route.RequiredPermission())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := middleware.GetAuthContext(r)
		httputil.WriteSuccess(w, PageResponse{
			Path:   route.Path,
			Module: route.Module,
			Title:  route.Title,
			UserID: authCtx.User.ID,
		})
	})).ServeHTTP(w, r)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	state := authCtx.Permissions

	resp := MeResponse{
		UserID:               authCtx.User.ID,
		CanManagePermissions: state.CanManagePermissions(),
		Permissions:          state.Names(),
		Routes:               accessibleRoutes(s.routes.Routes(), state),
		Landing:              s.routes.FirstAccessible(state.CanViewModule, state.CanManagePermissions),
	}
	if authCtx.Profile != nil {
		resp.Role = string(authCtx.Profile.Role)
		resp.DisplayName = authCtx.Profile.DisplayName
		resp.Email = authCtx.Profile.Email
	}
	if authCtx.Session != nil {
		resp.ExpiresAt = authCtx.Session.ExpiresAt
	}
	httputil.WriteSuccess(w, resp)
}

func accessibleRoutes(all []routes.Route, state rbac.PermissionState) []routes.Route {
	out := make([]routes.Route, 0, len(all))
	for _, route := range all {
		if route.PermissionAdmin {
			if state.CanManagePermissions() {
				out = append(out, route)
			}
			continue
		}
		if state.Bypass() || state.Has(route.RequiredPermission()) {
			out = append(out, route)
		}
	}
	return out
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	if token := s.gate.SessionToken(r); token != "" {
		if err := s.sessions.Logout(r.Context(), token); err != nil {
			logger.WithError(err).Error("Failed to end session")
			httputil.WriteInternalError(w, err)
			return
		}
	}

	s.gate.ClearPermissionCheckCache(r)
	s.gate.ClearSessionCookie(w)
	logger.Info("Signed out")
	httputil.WriteNoContent(w)
}

// refreshPermissions drops cached role permissions after an edit, for one role
// (?role=standard) or all of them, and every client's cached decisions
func (s *Server) refreshPermissions(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	var resp RefreshResponse
	if name := r.URL.Query().Get("role"); name != "" {
		role, err := auth.ParseRole(name)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err)
			return
		}
		s.perms.Invalidate(role)
		resp.Role = string(role)
	} else {
		s.perms.Purge()
	}
	resp.ClearedDecisions = s.gate.ClearAllPermissionCheckCaches()

	logger.WithFields(logrus.Fields{
		"role":              resp.Role,
		"cleared_decisions": resp.ClearedDecisions,
	}).Info("Role permissions refreshed")
	httputil.WriteSuccess(w, resp)
}
