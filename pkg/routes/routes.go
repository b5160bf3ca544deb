package routes

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/platinummonkey/hrportal/pkg/rbac"
	"gopkg.in/yaml.v3"
)

// HomeRoute is the fallback route every visitor may open
const HomeRoute = "/"

// Module ids of the HR portal
const (
	ModuleDashboard     = "dashboard"
	ModuleEmployees     = "employees"
	ModulePayroll       = "payroll"
	ModuleBenefits      = "benefits"
	ModuleEvaluations   = "evaluations"
	ModuleIncidents     = "incidents"
	ModuleVacations     = "vacations"
	ModuleNPS           = "nps"
	ModuleWhatsApp      = "whatsapp"
	ModuleNotifications = "notifications"
	ModuleReports       = "reports"
	ModulePermissions   = "permissions"
)

var (
	// ErrEmptyTable is returned when a route file defines no routes
	ErrEmptyTable = errors.New("route table is empty")
	// ErrInvalidRoute is returned for a route without a path or module
	ErrInvalidRoute = errors.New("invalid route")
)

// Route is one guarded page
type Route struct {
	Path   string `yaml:"path" json:"path"`
	Module string `yaml:"module" json:"module"`
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`

	// Permission overrides the default view:<module> requirement
	Permission string `yaml:"permission,omitempty" json:"permission,omitempty"`

	// PermissionAdmin marks pages reachable only with manage:permissions
	PermissionAdmin bool `yaml:"permission_admin,omitempty" json:"permission_admin,omitempty"`
}

// RequiredPermission returns the permission checked before the page renders
func (r Route) RequiredPermission() string {
	switch {
	case r.Permission != "":
		return r.Permission
	case r.PermissionAdmin:
		return rbac.PermissionManagePermissions
	default:
		return rbac.ViewPermission(r.Module)
	}
}

func (r Route) validate() error {
	if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, r.Path)
	}
	if r.Module == "" {
		return fmt.Errorf("%w: %s has no module", ErrInvalidRoute, r.Path)
	}
	return nil
}

// FirstAccessibleRoute returns the first route the user may open, or HomeRoute
func FirstAccessibleRoute(routes []Route, canViewModule func(module string) bool, canManagePermissions func() bool) string {
	for _, r := range routes {
		if r.PermissionAdmin {
			if canManagePermissions != nil && canManagePermissions() {
				return r.Path
			}
			continue
		}
		if canViewModule != nil && canViewModule(r.Module) {
			return r.Path
		}
	}
	return HomeRoute
}

// Table is an ordered route table safe for concurrent reads and replacement
type Table struct {
	mu     sync.RWMutex
	routes []Route
}

// NewTable creates a table from routes
func NewTable(routes []Route) (*Table, error) {
	t := &Table{}
	if err := t.Replace(routes); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultRoutes returns the built-in HR portal pages in menu order
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/dashboard", Module: ModuleDashboard, Title: "Dashboard"},
		{Path: "/employees", Module: ModuleEmployees, Title: "Employees"},
		{Path: "/payroll", Module: ModulePayroll, Title: "Payroll"},
		{Path: "/benefits", Module: ModuleBenefits, Title: "Benefits"},
		{Path: "/evaluations", Module: ModuleEvaluations, Title: "Evaluations"},
		{Path: "/incidents", Module: ModuleIncidents, Title: "Incidents"},
		{Path: "/vacations", Module: ModuleVacations, Title: "Vacations"},
		{Path: "/nps", Module: ModuleNPS, Title: "NPS"},
		{Path: "/whatsapp", Module: ModuleWhatsApp, Title: "WhatsApp"},
		{Path: "/notifications", Module: ModuleNotifications, Title: "Notifications"},
		{Path: "/reports", Module: ModuleReports, Title: "Reports"},
		{Path: "/permissions", Module: ModulePermissions, Title: "Permissions", PermissionAdmin: true},
	}
}

// DefaultTable returns a table of DefaultRoutes
func DefaultTable() *Table {
	return &Table{routes: DefaultRoutes()}
}

// Routes returns a copy of the current routes
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Lookup returns the route registered for path
func (t *Table) Lookup(path string) (Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Replace swaps the table contents after validating every route
func (t *Table) Replace(routes []Route) error {
	if len(routes) == 0 {
		return ErrEmptyTable
	}
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if err := r.validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Path]; dup {
			return fmt.Errorf("%w: duplicate path %s", ErrInvalidRoute, r.Path)
		}
		seen[r.Path] = struct{}{}
	}

	next := make([]Route, len(routes))
	copy(next, routes)

	t.mu.Lock()
	t.routes = next
	t.mu.Unlock()
	return nil
}

// FirstAccessible implements guard.RouteFinder
func (t *Table) FirstAccessible(canViewModule func(module string) bool, canManagePermissions func() bool) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return FirstAccessibleRoute(t.routes, canViewModule, canManagePermissions)
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// Parse decodes a YAML route document
func Parse(data []byte) ([]Route, error) {
	var f routeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse route file: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, ErrEmptyTable
	}
	return f.Routes, nil
}

// LoadFile reads a table from a YAML file
func LoadFile(path string) (*Table, error) {
	routes, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewTable(routes)
}

func readFile(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}
	return Parse(data)
}
