package rbac

import (
	"github.com/platinummonkey/hrportal/pkg/auth"
)

// Permission is a named capability such as "view:payroll"
type Permission struct {
	Name string `json:"name"`
}

// Permission name helpers for module access
const (
	ActionView = "view"

	// PermissionManagePermissions lets a standard user administer role permissions
	PermissionManagePermissions = "manage:permissions"
)

// ViewPermission returns the permission required to view a module
func ViewPermission(module string) string {
	return ActionView + ":" + module
}

// Decision is the tri-state result of a permission check
type Decision int8

const (
	// Indeterminate means permission data is still loading; callers must wait
	Indeterminate Decision = iota
	Denied
	Granted
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "indeterminate"
	}
}

// Final reports whether the decision can be acted upon
func (d Decision) Final() bool {
	return d == Granted || d == Denied
}

// PermissionState is the role-derived permission snapshot for the current user
type PermissionState struct {
	Role         auth.Role    `json:"role"`
	Permissions  []Permission `json:"permissions"`
	IsSuperAdmin bool         `json:"is_super_admin"`
	IsAdmin      bool         `json:"is_admin"`
}

// NewPermissionState derives the administrative flags from the role
func NewPermissionState(role auth.Role, permissions []Permission) PermissionState {
	return PermissionState{
		Role:         role,
		Permissions:  permissions,
		IsSuperAdmin: role.IsSuperAdmin(),
		IsAdmin:      role.IsAdmin(),
	}
}

// Bypass reports whether the state holds every permission implicitly
func (s PermissionState) Bypass() bool {
	return s.IsSuperAdmin || s.IsAdmin
}

// Has reports whether the explicit set contains the exact permission name
func (s PermissionState) Has(name string) bool {
	for _, p := range s.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// CanViewModule reports whether the user may open the module's pages
func (s PermissionState) CanViewModule(module string) bool {
	return s.Bypass() || s.Has(ViewPermission(module))
}

// CanManagePermissions reports whether the user may administer role permissions
func (s PermissionState) CanManagePermissions() bool {
	return s.Bypass() || s.Has(PermissionManagePermissions)
}

// Names returns the explicit permission names
func (s PermissionState) Names() []string {
	names := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		names = append(names, p.Name)
	}
	return names
}
