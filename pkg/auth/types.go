package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of profile roles known to the portal
type Role string

const (
	RoleSuperAdmin Role = "super_admin" // Every capability, including permission management
	RoleAdmin      Role = "admin"       // Every capability
	RoleStandard   Role = "standard"    // Only what the role permission set grants
)

// ParseRole normalizes a stored role name ("super admin", "Super-Admin", "super_admin")
func ParseRole(name string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if normalized == "superadmin" {
		normalized = string(RoleSuperAdmin)
	}

	role := Role(normalized)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", name)
	}
	return role, nil
}

// Valid reports whether the role belongs to the known set
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStandard:
		return true
	}
	return false
}

// IsSuperAdmin reports whether the role is the super admin role
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// IsAdmin reports whether the role is the plain admin role
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// BypassesPermissions reports whether the role implicitly holds every permission.
// This is the only place the "administrative roles win" rule lives.
func (r Role) BypassesPermissions() bool {
	return r.IsSuperAdmin() || r.IsAdmin()
}

// User is the authenticated principal behind a session
type User struct {
	ID string `json:"id"`
}

// Session is an active login. A nil ExpiresAt never expires.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt *int64    `json:"expires_at,omitempty"` // epoch seconds
	CreatedAt time.Time `json:"created_at"`
}

// ValidAt reports whether the session is still valid at the given time
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt == nil || *s.ExpiresAt >= now.Unix()
}

// ExpiredAt reports whether the session carries an expiry that has passed
func (s *Session) ExpiredAt(now time.Time) bool {
	return s != nil && !s.ValidAt(now)
}

// TTL returns the remaining lifetime, or 0 for sessions without expiry
func (s *Session) TTL(now time.Time) time.Duration {
	if s == nil || s.ExpiresAt == nil {
		return 0
	}
	remaining := time.Unix(*s.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Profile is the resolved identity record for a user
type Profile struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ExpiresIn returns an epoch-seconds expiry d from now, for building sessions
func ExpiresIn(now time.Time, d time.Duration) *int64 {
	at := now.Add(d).Unix()
	return &at
}
