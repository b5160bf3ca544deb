package permissions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/rbac"
)

// Source returns the explicit permission set of a role
type Source interface {
	PermissionsForRole(ctx context.Context, role auth.Role) ([]rbac.Permission, error)
}

// SQLStore reads the role_permissions table
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store on db
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// PermissionsForRole implements Source. A role without rows has an empty set.
func (s *SQLStore) PermissionsForRole(ctx context.Context, role auth.Role) ([]rbac.Permission, error) {
	query := `
		SELECT permission
		FROM role_permissions
		WHERE role = $1
		ORDER BY permission
	`

	rows, err := s.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	defer rows.Close()

	perms := []rbac.Permission{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan role permission: %w", err)
		}
		perms = append(perms, rbac.Permission{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read role permissions: %w", err)
	}
	return perms, nil
}
