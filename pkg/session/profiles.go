package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/hrportal/pkg/auth"
)

// ProfileLoader resolves a user's profile
type ProfileLoader interface {
	// GetProfile returns ErrProfileNotFound for unknown users
	GetProfile(ctx context.Context, userID string) (*auth.Profile, error)
}

// SQLProfileStore reads the profiles table
type SQLProfileStore struct {
	db *sql.DB
}

// NewSQLProfileStore creates a profile store on db
func NewSQLProfileStore(db *sql.DB) *SQLProfileStore {
	return &SQLProfileStore{db: db}
}

// GetProfile implements ProfileLoader
func (s *SQLProfileStore) GetProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	query := `
		SELECT user_id, role, display_name, email
		FROM profiles
		WHERE user_id = $1
	`

	var (
		profile     auth.Profile
		role        string
		displayName sql.NullString
		email       sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&profile.UserID, &role, &displayName, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	profile.Role = parsed
	profile.DisplayName = displayName.String
	profile.Email = email.String
	return &profile, nil
}
