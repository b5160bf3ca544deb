package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/guard"
	"github.com/sirupsen/logrus"
)

// Defaults for Provider
const (
	DefaultSessionTTL  = 8 * time.Hour
	DefaultGracePeriod = 24 * time.Hour
	DefaultLoadTimeout = 2 * time.Second
)

// Config tunes a Provider
type Config struct {
	// SessionTTL is the lifetime stamped into new sessions
	SessionTTL time.Duration
	// GracePeriod keeps expired sessions in the store so they can be signed out
	GracePeriod time.Duration
	// LoadTimeout bounds a single Load; slower lookups report Loading
	LoadTimeout time.Duration
}

// Provider resolves tokens into guard identity and profile states
type Provider struct {
	sessions Store
	profiles ProfileLoader
	config   Config
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewProvider creates a provider; zero config values take the defaults
func NewProvider(sessions Store, profiles ProfileLoader, config Config, logger logrus.FieldLogger) *Provider {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.GracePeriod < 0 {
		config.GracePeriod = 0
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Provider{
		sessions: sessions,
		profiles: profiles,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue creates and stores a session for userID
func (p *Provider) Issue(ctx context.Context, userID string) (*auth.Session, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	now := p.now()
	session := &auth.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: auth.ExpiresIn(now, p.config.SessionTTL),
		CreatedAt: now.UTC(),
	}
	if err := p.sessions.Put(ctx, session, p.config.SessionTTL+p.config.GracePeriod); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Load resolves token. An empty or unknown token is a resolved absence, not a failure.
// The profile is only looked up for sessions that are still valid.
func (p *Provider) Load(ctx context.Context, token string) (guard.Load[guard.Identity], guard.Load[*auth.Profile]) {
	if token == "" {
		return guard.Ready(guard.Identity{}), guard.NotStarted[*auth.Profile]()
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.LoadTimeout)
	defer cancel()

	session, err := p.sessions.Get(ctx, token)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return guard.Ready(guard.Identity{}), guard.NotStarted[*auth.Profile]()
	case errors.Is(err, context.DeadlineExceeded):
		return guard.Loading[guard.Identity](), guard.NotStarted[*auth.Profile]()
	case err != nil:
		p.logger.WithError(err).Warn("Session lookup failed")
		return guard.Failed[guard.Identity](err), guard.NotStarted[*auth.Profile]()
	}

	identity := guard.Ready(guard.Identity{
		User:    &auth.User{ID: session.UserID},
		Session: session,
	})
	if !session.ValidAt(p.now()) {
		return identity, guard.NotStarted[*auth.Profile]()
	}

	profile, err := p.profiles.GetProfile(ctx, session.UserID)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return identity, guard.Loading[*auth.Profile]()
	case err != nil:
		p.logger.WithError(err).WithField("user_id", session.UserID).Warn("Profile lookup failed")
		return identity, guard.Failed[*auth.Profile](err)
	}
	return identity, guard.Ready(profile)
}

// ForceLogout deletes the session; it satisfies guard.LogoutFunc
func (p *Provider) ForceLogout(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return nil
	}
	return p.Logout(ctx, session.Token)
}

// Logout deletes the session behind token
func (p *Provider) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := p.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
