package guard

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/sirupsen/logrus"
)

// LogoutFunc signs a session out
type LogoutFunc func(ctx context.Context, session *auth.Session) error

// expiryKey identifies one detected expiry; a renewed session gets a new key
type expiryKey struct {
	token     string
	userID    string
	expiresAt int64
}

const defaultWatcherSize = 4096

// ExpiryWatcher forces a sign-out when a user still holds an expired session. It runs
// as a side effect next to guard evaluation and fires at most once per detected expiry.
type ExpiryWatcher struct {
	logout  LogoutFunc
	logger  logrus.FieldLogger
	metrics *observability.Metrics
	now     func() time.Time

	mu    sync.Mutex
	fired *lru.Cache[expiryKey, struct{}]
}

// NewExpiryWatcher creates a watcher calling logout on expiry
func NewExpiryWatcher(logout LogoutFunc, logger logrus.FieldLogger, metrics *observability.Metrics) (*ExpiryWatcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fired, err := lru.New[expiryKey, struct{}](defaultWatcherSize)
	if err != nil {
		return nil, err
	}
	return &ExpiryWatcher{
		logout:  logout,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		fired:   fired,
	}, nil
}

// Observe inspects the resolved identity and triggers the forced sign-out once.
// It reports whether a sign-out was triggered by this call.
func (w *ExpiryWatcher) Observe(ctx context.Context, identity Load[Identity]) bool {
	id, ok := identity.Value()
	if !ok || id.User == nil || id.Session == nil || !id.Session.ExpiredAt(w.now()) {
		return false
	}

	key := expiryKey{
		token:     id.Session.Token,
		userID:    id.User.ID,
		expiresAt: *id.Session.ExpiresAt,
	}

	w.mu.Lock()
	if w.fired.Contains(key) {
		w.mu.Unlock()
		return false
	}
	w.fired.Add(key, struct{}{})
	w.mu.Unlock()

	logger := w.logger.WithFields(logrus.Fields{
		"user_id":    id.User.ID,
		"expired_at": time.Unix(key.expiresAt, 0).UTC().Format(time.RFC3339),
	})

	// The request may already be finishing; the sign-out must still complete
	if err := w.logout(context.WithoutCancel(ctx), id.Session); err != nil {
		logger.WithError(err).Warn("Forced logout failed")
	} else {
		logger.Info("Forced logout of expired session")
	}
	w.metrics.RecordForcedLogout()
	return true
}
