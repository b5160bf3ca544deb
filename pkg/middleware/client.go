package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/platinummonkey/hrportal/pkg/httputil"
)

// DefaultClientCookie names the browser client cookie
const DefaultClientCookie = "hrportal_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

// Client key prefixes
const (
	clientKeyPrefix = "client:"
	tokenKeyPrefix  = "token:"
	ipKeyPrefix     = "ip:"
)

// ClientID ensures every browser carries a client id cookie. Only an id the request
// presented is stored in the context; a freshly issued one identifies the client from
// its next request on.
func ClientID(cookieName string, secure bool) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultClientCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := httputil.CookieValue(r, cookieName)
			if _, err := uuid.Parse(clientID); err != nil {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    uuid.NewString(),
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge / time.Second),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				next.ServeHTTP(w, r)
				return
			}
			ctx := contextkeys.WithClientID(r.Context(), clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientKey identifies the caller for resolvers and rate limits: the presented client id,
// else a digest of the session token, else the caller IP
func ClientKey(r *http.Request, token string) string {
	if clientID := contextkeys.GetClientID(r.Context()); clientID != "" {
		return clientKeyPrefix + clientID
	}
	if token != "" {
		sum := sha256.Sum256([]byte(token))
		return tokenKeyPrefix + hex.EncodeToString(sum[:16])
	}
	return ipKeyPrefix + clientIP(r)
}
