package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie", "from-cookie", "", "from-cookie"},
		{"cookie wins over header", "from-cookie", "Bearer from-header", "from-cookie"},
		{"bearer header", "", "Bearer from-header", "from-header"},
		{"lowercase scheme", "", "bearer abc", "abc"},
		{"other scheme", "", "Basic dXNlcjpwYXNz", ""},
		{"malformed header", "", "Bearer", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "hrportal_session", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, SessionToken(r, "hrportal_session"))
		})
	}
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsJSON(r))

	r.Header.Set("Accept", "application/json, text/plain")
	assert.True(t, WantsJSON(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
	assert.True(t, WantsJSON(r))
}

func TestCookieValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, CookieValue(r, "hrportal_client"))

	r.AddCookie(&http.Cookie{Name: "hrportal_client", Value: "c1"})
	assert.Equal(t, "c1", CookieValue(r, "hrportal_client"))
}
