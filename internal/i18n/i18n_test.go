package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		key    string
		params map[string]any
		want   string
	}{
		{
			name:   "known key",
			locale: "en",
			key:    "errors.auth.invalidCredentials",
			want:   "Invalid email or password",
		},
		{
			name:   "interpolation",
			locale: "en",
			key:    "errors.auth.tooManyAttempts",
			params: map[string]any{"minutes": 12},
			want:   "Too many attempts. Please try again in 12 minutes",
		},
		{
			name:   "unknown locale falls back to english",
			locale: "xx",
			key:    "errors.auth.invalidCredentials",
			want:   "Invalid email or password",
		},
		{
			name:   "unknown key falls back to the key",
			locale: "en",
			key:    "errors.auth.noSuchKey",
			want:   "errors.auth.noSuchKey",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, T(tc.locale, tc.key, tc.params))
		})
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", "en"},
		{"simple tag", "en", "en"},
		{"region variant", "en-GB,en;q=0.9", "en"},
		{"unsupported language", "fr-FR,fr;q=0.9", "en"},
		{"unsupported then supported", "fr,en;q=0.8", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			assert.Equal(t, tc.want, FromRequest(req))
		})
	}
}
