package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVerifier is a mock implementation of the auth.Verifier interface
type mockVerifier struct {
	token jwt.Token
	error error
}

func (m *mockVerifier) Verify(_ context.Context, _ string) (jwt.Token, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.token, nil
}

func tokenWithRole(t *testing.T, role string) jwt.Token {
	t.Helper()
	token := jwt.New()
	require.NoError(t, token.Set("role", role))
	return token
}

func Test_RequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	testCases := []struct {
		name         string
		verifier     *mockVerifier
		authHeader   string
		expectedCode int
	}{
		{
			name:         "Success - ADMIN role",
			verifier:     &mockVerifier{token: tokenWithRole(t, "ADMIN")},
			authHeader:   "Bearer token",
			expectedCode: http.StatusOK,
		},
		{
			name:         "Error - missing header",
			verifier:     &mockVerifier{},
			authHeader:   "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Error - malformed header",
			verifier:     &mockVerifier{},
			authHeader:   "token-without-scheme",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Error - wrong scheme",
			verifier:     &mockVerifier{},
			authHeader:   "Basic dXNlcjpwYXNz",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Error - verification fails",
			verifier:     &mockVerifier{error: errors.New("token expired")},
			authHeader:   "Bearer token",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Error - non-admin role",
			verifier:     &mockVerifier{token: tokenWithRole(t, "USER")},
			authHeader:   "Bearer token",
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "Error - token without role claim",
			verifier:     &mockVerifier{token: jwt.New()},
			authHeader:   "Bearer token",
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireAdmin(tc.verifier, logger)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			// when
			handler.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.Equal(t, tc.expectedCode == http.StatusOK, nextCalled, "next handler invocation should match")
		})
	}
}

func Test_AllowAll(t *testing.T) {
	// given
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := AllowAll()(next)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	rr := httptest.NewRecorder()
	// when
	handler.ServeHTTP(rr, req)
	// then
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
