// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/core"
)

type fakeVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (f fakeVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return f.claims, f.err
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "%s|%s", GetUserID(r.Context()), GetUserRole(r.Context()))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["code"].(string)
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	h := Authenticator(fakeVerifier{})(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestAuthenticatorMapsExpiredToken(t *testing.T) {
	v := fakeVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenExpired)}
	h := Authenticator(v)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestAuthenticatorStoresClaims(t *testing.T) {
	v := fakeVerifier{claims: &AccessTokenClaims{UserID: "u-1", Role: RoleTrainer}}
	h := Authenticator(v)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1|trainer", rec.Body.String())
}

func TestRequireTrainer(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{RoleClient, http.StatusForbidden},
		{RoleTrainer, http.StatusOK},
		{RoleAdmin, http.StatusOK},
		{"", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run("role="+tc.role, func(t *testing.T) {
			h := RequireTrainer(http.HandlerFunc(echoUser))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{
					UserID: "u", Role: tc.role,
				}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer  tok ")
	assert.Equal(t, "tok", ExtractToken(req))
}
