// AngelaMos | 2026
// handler_test.go

package auth

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/testutil"
)

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(r, middleware.Authenticator(f.svc), passthrough)
	return r
}

func bearer(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	req := testutil.NewRequest(t, method, path, body, "", "")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHandlerRegisterThenDuplicate(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	body := RegisterRequest{Email: "sam@coach.io", Password: "long-enough-pw", Name: "Sam"}

	rec := testutil.Do(t, r, http.MethodPost, "/auth/register", body, "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got AuthResponse
	testutil.DecodeData(t, rec, &got)
	assert.Equal(t, "client", got.User.Role)
	assert.NotEmpty(t, got.Tokens.RefreshToken)

	rec = testutil.Do(t, r, http.MethodPost, "/auth/register", body, "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE", testutil.Decode(t, rec).Code)
}

func TestHandlerLoginRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)
	f.register(t)

	rec := testutil.Do(t, r, http.MethodPost, "/auth/login",
		LoginRequest{Email: "not-an-email", Password: "whatever-long"}, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, r, http.MethodPost, "/auth/login",
		LoginRequest{Email: "jordan@example.com", Password: "wrong-password"}, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRefreshReuseSignsOutFamily(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)
	reg := f.register(t)

	body := RefreshRequest{RefreshToken: reg.Tokens.RefreshToken}

	rec := testutil.Do(t, r, http.MethodPost, "/auth/refresh", body, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, r, http.MethodPost, "/auth/refresh", body, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_REUSE_DETECTED", testutil.Decode(t, rec).Code)
}

func TestHandlerDevices(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)
	reg := f.register(t)

	rec := testutil.Serve(r, bearer(t, http.MethodGet, "/auth/devices", nil, reg.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var got DevicesResponse
	testutil.DecodeData(t, rec, &got)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, "test-agent", got.Devices[0].UserAgent)

	rec = testutil.Serve(r, bearer(t, http.MethodDelete, "/auth/devices/nope", nil, reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Serve(r, bearer(t, http.MethodDelete, "/auth/devices/"+uuid.NewString(), nil, reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Serve(r, bearer(t, http.MethodDelete, "/auth/devices/"+got.Devices[0].ID, nil, reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = testutil.Do(t, r, http.MethodGet, "/auth/devices", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
