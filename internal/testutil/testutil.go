// AngelaMos | 2026
// testutil.go

// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
)

const (
	UserHeader = "X-Test-User"
	RoleHeader = "X-Test-Role"
)

// HeaderAuth stands in for the JWT authenticator. It trusts the test
// headers and rejects requests without them.
func HeaderAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(UserHeader)
		if id == "" {
			core.Unauthorized(w, "")
			return
		}

		role := r.Header.Get(RoleHeader)
		if role == "" {
			role = middleware.RoleClient
		}

		ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
			UserID:    id,
			Role:      role,
			TokenID:   "test-jti",
			ExpiresAt: time.Now().Add(time.Hour),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Envelope mirrors the JSON response body.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Pagination *struct {
		Page       int `json:"page"`
		PageSize   int `json:"page_size"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// Do sends a request through h as the given user. An empty userID sends it
// anonymously.
func Do(
	t *testing.T,
	h http.Handler,
	method, path string,
	body any,
	userID, role string,
) *httptest.ResponseRecorder {
	t.Helper()
	return Serve(h, NewRequest(t, method, path, body, userID, role))
}

// NewRequest builds the request Do would send so callers can add headers.
// A string body is sent verbatim, anything else is JSON encoded.
func NewRequest(
	t *testing.T,
	method, path string,
	body any,
	userID, role string,
) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserHeader, userID)
		req.Header.Set(RoleHeader, role)
	}
	return req
}

func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// DecodeData unmarshals the data field of the envelope into dst.
func DecodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	env := Decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
	return env
}

// Redis connects to TEST_REDIS_URL and skips the test when it is unset.
// Tests must namespace their keys since the database is shared.
func Redis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, rdb.Ping(t.Context()).Err())
	return rdb
}
