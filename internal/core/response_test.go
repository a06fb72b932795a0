// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOKWritesSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abc", body["data"].(map[string]any)["id"])
}

func TestBadRequestWritesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "intensity must be at most 10")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "intensity must be at most 10", body["message"])
	assert.Equal(t, "BAD_REQUEST", body["code"])
}

func TestJSONErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "internal server error", body["message"])
}

func TestJSONErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, DuplicateError("name"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "name already exists", body["message"])
	assert.Equal(t, "DUPLICATE", body["code"])
}

func TestPaginatedComputesTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 10, 21)

	body := decodeResponse(t, rec)
	p := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, p["page"])
	assert.EqualValues(t, 10, p["page_size"])
	assert.EqualValues(t, 21, p["total"])
	assert.EqualValues(t, 3, p["total_pages"])
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("create: %w", ErrDuplicateKey), http.StatusConflict, "DUPLICATE"},
		{fmt.Errorf("book: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest, "BAD_REQUEST"},
		{ConflictError("slot already booked"), http.StatusConflict, "CONFLICT"},
		{
			fmt.Errorf("create set: %w", &pgconn.PgError{Code: "22P02"}),
			http.StatusBadRequest, "BAD_REQUEST",
		},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		HandleError(rec, tc.err, "exercise")

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.code, decodeResponse(t, rec)["code"])
	}
}
