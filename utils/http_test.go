package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteOK(rec, map[string]string{"hello": "world"})
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"hello": "world"}, body.Data)
}

func TestWriteJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, 204, nil)
	require.NoError(t, err)
	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWriteBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteBadRequest(rec, "invalid payload", map[string]interface{}{"query": "Query is required"})
	require.NoError(t, err)

	assert.Equal(t, 400, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad_request", body.Error)
	assert.Equal(t, "invalid payload", body.Message)
	assert.Equal(t, "Query is required", body.Details["query"])
}

func TestWriteErrorDefaults(t *testing.T) {
	tests := []struct {
		name     string
		write    func(rec *httptest.ResponseRecorder) error
		code     int
		errorTag string
	}{
		{
			name:     "not found",
			write:    func(rec *httptest.ResponseRecorder) error { return WriteNotFound(rec, "") },
			code:     404,
			errorTag: "not_found",
		},
		{
			name:     "too many requests",
			write:    func(rec *httptest.ResponseRecorder) error { return WriteTooManyRequests(rec, "", nil) },
			code:     429,
			errorTag: "rate_limit_exceeded",
		},
		{
			name:     "bad gateway",
			write:    func(rec *httptest.ResponseRecorder) error { return WriteBadGateway(rec, "") },
			code:     502,
			errorTag: "upstream_error",
		},
		{
			name:     "service unavailable",
			write:    func(rec *httptest.ResponseRecorder) error { return WriteServiceUnavailable(rec, "") },
			code:     503,
			errorTag: "service_unavailable",
		},
		{
			name:     "internal",
			write:    func(rec *httptest.ResponseRecorder) error { return WriteInternalServerError(rec, "") },
			code:     500,
			errorTag: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, tt.write(rec))
			assert.Equal(t, tt.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.errorTag, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}
