package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/services"
	"github.com/lendkraft/bfsi-assistant/services/providers"
	"github.com/lendkraft/bfsi-assistant/utils"
)

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "validation error",
			err:  &utils.ValidationError{Message: "validation failed", Fields: map[string]string{"Query": "Query is required"}},
			code: http.StatusBadRequest,
		},
		{
			name: "retryable provider error",
			err:  providers.NewProviderError("openai", "rate_limited", "429 from upstream", http.StatusTooManyRequests, true, nil),
			code: http.StatusServiceUnavailable,
		},
		{
			name: "permanent provider error",
			err:  providers.NewProviderError("openai", "bad_request", "model not found", http.StatusBadRequest, false, nil),
			code: http.StatusBadGateway,
		},
		{
			name: "not found",
			err:  services.ErrCategoryNotFound,
			code: http.StatusNotFound,
		},
		{
			name: "domain validation",
			err:  services.NewDomainError(services.ErrorTypeValidation, "bad input", nil),
			code: http.StatusBadRequest,
		},
		{
			name: "rate limit",
			err:  services.NewDomainError(services.ErrorTypeRateLimit, "slow down", nil),
			code: http.StatusTooManyRequests,
		},
		{
			name: "unavailable",
			err:  services.ErrCorpusNotLoaded,
			code: http.StatusServiceUnavailable,
		},
		{
			name: "external",
			err:  services.ErrProviderFailure,
			code: http.StatusBadGateway,
		},
		{
			name: "wrapped domain error",
			err:  fmt.Errorf("handling request: %w", services.ErrCategoryNotFound),
			code: http.StatusNotFound,
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tt.err, zap.NewNop())
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleServiceErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, nil, zap.NewNop())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
