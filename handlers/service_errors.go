package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/services"
	"github.com/lendkraft/bfsi-assistant/services/providers"
	"github.com/lendkraft/bfsi-assistant/utils"
)

// HandleServiceError maps service-layer errors to HTTP responses.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var vErr *utils.ValidationError
	if errors.As(err, &vErr) {
		writeOrLog(utils.WriteBadRequest(w, vErr.Error(), vErr.Details()), logger)
		return
	}

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		if provErr.Retryable {
			writeOrLog(utils.WriteServiceUnavailable(w, "Provider temporarily unavailable"), logger)
		} else {
			writeOrLog(utils.WriteBadGateway(w, "Provider request failed"), logger)
		}
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		writeOrLog(utils.WriteNotFound(w, err.Error()), logger)

	case services.IsValidationError(err):
		writeOrLog(utils.WriteBadRequest(w, err.Error(), details), logger)

	case services.IsRateLimitError(err):
		writeOrLog(utils.WriteTooManyRequests(w, err.Error(), details), logger)

	case services.IsUnavailableError(err):
		writeOrLog(utils.WriteServiceUnavailable(w, err.Error()), logger)

	case services.IsExternalError(err):
		writeOrLog(utils.WriteBadGateway(w, err.Error()), logger)

	default:
		logger.Error("unhandled service error", zap.Error(err))
		writeOrLog(utils.WriteInternalServerError(w, ""), logger)
	}
}

func writeOrLog(err error, logger *zap.Logger) {
	if err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
