package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/templora/storefront/services/delivery/internal/contracts"
	"github.com/templora/storefront/services/delivery/internal/domain"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, contracts.SuccessResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, contracts.ErrorResponse{Status: "error", Code: code, Message: message})
}

// writeDownloadError emits the download endpoint's flat error shape.
// HTTP status is authoritative; the code is a stable token.
func writeDownloadError(w http.ResponseWriter, statusCode int, code string) {
	writeJSON(w, statusCode, contracts.DownloadErrorResponse{Error: code})
}

// mapDownloadError translates pipeline sentinels into the endpoint's
// status/code table. Anything unrecognized is an opaque internal error;
// details stay in server logs.
func mapDownloadError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrVersionIDRequired):
		return http.StatusBadRequest, "version_id_required"
	case errors.Is(err, domain.ErrMissingAuthorization):
		return http.StatusUnauthorized, "missing_authorization"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrSourceNotFound):
		return http.StatusNotFound, "source_not_found"
	case errors.Is(err, domain.ErrSignedURLFailed):
		return http.StatusInternalServerError, "signed_url_failed"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
