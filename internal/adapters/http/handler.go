package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/templora/storefront/services/delivery/internal/application"
	"github.com/templora/storefront/services/delivery/internal/contracts"
	"github.com/templora/storefront/services/delivery/internal/domain"
)

type Handler struct {
	service     *application.Service
	adminToken  string
	readyChecks []func(context.Context) error
}

type HandlerOptions struct {
	AdminToken  string
	ReadyChecks []func(context.Context) error
}

func NewHandler(service *application.Service, opts HandlerOptions) *Handler {
	return &Handler{service: service, adminToken: opts.AdminToken, readyChecks: opts.ReadyChecks}
}

// download serves both entry points and both methods. GET reads the
// version from the query string, POST from the JSON body; everything
// after input extraction is the same core operation.
func (h *Handler) download(entry string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID := r.URL.Query().Get("version_id")
		if r.Method == http.MethodPost {
			var req contracts.DownloadRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil && strings.TrimSpace(req.VersionID) != "" {
				versionID = req.VersionID
			}
		}
		if strings.TrimSpace(versionID) == "" {
			writeDownloadError(w, http.StatusBadRequest, "version_id_required")
			return
		}

		token, ok := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if !ok {
			writeDownloadError(w, http.StatusUnauthorized, "missing_authorization")
			return
		}

		out, err := h.service.IssueDownloadURL(r.Context(), application.IssueInput{
			VersionID:   versionID,
			BearerToken: token,
			ClientIP:    clientIP(r),
			RequestID:   requestIDFromContext(r.Context()),
			Entry:       entry,
		})
		if err != nil {
			statusCode, code := mapDownloadError(err)
			if statusCode >= 500 {
				httpLogger().ErrorContext(r.Context(), "download issuance failed",
					"operation", "download",
					"outcome", "failure",
					"entry", entry,
					"status_code", statusCode,
					"error_code", code,
					"request_id", requestIDFromContext(r.Context()),
					"error", err.Error(),
				)
			}
			writeDownloadError(w, statusCode, code)
			return
		}
		writeJSON(w, http.StatusOK, contracts.DownloadSuccessResponse{URL: out.URL, ExpiresIn: out.ExpiresIn})
	}
}

func (h *Handler) listDownloadEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	rows, err := h.service.ListDownloadEvents(r.Context(), application.ListDownloadEventsInput{
		VersionID: r.URL.Query().Get("version_id"),
		ClientIP:  r.URL.Query().Get("client_ip"),
		Limit:     limit,
	})
	if err != nil {
		statusCode, code, msg := mapDomainError(err)
		writeError(w, statusCode, code, msg)
		return
	}
	out := make([]contracts.DownloadEventResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDownloadEventResponse(row))
	}
	writeSuccess(w, http.StatusOK, out)
}

// adminMiddleware gates audit routes behind the static operator token.
// When no token is configured the routes are not mounted at all.
func (h *Handler) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, check := range h.readyChecks {
		if err := check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", err.Error())
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}

func toDownloadEventResponse(row domain.DownloadEvent) contracts.DownloadEventResponse {
	return contracts.DownloadEventResponse{
		EventID:   row.EventID,
		VersionID: row.VersionID,
		Outcome:   row.Outcome,
		ClientIP:  row.ClientIP,
		RequestID: row.RequestID,
		Entry:     row.Entry,
		CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
	}
}
