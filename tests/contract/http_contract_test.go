package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/templora/storefront/services/delivery/internal/adapters/http"
	"github.com/templora/storefront/services/delivery/internal/adapters/memory"
	"github.com/templora/storefront/services/delivery/internal/application"
	"github.com/templora/storefront/services/delivery/internal/domain"
)

type fakeBackend struct {
	verdict    domain.EntitlementVerdict
	sourcePath string
	signFails  bool
	mints      int
}

func (b *fakeBackend) Check(_ context.Context, _, _ string) domain.EntitlementVerdict {
	return b.verdict
}

func (b *fakeBackend) Locate(_ context.Context, versionID string) (domain.VersionAsset, error) {
	if b.sourcePath == "" {
		return domain.VersionAsset{}, domain.ErrSourceNotFound
	}
	return domain.VersionAsset{VersionID: versionID, SourcePath: b.sourcePath}, nil
}

func (b *fakeBackend) Sign(_ context.Context, objectKey string, ttlSeconds int) (domain.SignedURL, error) {
	if b.signFails {
		return domain.SignedURL{}, fmt.Errorf("%w: status 400", domain.ErrSignedURLFailed)
	}
	b.mints++
	return domain.SignedURL{
		URL:       fmt.Sprintf("https://storage.example.com/object/sign/%s?token=tok-%d", objectKey, b.mints),
		ExpiresIn: ttlSeconds,
	}, nil
}

func newRouter(backend *fakeBackend, adminToken string) http.Handler {
	svc := application.NewService(application.Dependencies{
		Entitlements: backend,
		Assets:       backend,
		Signer:       backend,
		Audit:        memory.NewDownloadEventRepository(),
	})
	return httpadapter.NewRouter(httpadapter.NewHandler(svc, httpadapter.HandlerOptions{AdminToken: adminToken}))
}

func grantedBackend() *fakeBackend {
	return &fakeBackend{verdict: domain.Granted(), sourcePath: "templates/ver-1/archive.zip"}
}

func doJSON(t *testing.T, router http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return rr.Code, body
}

func TestDownloadErrorTable(t *testing.T) {
	cases := []struct {
		name       string
		backend    *fakeBackend
		target     string
		withAuth   bool
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing version id",
			backend:    grantedBackend(),
			target:     "/download",
			withAuth:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   "version_id_required",
		},
		{
			name:       "missing authorization",
			backend:    grantedBackend(),
			target:     "/download?version_id=ver-1",
			withAuth:   false,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "missing_authorization",
		},
		{
			name:       "entitlement denied",
			backend:    &fakeBackend{verdict: domain.Denied(), sourcePath: "templates/ver-1/archive.zip"},
			target:     "/download?version_id=ver-1",
			withAuth:   true,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "entitlement check error",
			backend:    &fakeBackend{verdict: domain.VerdictError("rpc_transport"), sourcePath: "templates/ver-1/archive.zip"},
			target:     "/download?version_id=ver-1",
			withAuth:   true,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "source not found",
			backend:    &fakeBackend{verdict: domain.Granted()},
			target:     "/download?version_id=ver-1",
			withAuth:   true,
			wantStatus: http.StatusNotFound,
			wantCode:   "source_not_found",
		},
		{
			name:       "sign failure",
			backend:    &fakeBackend{verdict: domain.Granted(), sourcePath: "templates/ver-1/archive.zip", signFails: true},
			target:     "/download?version_id=ver-1",
			withAuth:   true,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "signed_url_failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(tc.backend, "")
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.withAuth {
				req.Header.Set("Authorization", "Bearer caller-token")
			}
			status, body := doJSON(t, router, req)
			if status != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d body=%v", status, tc.wantStatus, body)
			}
			if len(body) != 1 || body["error"] != tc.wantCode {
				t.Fatalf("expected exactly {error: %q}, got %v", tc.wantCode, body)
			}
		})
	}
}

func TestMalformedBearerSchemeRejected(t *testing.T) {
	router := newRouter(grantedBackend(), "")
	req := httptest.NewRequest(http.MethodGet, "/download?version_id=ver-1", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	status, body := doJSON(t, router, req)
	if status != http.StatusUnauthorized || body["error"] != "missing_authorization" {
		t.Fatalf("unexpected response: status=%d body=%v", status, body)
	}
}

func TestDownloadSuccessShape(t *testing.T) {
	router := newRouter(grantedBackend(), "")
	req := httptest.NewRequest(http.MethodGet, "/download?version_id=ver-1", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	status, body := doJSON(t, router, req)
	if status != http.StatusOK {
		t.Fatalf("status: got=%d body=%v", status, body)
	}
	url, _ := body["url"].(string)
	if url == "" {
		t.Fatalf("expected non-empty url, got %v", body)
	}
	if body["expires_in"] != float64(120) {
		t.Fatalf("expected expires_in 120, got %v", body["expires_in"])
	}
	if len(body) != 2 {
		t.Fatalf("success body must carry exactly url and expires_in, got %v", body)
	}
}

func TestGetAndPostEntryPointsMatch(t *testing.T) {
	// Same backing state, same inputs: both methods and both routes must
	// produce identical status codes and shapes.
	routes := []string{"/download", "/functions/v1/download-source"}
	for _, route := range routes {
		backend := grantedBackend()
		router := newRouter(backend, "")

		getReq := httptest.NewRequest(http.MethodGet, route+"?version_id=ver-1", nil)
		getReq.Header.Set("Authorization", "Bearer caller-token")
		getStatus, getBody := doJSON(t, router, getReq)

		postReq := httptest.NewRequest(http.MethodPost, route, strings.NewReader(`{"version_id":"ver-1"}`))
		postReq.Header.Set("Authorization", "Bearer caller-token")
		postReq.Header.Set("Content-Type", "application/json")
		postStatus, postBody := doJSON(t, router, postReq)

		if getStatus != postStatus {
			t.Fatalf("route %s: status mismatch get=%d post=%d", route, getStatus, postStatus)
		}
		if getBody["expires_in"] != postBody["expires_in"] {
			t.Fatalf("route %s: expires_in mismatch get=%v post=%v", route, getBody, postBody)
		}
		// Fresh mints differ by design; shape, not value, must match.
		if (getBody["url"] == "") != (postBody["url"] == "") {
			t.Fatalf("route %s: url presence mismatch get=%v post=%v", route, getBody, postBody)
		}
	}
}

func TestPostMissingVersionInBody(t *testing.T) {
	router := newRouter(grantedBackend(), "")
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer caller-token")
	status, body := doJSON(t, router, req)
	if status != http.StatusBadRequest || body["error"] != "version_id_required" {
		t.Fatalf("unexpected response: status=%d body=%v", status, body)
	}
}

func TestRepeatedRequestsMintFreshURLs(t *testing.T) {
	backend := grantedBackend()
	router := newRouter(backend, "")
	issue := func() string {
		req := httptest.NewRequest(http.MethodGet, "/download?version_id=ver-1", nil)
		req.Header.Set("Authorization", "Bearer caller-token")
		_, body := doJSON(t, router, req)
		url, _ := body["url"].(string)
		return url
	}
	if first, second := issue(), issue(); first == "" || first == second {
		t.Fatalf("expected two distinct urls, got %q and %q", first, second)
	}
}

func TestAdminDownloadsRequiresToken(t *testing.T) {
	backend := grantedBackend()
	router := newRouter(backend, "ops-secret")

	issueReq := httptest.NewRequest(http.MethodGet, "/download?version_id=ver-1", nil)
	issueReq.Header.Set("Authorization", "Bearer caller-token")
	issueRR := httptest.NewRecorder()
	router.ServeHTTP(issueRR, issueReq)
	if issueRR.Code != http.StatusOK {
		t.Fatalf("seed issuance failed: %d %s", issueRR.Code, issueRR.Body.String())
	}

	denied := httptest.NewRequest(http.MethodGet, "/api/v1/admin/downloads", nil)
	denied.Header.Set("Authorization", "Bearer wrong")
	deniedRR := httptest.NewRecorder()
	router.ServeHTTP(deniedRR, denied)
	if deniedRR.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad admin token, got %d", deniedRR.Code)
	}

	allowed := httptest.NewRequest(http.MethodGet, "/api/v1/admin/downloads?version_id=ver-1", nil)
	allowed.Header.Set("Authorization", "Bearer ops-secret")
	allowedRR := httptest.NewRecorder()
	router.ServeHTTP(allowedRR, allowed)
	if allowedRR.Code != http.StatusOK {
		t.Fatalf("admin listing failed: %d %s", allowedRR.Code, allowedRR.Body.String())
	}
	var envelope struct {
		Status string `json:"status"`
		Data   []struct {
			VersionID string `json:"version_id"`
			Outcome   string `json:"outcome"`
		} `json:"data"`
	}
	if err := json.Unmarshal(allowedRR.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode admin envelope: %v", err)
	}
	if envelope.Status != "success" || len(envelope.Data) != 1 || envelope.Data[0].Outcome != "issued" {
		t.Fatalf("unexpected admin envelope: %+v", envelope)
	}
}

func TestAdminRoutesAbsentWithoutToken(t *testing.T) {
	router := newRouter(grantedBackend(), "")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/downloads", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected admin routes unmounted, got %d", rr.Code)
	}
}
