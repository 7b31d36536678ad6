package supabase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

func TestLocateWireFormat(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"source_path":"templates/ver-1/archive.zip"}]`))
	})

	asset, err := NewAssetClient(client).Locate(context.Background(), "ver-1")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if asset.SourcePath != "templates/ver-1/archive.zip" {
		t.Fatalf("unexpected source path %q", asset.SourcePath)
	}
	if gotPath != "/rest/v1/template_versions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "id=eq.ver-1&select=source_path" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	// Metadata reads authenticate with the read-scoped key, never the
	// caller token or the service key.
	if gotAuth != "Bearer anon-key" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
}

func TestLocateNotFoundShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty result set", `[]`},
		{"null source path", `[{"source_path":null}]`},
		{"empty source path", `[{"source_path":"  "}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := NewAssetClient(client).Locate(context.Background(), "ver-1")
			if !errors.Is(err, domain.ErrSourceNotFound) {
				t.Fatalf("expected source not found, got %v", err)
			}
		})
	}
}

func TestLocateUpstreamFailureIsNotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := NewAssetClient(client).Locate(context.Background(), "ver-1")
	if err == nil || errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("upstream failure must surface as its own error, got %v", err)
	}
}

func TestLocateEscapesVersionID(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	_, _ = NewAssetClient(client).Locate(context.Background(), "ver 1&x=y")
	if gotQuery != "id=eq.ver+1%26x%3Dy&select=source_path" {
		t.Fatalf("version id must be query-escaped, got %q", gotQuery)
	}
}
