package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

// AssetClient resolves a version row to its storage object key. It
// authenticates with the read-scoped anon key only; the service-role
// key never touches this path.
type AssetClient struct {
	client *Client
}

func NewAssetClient(client *Client) *AssetClient {
	return &AssetClient{client: client}
}

func (c *AssetClient) Locate(ctx context.Context, versionID string) (domain.VersionAsset, error) {
	endpoint := fmt.Sprintf("%s/template_versions?id=eq.%s&select=source_path",
		c.client.restBase, url.QueryEscape(versionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.VersionAsset{}, fmt.Errorf("build asset lookup: %w", err)
	}
	req.Header.Set("apikey", c.client.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.client.anonKey)

	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		return domain.VersionAsset{}, fmt.Errorf("asset lookup: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return domain.VersionAsset{}, fmt.Errorf("read asset lookup: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.VersionAsset{}, domain.ErrSourceNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.VersionAsset{}, fmt.Errorf("asset lookup status %d", resp.StatusCode)
	}

	var rows []struct {
		SourcePath *string `json:"source_path"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return domain.VersionAsset{}, fmt.Errorf("decode asset lookup: %w", err)
	}
	if len(rows) == 0 || rows[0].SourcePath == nil || strings.TrimSpace(*rows[0].SourcePath) == "" {
		return domain.VersionAsset{}, domain.ErrSourceNotFound
	}
	return domain.VersionAsset{VersionID: versionID, SourcePath: strings.TrimSpace(*rows[0].SourcePath)}, nil
}
