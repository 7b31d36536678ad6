package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

// SignerClient mints pre-signed object URLs with the service-role key.
type SignerClient struct {
	client *Client
	bucket string
}

func NewSignerClient(client *Client, bucket string) *SignerClient {
	return &SignerClient{client: client, bucket: bucket}
}

// signResponse tolerates both field spellings seen across storage API
// versions; normalization stays inside this adapter.
type signResponse struct {
	SignedURL      string `json:"signedURL"`
	SignedURLSnake string `json:"signed_url"`
}

func (r signResponse) url() string {
	if r.SignedURL != "" {
		return r.SignedURL
	}
	return r.SignedURLSnake
}

func (c *SignerClient) Sign(ctx context.Context, objectKey string, ttlSeconds int) (domain.SignedURL, error) {
	key := strings.TrimLeft(strings.TrimSpace(objectKey), "/")
	if key == "" {
		return domain.SignedURL{}, fmt.Errorf("%w: empty object key", domain.ErrSignedURLFailed)
	}
	endpoint := fmt.Sprintf("%s/object/sign/%s/%s?expiry=%d", c.client.storageBase, c.bucket, key, ttlSeconds)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return domain.SignedURL{}, fmt.Errorf("%w: build request: %v", domain.ErrSignedURLFailed, err)
	}
	req.Header.Set("apikey", c.client.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.client.serviceKey)

	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		return domain.SignedURL{}, fmt.Errorf("%w: %v", domain.ErrSignedURLFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return domain.SignedURL{}, fmt.Errorf("%w: read response: %v", domain.ErrSignedURLFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.SignedURL{}, fmt.Errorf("%w: status %d", domain.ErrSignedURLFailed, resp.StatusCode)
	}

	var body signResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.SignedURL{}, fmt.Errorf("%w: decode response: %v", domain.ErrSignedURLFailed, err)
	}
	signed := body.url()
	if signed == "" {
		return domain.SignedURL{}, fmt.Errorf("%w: empty signed url", domain.ErrSignedURLFailed)
	}
	// The store returns a path relative to the storage API root.
	if strings.HasPrefix(signed, "/") {
		signed = c.client.storageBase + signed
	}
	return domain.SignedURL{URL: signed, ExpiresIn: ttlSeconds}, nil
}
