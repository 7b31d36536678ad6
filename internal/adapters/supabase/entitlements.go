package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

// EntitlementClient calls the user_has_access_to_version RPC. The
// caller's bearer token is forwarded byte-for-byte so identity
// resolution happens entirely on the oracle side; this client never
// decodes or validates it.
type EntitlementClient struct {
	client *Client
}

func NewEntitlementClient(client *Client) *EntitlementClient {
	return &EntitlementClient{client: client}
}

// Check never returns an error: every transport or parse failure
// degrades to a non-granted verdict so nothing upstream can misread a
// failure as access.
func (c *EntitlementClient) Check(ctx context.Context, versionID, bearerToken string) domain.EntitlementVerdict {
	body, err := json.Marshal(map[string]string{"p_version_id": versionID})
	if err != nil {
		return domain.VerdictError("encode_request")
	}

	url := c.client.restBase + "/rpc/user_has_access_to_version"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.VerdictError("build_request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.client.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		c.logFailure(ctx, "rpc_transport", err)
		return domain.VerdictError("rpc_transport")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		c.logFailure(ctx, "rpc_read", err)
		return domain.VerdictError("rpc_read")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logFailure(ctx, "rpc_status", fmt.Errorf("status %d", resp.StatusCode))
		return domain.VerdictError(fmt.Sprintf("rpc_status_%d", resp.StatusCode))
	}
	return parseVerdict(raw)
}

// parseVerdict normalizes the REST-over-Postgres response. The RPC may
// answer with a bare boolean or an array-wrapped one; the first element
// is the verdict. Any other shape reads as "no access".
func parseVerdict(raw []byte) domain.EntitlementVerdict {
	var scalar bool
	if err := json.Unmarshal(raw, &scalar); err == nil {
		if scalar {
			return domain.Granted()
		}
		return domain.Denied()
	}

	var wrapped []json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped) == 0 {
		return domain.VerdictError("rpc_shape")
	}
	var first bool
	if err := json.Unmarshal(wrapped[0], &first); err != nil {
		return domain.VerdictError("rpc_shape")
	}
	if first {
		return domain.Granted()
	}
	return domain.Denied()
}

func (c *EntitlementClient) logFailure(ctx context.Context, reason string, err error) {
	slog.Default().WarnContext(ctx, "entitlement check failed closed",
		"module", "supabase",
		"layer", "adapter",
		"operation", "entitlement_check",
		"outcome", "failure",
		"reason", reason,
		"error", err.Error(),
	)
}
