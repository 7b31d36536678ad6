package ports

import (
	"context"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

// EntitlementChecker asks the database-side permission oracle whether
// the caller behind bearerToken may download versionID. Implementations
// must normalize every transport or parse failure into a non-granted
// verdict; they never return an error.
type EntitlementChecker interface {
	Check(ctx context.Context, versionID, bearerToken string) domain.EntitlementVerdict
}

// AssetLocator resolves a version identifier to its storage object key.
// A missing row or empty source path yields domain.ErrSourceNotFound;
// transport failures are returned as-is so the endpoint can surface
// them separately from not-found.
type AssetLocator interface {
	Locate(ctx context.Context, versionID string) (domain.VersionAsset, error)
}

// URLSigner mints a time-boxed pre-signed URL for an object key using
// the elevated service credential. Failures wrap
// domain.ErrSignedURLFailed.
type URLSigner interface {
	Sign(ctx context.Context, objectKey string, ttlSeconds int) (domain.SignedURL, error)
}
