package domain

import "time"

// VersionAsset is the storage-side view of a template version: the
// immutable archive object backing one released version of a template.
// The catalog subsystem owns the row; this service only reads it.
type VersionAsset struct {
	VersionID  string `json:"version_id"`
	SourcePath string `json:"source_path"`
}

// SignedURL is an ephemeral pre-authorized download link. It is never
// persisted; each issuance mints a fresh one.
type SignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// EntitlementVerdict is the normalized outcome of the remote access
// check. The raw RPC shape (an array-wrapped boolean) is collapsed into
// this tagged value at the client boundary so nothing downstream has to
// reason about transport artifacts.
type EntitlementVerdict struct {
	granted bool
	reason  string
}

func Granted() EntitlementVerdict { return EntitlementVerdict{granted: true} }

func Denied() EntitlementVerdict { return EntitlementVerdict{reason: "denied"} }

// VerdictError records a failed check. It still reads as "no access":
// the check fails closed, never open.
func VerdictError(reason string) EntitlementVerdict {
	if reason == "" {
		reason = "error"
	}
	return EntitlementVerdict{reason: reason}
}

func (v EntitlementVerdict) Granted() bool { return v.granted }

// Reason is empty for granted verdicts and a short diagnostic token
// otherwise. It is logged server-side, never returned to callers.
func (v EntitlementVerdict) Reason() string { return v.reason }

// DownloadEvent is one audit row per issuance attempt, granted or not.
type DownloadEvent struct {
	EventID   string    `json:"event_id"`
	VersionID string    `json:"version_id"`
	Outcome   string    `json:"outcome"`
	ClientIP  string    `json:"client_ip"`
	RequestID string    `json:"request_id"`
	Entry     string    `json:"entry"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit outcome values.
const (
	OutcomeIssued      = "issued"
	OutcomeForbidden   = "forbidden"
	OutcomeNotFound    = "source_not_found"
	OutcomeSignFailed  = "signed_url_failed"
	OutcomeRateLimited = "rate_limited"
)
