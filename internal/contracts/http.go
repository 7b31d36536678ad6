package contracts

// DownloadSuccessResponse is the exact success wire shape of the
// download endpoint. It deliberately bypasses the service's usual
// status/data envelope: clients consume these two fields directly.
type DownloadSuccessResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// DownloadErrorResponse carries one stable machine-readable code.
// The code is a token for client-side mapping, not a human sentence.
type DownloadErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DownloadRequest struct {
	VersionID string `json:"version_id"`
}

type DownloadEventResponse struct {
	EventID   string `json:"event_id"`
	VersionID string `json:"version_id"`
	Outcome   string `json:"outcome"`
	ClientIP  string `json:"client_ip"`
	RequestID string `json:"request_id"`
	Entry     string `json:"entry"`
	CreatedAt string `json:"created_at"`
}
