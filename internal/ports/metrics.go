package ports

// Metrics records issuance outcomes for operational dashboards.
type Metrics interface {
	IncURLIssued()
	IncDenied(reason string)
}
