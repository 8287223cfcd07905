package domain

// CurationReport is returned by the idempotent bulk maintenance operations.
type CurationReport struct {
	Operation         string `json:"operation"`
	Touched           int    `json:"touched"`
	AlreadyConsistent int    `json:"already_consistent"`
	Skipped           int    `json:"skipped"`
}
