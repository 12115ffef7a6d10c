package domain

import "time"

// AuditFields holds standard audit information for domain entities. The actor
// IDs are opaque values threaded in from the caller and never interpreted here.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}
