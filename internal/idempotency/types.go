package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// DefaultTTL is how long a client key keeps replaying the order it created.
const DefaultTTL = 48 * time.Hour

// MaxKeyLength bounds the Idempotency-Key header.
const MaxKeyLength = 128

// Record is the JSON value stored at idem:<userId>:<key>.
type Record struct {
	Status    string    `json:"status"`
	OrderKey  string    `json:"orderKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
