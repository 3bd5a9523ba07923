package api

import (
	"time"

	"github.com/zombor/billed/internal/bill"
)

// Record is a bill as persisted by the backend, with the receipt file it
// was created from
type Record struct {
	bill.Bill
	ContentType string    `json:"contentType"`
	StoredName  string    `json:"storedName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
