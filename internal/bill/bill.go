package bill

import (
	"slices"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status represents the review state of a bill
type Status string

const (
	// StatusPending is the state every bill is created with
	StatusPending Status = "pending"

	// StatusAccepted means an admin approved the bill
	StatusAccepted Status = "accepted"

	// StatusRefused means an admin refused the bill
	StatusRefused Status = "refused"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRefused
}

// Types is the fixed list of expense categories offered by the creation form
var Types = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

// IsValidType reports whether t is one of Types
func IsValidType(t string) bool {
	return slices.Contains(Types, t)
}

// Bill represents one expense report submitted by an employee
type Bill struct {
	ID         string              `json:"id,omitempty"`
	Email      string              `json:"email"`
	Type       string              `json:"type"`
	Name       string              `json:"name"`
	Date       string              `json:"date"` // ISO 8601 (YYYY-MM-DD)
	Amount     decimal.NullDecimal `json:"amount"`
	VAT        string              `json:"vat"`
	Pct        *int                `json:"pct"`
	Commentary string              `json:"commentary"`
	FileURL    string              `json:"fileUrl"`
	FileName   string              `json:"fileName"`
	Status     Status              `json:"status"`
}

// HasReceipt reports whether the receipt upload finished for this bill
func (b Bill) HasReceipt() bool {
	return b.FileURL != "" && b.FileName != ""
}
