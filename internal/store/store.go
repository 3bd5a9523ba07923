package store

import (
	"context"

	"github.com/zombor/billed/internal/bill"
)

// Store is the remote persistence the controllers depend on
type Store interface {
	// Bills returns the bill endpoints
	Bills() Bills
}

// Bills defines the remote operations on bills
type Bills interface {
	// List returns every bill visible to the current session
	List(ctx context.Context) ([]bill.Bill, error)

	// Create uploads a receipt and returns where it was stored along with
	// the provisional bill id
	Create(ctx context.Context, upload Upload) (*Receipt, error)

	// Update persists a fully assembled bill
	Update(ctx context.Context, b bill.Bill) (*bill.Bill, error)
}

// Upload is a receipt file sent with the owner's email
type Upload struct {
	Email       string
	FileName    string
	ContentType string
	Data        []byte
}

// Receipt is the stored location of an uploaded receipt
type Receipt struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}
