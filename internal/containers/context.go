package containers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/store"
)

// DefaultUpdateTimeout bounds the background save started on submit
const DefaultUpdateTimeout = 30 * time.Second

var (
	ErrNoStore            = errors.New("no store configured")
	ErrNoModal            = errors.New("receipt modal not rendered")
	ErrNoFile             = errors.New("no file selected")
	ErrInvalidFile        = errors.New("receipt must be a jpg, jpeg or png file")
	ErrMissingField       = errors.New("required field is empty")
	ErrInvalidType        = errors.New("unknown expense type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidPct         = errors.New("invalid VAT percentage")
	ErrReceiptNotUploaded = errors.New("receipt upload not finished")
)

// NavigateFunc renders the view of a logical path
type NavigateFunc func(ctx context.Context, path string)

// UpdateErrorFunc observes a bill save that failed after navigation
type UpdateErrorFunc func(b bill.Bill, err error)

// Context holds what a controller is constructed with
type Context struct {
	Document *dom.Document
	Navigate NavigateFunc
	Store    store.Store
	Storage  session.Storage

	// UpdateTimeout bounds the background save; DefaultUpdateTimeout if zero
	UpdateTimeout time.Duration
	// OnUpdateError is called when the background save fails
	OnUpdateError UpdateErrorFunc
	// Pending tracks background saves across controllers; each controller
	// tracks its own when nil
	Pending *sync.WaitGroup
}

func (c Context) navigate(ctx context.Context, path string) {
	if c.Navigate != nil {
		c.Navigate(ctx, path)
	}
}
