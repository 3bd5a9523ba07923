package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billed/internal/bill"
)

var (
	// ErrMissingEmail is returned when a receipt is uploaded without owner
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalidFile is returned for receipts that are not jpg, jpeg or png
	ErrInvalidFile = errors.New("receipt must be a jpg, jpeg or png file")

	// ErrInvalidBill is returned when an update carries invalid fields
	ErrInvalidBill = errors.New("invalid bill")
)

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill operations
type Service struct {
	db          DB
	storage     Storage
	publicURL   string
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// publicURL is the address receipts are served from, e.g. http://localhost:5678.
func NewService(db DB, storage Storage, publicURL string) *Service {
	return NewServiceWithDeps(db, storage, publicURL, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, publicURL string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		publicURL:   strings.TrimRight(publicURL, "/"),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

func receiptExt(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return ext, true
	default:
		return "", false
	}
}

// FileURL returns the public address of a stored receipt
func (s *Service) FileURL(storedName string) string {
	return s.publicURL + "/files/" + storedName
}

// CreateBill stores a receipt and creates the pending bill it belongs to
func (s *Service) CreateBill(email, filename, contentType string, data []byte) (*Record, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingEmail
	}
	ext, ok := receiptExt(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, filename)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	storedName, err := s.storage.Save(id+ext, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	record := &Record{
		Bill: bill.Bill{
			ID:       id,
			Email:    email,
			FileURL:  s.FileURL(storedName),
			FileName: filepath.Base(filename),
			Status:   bill.StatusPending,
		},
		ContentType: contentType,
		StoredName:  storedName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveBill(record); err != nil {
		// Clean up file if database save fails
		if delErr := s.storage.Delete(storedName); delErr != nil {
			slog.Warn("Failed to delete file", "filename", storedName, "error", delErr)
		}
		return nil, fmt.Errorf("saving bill to database: %w", err)
	}

	return record, nil
}

// UpdateBill merges the fields set in patch into the bill with the given id.
// The owner and the receipt of a bill never change.
func (s *Service) UpdateBill(id string, patch bill.Bill) (*Record, error) {
	record, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if patch.Type != "" {
		if !bill.IsValidType(patch.Type) {
			return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidBill, patch.Type)
		}
		record.Type = patch.Type
	}
	if patch.Date != "" {
		if _, err := bill.ParseDate(patch.Date); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBill, err)
		}
		record.Date = patch.Date
	}
	if patch.Status != "" {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidBill, patch.Status)
		}
		record.Status = patch.Status
	}
	if patch.Name != "" {
		record.Name = patch.Name
	}
	if patch.Amount.Valid {
		record.Amount = patch.Amount
	}
	if patch.VAT != "" {
		record.VAT = patch.VAT
	}
	if patch.Pct != nil {
		record.Pct = patch.Pct
	}
	if patch.Commentary != "" {
		record.Commentary = patch.Commentary
	}
	record.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveBill(record); err != nil {
		return nil, fmt.Errorf("saving bill to database: %w", err)
	}
	return record, nil
}

// ListBills returns the bills owned by email, or every bill when email is
// empty, in creation order
func (s *Service) ListBills(email string) ([]bill.Bill, error) {
	records, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	slices.SortStableFunc(records, func(a, b *Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	bills := make([]bill.Bill, 0, len(records))
	for _, r := range records {
		if email != "" && r.Email != email {
			continue
		}
		bills = append(bills, r.Bill)
	}
	return bills, nil
}

// GetFile retrieves a stored receipt and its content type
func (s *Service) GetFile(name string) ([]byte, string, error) {
	data, err := s.storage.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
