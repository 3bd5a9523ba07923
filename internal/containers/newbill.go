package containers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/store"
	"github.com/zombor/billed/internal/views"
)

// defaultPct is used when the VAT percentage is left empty
const defaultPct = 20

// NewBillController drives the bill creation form
type NewBillController struct {
	ctx     Context
	session session.Session

	// Upload state, set once the receipt is stored
	billID   string
	fileURL  string
	fileName string

	updates *sync.WaitGroup
}

// NewNewBillController creates a NewBillController for the signed-in user
// and binds the form events on the document
func NewNewBillController(c Context) (*NewBillController, error) {
	if c.Storage == nil {
		return nil, session.ErrNoUser
	}
	sess, err := session.Read(c.Storage)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	n := &NewBillController{ctx: c, session: sess, updates: c.Pending}
	if n.updates == nil {
		n.updates = &sync.WaitGroup{}
	}
	c.Document.Bind(dom.ByTestID("form-new-bill"), dom.Submit, n.HandleSubmit)
	c.Document.Bind(dom.ByTestID("file"), dom.Change, n.HandleChangeFile)
	return n, nil
}

// Render shows the creation form
func (n *NewBillController) Render(_ context.Context, root *dom.Element) error {
	out, err := views.NewBill(bill.Types)
	if err != nil {
		return err
	}
	return root.SetInnerHTML(out)
}

// FileValidation accepts jpg, jpeg and png receipts, judged on the file
// name extension only
func (n *NewBillController) FileValidation(file dom.File) bool {
	return isReceiptName(file.Name)
}

func isReceiptName(name string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "jpg", "jpeg", "png":
		return true
	default:
		return false
	}
}

// Receipt returns the upload state: the provisional bill id and where the
// receipt was stored. All empty until an upload succeeds.
func (n *NewBillController) Receipt() (id, fileURL, fileName string) {
	return n.billID, n.fileURL, n.fileName
}

func (n *NewBillController) resetUpload() {
	n.billID, n.fileURL, n.fileName = "", "", ""
}

// HandleChangeFile uploads the receipt selected in the file input. A file
// with the wrong extension is cleared from the input without any upload.
func (n *NewBillController) HandleChangeFile(ctx context.Context, ev *dom.Event) error {
	input := ev.Target
	files := input.Files()
	if len(files) == 0 {
		n.resetUpload()
		return ErrNoFile
	}
	file := files[0]

	n.resetUpload()
	if !n.FileValidation(file) {
		input.SetValue("")
		slog.Info("Rejected receipt", "filename", file.Name)
		return fmt.Errorf("%w: %s", ErrInvalidFile, file.Name)
	}

	if n.ctx.Store == nil {
		return ErrNoStore
	}

	receipt, err := n.ctx.Store.Bills().Create(ctx, store.Upload{
		Email:       n.session.Email,
		FileName:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		slog.Error("Error uploading receipt", "filename", file.Name, "error", err)
		return fmt.Errorf("uploading receipt: %w", err)
	}

	n.billID = receipt.ID
	n.fileURL = receipt.FileURL
	n.fileName = receipt.FileName
	if n.fileName == "" {
		n.fileName = file.Name
	}
	slog.Info("Receipt uploaded", "id", n.billID, "file_url", n.fileURL)
	return nil
}

// HandleSubmit assembles the bill from the form, starts saving it and goes
// back to the bills list without waiting for the save.
func (n *NewBillController) HandleSubmit(ctx context.Context, ev *dom.Event) error {
	ev.PreventDefault()
	form := ev.Target

	if missing := form.MissingRequired(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, missing[0].TestID())
	}

	b, err := n.readForm(form)
	if err != nil {
		return err
	}

	if n.fileURL == "" || n.fileName == "" {
		slog.Warn("Submit ignored before receipt upload finished")
		return ErrReceiptNotUploaded
	}
	if n.ctx.Store == nil {
		return ErrNoStore
	}
	b.ID = n.billID
	b.FileURL = n.fileURL
	b.FileName = n.fileName

	n.updateBill(ctx, b)
	n.ctx.navigate(ctx, routes.Bills)
	return nil
}

// Wait blocks until background saves started by HandleSubmit are done
func (n *NewBillController) Wait() {
	n.updates.Wait()
}

func (n *NewBillController) updateBill(ctx context.Context, b bill.Bill) {
	timeout := n.ctx.UpdateTimeout
	if timeout <= 0 {
		timeout = DefaultUpdateTimeout
	}
	// The save outlives the submit event
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	n.updates.Add(1)
	go func() {
		defer n.updates.Done()
		defer cancel()

		if _, err := n.ctx.Store.Bills().Update(saveCtx, b); err != nil {
			slog.Error("Error saving bill", "id", b.ID, "error", err)
			if n.ctx.OnUpdateError != nil {
				n.ctx.OnUpdateError(b, err)
			}
			return
		}
		slog.Info("Bill saved", "id", b.ID)
	}()
}

func (n *NewBillController) readForm(form *dom.Element) (bill.Bill, error) {
	value := func(testID string) string {
		if el := form.Query(dom.ByTestID(testID)); el != nil {
			return strings.TrimSpace(el.Value())
		}
		return ""
	}

	b := bill.Bill{
		Email:      n.session.Email,
		Type:       value("expense-type"),
		Name:       value("expense-name"),
		Date:       value("datepicker"),
		VAT:        value("vat"),
		Commentary: value("commentary"),
		Status:     bill.StatusPending,
	}

	if !bill.IsValidType(b.Type) {
		return bill.Bill{}, fmt.Errorf("%w: %q", ErrInvalidType, b.Type)
	}
	if _, err := bill.ParseDate(b.Date); err != nil {
		return bill.Bill{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	if raw := value("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return bill.Bill{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		b.Amount = decimal.NewNullDecimal(amount)
	}

	pct := defaultPct
	if raw := value("pct"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return bill.Bill{}, fmt.Errorf("%w: %q", ErrInvalidPct, raw)
		}
		pct = parsed
	}
	b.Pct = &pct

	return b, nil
}
