package containers

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/views"
)

// BillsController drives the employee bills list
type BillsController struct {
	ctx Context
}

// NewBillsController creates a BillsController and binds its events on
// the document
func NewBillsController(c Context) *BillsController {
	b := &BillsController{ctx: c}
	c.Document.Bind(dom.ByTestID("btn-new-bill"), dom.Click, func(ctx context.Context, _ *dom.Event) error {
		return b.HandleClickNewBill(ctx)
	})
	c.Document.Bind(dom.ByTestID("icon-eye"), dom.Click, func(ctx context.Context, ev *dom.Event) error {
		return b.HandleClickIconEye(ctx, ev.Target)
	})
	c.Document.Bind(dom.ByTestID("modal-close"), dom.Click, func(ctx context.Context, _ *dom.Event) error {
		return b.HandleCloseModal(ctx)
	})
	return b
}

// Load fetches the bills, newest first, ready for display. A failed fetch
// returns the store error untouched.
func (b *BillsController) Load(ctx context.Context) ([]views.Row, error) {
	if b.ctx.Store == nil {
		return nil, ErrNoStore
	}

	bills, err := b.ctx.Store.Bills().List(ctx)
	if err != nil {
		return nil, err
	}

	bill.SortAntiChrono(bills)

	rows := make([]views.Row, 0, len(bills))
	for _, record := range bills {
		displayDate, err := bill.FormatDate(record.Date)
		if err != nil {
			// Shown raw rather than dropping the bill
			slog.Warn("Corrupted bill date", "id", record.ID, "date", record.Date, "error", err)
			displayDate = record.Date
		}

		amount := ""
		if record.Amount.Valid {
			amount = record.Amount.Decimal.String()
		}

		rows = append(rows, views.Row{
			ID:          record.ID,
			Type:        record.Type,
			Name:        record.Name,
			Date:        record.Date,
			DisplayDate: displayDate,
			Amount:      amount,
			Status:      bill.FormatStatus(record.Status),
			FileURL:     record.FileURL,
			FileName:    record.FileName,
		})
	}
	return rows, nil
}

// Render shows the loading page, then the list or the fetch error
func (b *BillsController) Render(ctx context.Context, root *dom.Element) error {
	loading, err := views.Loading()
	if err != nil {
		return err
	}
	if err := root.SetInnerHTML(loading); err != nil {
		return err
	}

	rows, err := b.Load(ctx)
	if err != nil {
		return err
	}

	out, err := views.Bills(rows)
	if err != nil {
		return err
	}
	return root.SetInnerHTML(out)
}

// HandleClickIconEye shows the receipt of the clicked row in the modal
func (b *BillsController) HandleClickIconEye(_ context.Context, icon *dom.Element) error {
	modal := b.ctx.Document.GetElementByID("modaleFile")
	if modal == nil {
		return ErrNoModal
	}
	body := modal.Query(dom.ByClass("modal-body"))
	if body == nil {
		return ErrNoModal
	}

	billURL := icon.Attr("data-bill-url")
	proof := fmt.Sprintf(`<div style="text-align: center;" class="bill-proof-container"><img src="%s" alt="Bill"></div>`,
		html.EscapeString(billURL))
	if err := body.SetInnerHTML(proof); err != nil {
		return fmt.Errorf("showing receipt: %w", err)
	}

	modal.AddClass("show")
	modal.SetAttr("aria-hidden", "false")
	return nil
}

// HandleCloseModal hides the receipt modal
func (b *BillsController) HandleCloseModal(_ context.Context) error {
	modal := b.ctx.Document.GetElementByID("modaleFile")
	if modal == nil {
		return ErrNoModal
	}
	modal.RemoveClass("show")
	modal.SetAttr("aria-hidden", "true")
	if body := modal.Query(dom.ByClass("modal-body")); body != nil {
		return body.SetInnerHTML("")
	}
	return nil
}

// HandleClickNewBill opens the creation form
func (b *BillsController) HandleClickNewBill(ctx context.Context) error {
	b.ctx.navigate(ctx, routes.NewBill)
	return nil
}
