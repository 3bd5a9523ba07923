package containers

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/store"
	"github.com/zombor/billed/internal/views"
)

var _ = Describe("BillsController", func() {
	var (
		doc        *dom.Document
		mock       *mockStore
		st         store.Store
		nav        *navigations
		controller *BillsController
		ctx        context.Context
	)

	BeforeEach(func() {
		doc = dom.NewDocument()
		mock = newMockStore()
		st = mock
		nav = &navigations{}
		ctx = context.Background()
	})

	JustBeforeEach(func() {
		controller = NewBillsController(Context{
			Document: doc,
			Navigate: nav.navigate,
			Store:    st,
		})
	})

	Describe("Load", func() {
		var (
			rows []views.Row
			err  error
		)

		JustBeforeEach(func() {
			rows, err = controller.Load(ctx)
		})

		When("the store lists bills", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns every bill", func() {
				Expect(rows).To(HaveLen(4))
			})

			It("orders them from latest to earliest", func() {
				dates := make([]string, 0, len(rows))
				for _, r := range rows {
					dates = append(dates, r.Date)
				}
				Expect(dates).To(Equal([]string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}))
			})

			It("formats dates and statuses for display", func() {
				Expect(rows[0].DisplayDate).To(Equal("4 Avr. 04"))
				Expect(rows[0].Status).To(Equal("En attente"))
				Expect(rows[1].Status).To(Equal("Accepté"))
				Expect(rows[3].Status).To(Equal("Refused"))
			})

			It("keeps amounts and receipts", func() {
				Expect(rows[0].Amount).To(Equal("400"))
				Expect(rows[0].FileName).To(Equal("preview-facture-free-201801-pdf-1.jpg"))
			})
		})

		When("a bill has a corrupted date", func() {
			BeforeEach(func() {
				mock.bills.list = []bill.Bill{{ID: "x", Date: "not a date", Status: bill.StatusPending}}
			})

			It("shows the raw date", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(rows[0].DisplayDate).To(Equal("not a date"))
			})
		})

		When("several bills share a date", func() {
			BeforeEach(func() {
				mock.bills.list = []bill.Bill{
					{ID: "a", Date: "2020-01-01"},
					{ID: "b", Date: "2021-01-01"},
					{ID: "c", Date: "2020-01-01"},
				}
			})

			It("keeps their fetch order", func() {
				Expect([]string{rows[0].ID, rows[1].ID, rows[2].ID}).To(Equal([]string{"b", "a", "c"}))
			})
		})

		When("the store fails with 404", func() {
			var apiErr error

			BeforeEach(func() {
				apiErr = errors.New("Erreur 404")
				mock.bills.listErr = apiErr
			})

			It("returns the store error unchanged", func() {
				Expect(err).To(BeIdenticalTo(apiErr))
				Expect(rows).To(BeNil())
			})
		})

		When("there is no store", func() {
			BeforeEach(func() {
				st = nil
			})

			It("returns ErrNoStore", func() {
				Expect(err).To(MatchError(ErrNoStore))
			})
		})
	})

	Describe("Render", func() {
		var err error

		JustBeforeEach(func() {
			err = controller.Render(ctx, doc.Root())
		})

		It("renders the rows into the table body", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.GetByTestID("tbody").QueryAll(dom.ByTag("tr"))).To(HaveLen(4))
			Expect(doc.ContainsText("Hôtel et logement")).To(BeTrue())
		})

		It("renders dates latest first", func() {
			cells := doc.GetAllByTestID("bill-date")
			for i := 1; i < len(cells); i++ {
				Expect(cells[i-1].Attr("data-date") >= cells[i].Attr("data-date")).To(BeTrue())
			}
		})

		When("the store fails with 500", func() {
			BeforeEach(func() {
				mock.bills.listErr = errors.New("Erreur 500")
			})

			It("returns the error for the router to display", func() {
				Expect(err).To(MatchError("Erreur 500"))
			})
		})
	})

	Describe("HandleClickIconEye", func() {
		JustBeforeEach(func() {
			Expect(controller.Render(ctx, doc.Root())).To(Succeed())
		})

		It("shows the modal with the receipt of each clicked row", func() {
			modal := doc.GetElementByID("modaleFile")
			icons := doc.GetAllByTestID("icon-eye")
			Expect(icons).To(HaveLen(4))

			for _, icon := range icons {
				_, err := doc.Fire(ctx, icon, dom.Click)
				Expect(err).NotTo(HaveOccurred())
				Expect(modal.HasClass("show")).To(BeTrue())

				img := modal.Query(dom.ByTag("img"))
				Expect(img).NotTo(BeNil())
				Expect(img.Attr("src")).To(Equal(icon.Attr("data-bill-url")))
				Expect(modal.QueryAll(dom.ByTag("img"))).To(HaveLen(1))
			}
		})

		It("does not touch the list", func() {
			before := doc.GetByTestID("tbody").InnerHTML()
			Expect(controller.HandleClickIconEye(ctx, doc.GetAllByTestID("icon-eye")[2])).To(Succeed())
			Expect(doc.GetByTestID("tbody").InnerHTML()).To(Equal(before))
		})

		It("hides the modal again on close", func() {
			_, err := doc.Fire(ctx, doc.GetAllByTestID("icon-eye")[0], dom.Click)
			Expect(err).NotTo(HaveOccurred())
			_, err = doc.Fire(ctx, doc.GetByTestID("modal-close"), dom.Click)
			Expect(err).NotTo(HaveOccurred())
			modal := doc.GetElementByID("modaleFile")
			Expect(modal.HasClass("show")).To(BeFalse())
			Expect(modal.Query(dom.ByTag("img"))).To(BeNil())
		})
	})

	When("the modal is not rendered", func() {
		It("returns ErrNoModal", func() {
			Expect(doc.Root().SetInnerHTML(`<a data-testid="icon-eye" data-bill-url="x"></a>`)).To(Succeed())
			Expect(controller.HandleClickIconEye(ctx, doc.GetByTestID("icon-eye"))).To(MatchError(ErrNoModal))
		})
	})

	Describe("HandleClickNewBill", func() {
		It("navigates to the new bill page", func() {
			Expect(controller.Render(ctx, doc.Root())).To(Succeed())
			_, err := doc.Fire(ctx, doc.GetByTestID("btn-new-bill"), dom.Click)
			Expect(err).NotTo(HaveOccurred())
			Expect(nav.Paths()).To(Equal([]string{routes.NewBill}))
		})
	})
})
