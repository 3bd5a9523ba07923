package shell

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/billed/internal/app"
	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/store"
)

var _ = Describe("Server", func() {
	var (
		mock        *mockStore
		tab         *app.App
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	get := func(path string) (*http.Response, *dom.Document) {
		resp, err := http.Get(ghttpServer.URL() + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		page, err := dom.Parse(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, page
	}

	postForm := func(action string, fields map[string]string, fileName string) (*http.Response, *dom.Document) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		for k, v := range fields {
			Expect(writer.WriteField(k, v)).To(Succeed())
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		Expect(err).NotTo(HaveOccurred())
		if fileName != "" {
			_, err = part.Write([]byte("png data"))
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghttpServer.URL()+action, writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		page, err := dom.Parse(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, page
	}

	formFields := map[string]string{
		"expense-type": "Transports",
		"expense-name": "Vol Paris Londres",
		"datepicker":   "2005-05-05",
		"amount":       "348",
		"vat":          "70",
		"pct":          "20",
		"commentary":   "séminaire",
	}

	BeforeEach(func() {
		mock = newMockStore()
		storage := session.NewMemoryStorage()
		Expect(session.Write(storage, session.Session{Type: session.TypeEmployee, Email: "a@a"})).To(Succeed())
		tab = app.New(dom.NewDocument(), app.Config{Store: mock, Storage: storage})
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		server = NewServerWithMux(tab, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.RouteToHandler(http.MethodGet, regexp.MustCompile(".*"), server.ServeHTTP)
		ghttpServer.RouteToHandler(http.MethodPost, regexp.MustCompile(".*"), server.ServeHTTP)
	})

	AfterEach(func() {
		ghttpServer.Close()
		tab.Wait()
	})

	Describe("handleHome", func() {
		It("should redirect to the bills page", func() {
			client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}}
			resp, err := client.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
			Expect(resp.Header.Get("Location")).To(Equal("/employee/bills"))
		})
	})

	Describe("handlePage", func() {
		It("should render the bills of the employee", func() {
			resp, page := get("/employee/bills")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
			Expect(tab.Current()).To(Equal(routes.Bills))
			Expect(page.ContainsText("Mes notes de frais")).To(BeTrue())
			Expect(page.GetAllByTestID("icon-eye")).To(HaveLen(1))
		})

		It("should wire bound elements to event routes", func() {
			_, page := get("/employee/bills")
			Expect(page.GetByTestID("btn-new-bill").Attr("href")).To(HavePrefix("/events/"))
			Expect(page.GetByTestID("icon-eye").Attr("href")).To(HavePrefix("/events/"))
			Expect(page.GetByTestID("modal-close").Attr("href")).To(HavePrefix("/events/"))
		})

		It("should leave the document untouched", func() {
			get("/employee/bills")
			Expect(tab.Document().GetByTestID("btn-new-bill").HasAttr("href")).To(BeFalse())
		})

		It("should render the 404 page for unknown paths", func() {
			_, page := get("/employee/nowhere")
			Expect(page.GetByTestID("not-found")).NotTo(BeNil())
		})

		It("should keep the page state after an event only", func() {
			_, page := get("/employee/bills")
			resp, page := get(page.GetByTestID("icon-eye").Attr("href"))
			Expect(resp.Request.URL.Query().Get("keep")).To(Equal("1"))
			Expect(page.GetElementByID("modaleFile").HasClass("show")).To(BeTrue())

			_, page = get(resp.Request.URL.RequestURI())
			Expect(page.GetElementByID("modaleFile").HasClass("show")).To(BeTrue())

			_, page = get(page.GetByTestID("icon-window").Attr("href"))
			Expect(page.GetElementByID("modaleFile").HasClass("show")).To(BeFalse())
		})

		When("the list failed and the API is back", func() {
			BeforeEach(func() {
				mock.setListErr(&store.Error{StatusCode: http.StatusInternalServerError})
			})

			It("should fetch the bills again from the navbar", func() {
				_, page := get("/employee/bills")
				Expect(page.GetByTestID("error-message").Text()).To(Equal("Erreur 500"))
				Expect(page.GetByTestID("tbody")).To(BeNil())

				mock.setListErr(nil)
				_, page = get(page.GetByTestID("icon-window").Attr("href"))
				Expect(page.GetByTestID("error-message")).To(BeNil())
				Expect(page.GetByTestID("tbody")).NotTo(BeNil())
				Expect(page.GetAllByTestID("icon-eye")).To(HaveLen(1))
			})
		})
	})

	Describe("handleEvent", func() {
		It("should follow the new bill button", func() {
			_, page := get("/employee/bills")
			resp, page := get(page.GetByTestID("btn-new-bill").Attr("href"))
			Expect(resp.Request.URL.Path).To(Equal("/employee/bill/new"))
			Expect(tab.Current()).To(Equal(routes.NewBill))
			form := page.GetByTestID("form-new-bill")
			Expect(form.Attr("method")).To(Equal("post"))
			Expect(form.Attr("enctype")).To(Equal("multipart/form-data"))
		})

		It("should show the receipt in the modal", func() {
			_, page := get("/employee/bills")
			_, page = get(page.GetByTestID("icon-eye").Attr("href"))
			img := page.GetElementByID("modaleFile").Query(dom.ByTag("img"))
			Expect(img).NotTo(BeNil())
			Expect(img.Attr("src")).To(Equal("http://localhost:5678/files/a.jpg"))
		})

		When("the new bill form is posted", func() {
			var action string

			JustBeforeEach(func() {
				_, page := get("/employee/bill/new")
				action = page.GetByTestID("form-new-bill").Attr("action")
				Expect(action).To(HavePrefix("/events/"))
			})

			It("should upload the receipt, save the bill and show the list", func() {
				resp, page := postForm(action, formFields, "receipt.png")
				Expect(resp.Request.URL.Path).To(Equal("/employee/bills"))
				Expect(page.ContainsText("Mes notes de frais")).To(BeTrue())
				Expect(page.GetByTestID("event-error")).To(BeNil())

				tab.Wait()
				Expect(mock.Uploads()).To(HaveLen(1))
				Expect(mock.Uploads()[0].ContentType).To(Equal("image/png"))
				Expect(mock.Uploads()[0].Email).To(Equal("a@a"))

				updated := mock.Updated()
				Expect(updated).To(HaveLen(1))
				Expect(updated[0].ID).To(Equal("1234"))
				Expect(updated[0].Type).To(Equal("Transports"))
				Expect(updated[0].Name).To(Equal("Vol Paris Londres"))
				Expect(updated[0].Commentary).To(Equal("séminaire"))
				Expect(updated[0].Status).To(Equal(bill.StatusPending))
			})

			It("should reject a receipt that is not an image", func() {
				resp, page := postForm(action, formFields, "receipt.pdf")
				Expect(resp.Request.URL.Path).To(Equal("/employee/bill/new"))
				Expect(page.GetByTestID("event-error").Text()).To(ContainSubstring("jpg, jpeg or png"))
				Expect(page.GetByTestID("expense-name").Attr("value")).To(Equal("Vol Paris Londres"))
				Expect(mock.Uploads()).To(BeEmpty())
				Expect(mock.Updated()).To(BeEmpty())
			})

			It("should not ask for the receipt again once uploaded", func() {
				fields := map[string]string{}
				for k, v := range formFields {
					fields[k] = v
				}
				fields["datepicker"] = "2005-02-31"

				resp, page := postForm(action, fields, "receipt.png")
				Expect(resp.Request.URL.Path).To(Equal("/employee/bill/new"))
				Expect(page.GetByTestID("event-error")).NotTo(BeNil())
				Expect(page.GetByTestID("file").HasAttr("required")).To(BeFalse())

				fields["datepicker"] = "2005-02-28"
				resp, _ = postForm(page.GetByTestID("form-new-bill").Attr("action"), fields, "")
				Expect(resp.Request.URL.Path).To(Equal("/employee/bills"))
				tab.Wait()
				Expect(mock.Uploads()).To(HaveLen(1))
				Expect(mock.Updated()).To(HaveLen(1))
			})
		})

		It("should report links rendered before a navigation", func() {
			_, page := get("/employee/bills")
			stale := page.GetByTestID("icon-eye").Attr("href")
			get(page.GetByTestID("btn-new-bill").Attr("href"))

			resp, page := get(stale)
			Expect(resp.Request.URL.Path).To(Equal("/employee/bill/new"))
			Expect(page.GetByTestID("event-error").Text()).To(Equal(ErrStaleEvent.Error()))
			Expect(page.GetByTestID("form-new-bill")).NotTo(BeNil())
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "employee", Password: "secret"}
		})

		It("should reject requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/employee/bills")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("should serve the page with credentials", func() {
			req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/employee/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("employee:secret")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("Mes notes de frais"))
		})
	})
})
