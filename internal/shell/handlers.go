package shell

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
)

// maxFormSize bounds form submissions, receipts included
const maxFormSize = int64(10 << 20)

// ErrStaleEvent is returned for event links rendered before the last
// navigation
var ErrStaleEvent = errors.New("page has changed, please try again")

const pageStyle = `.modal{display:none}.modal.show{display:block}` +
	`.active-icon{font-weight:bold}.alert{color:#b00}`

// handleHome sends the browser to the bills page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routes.Href(routes.Bills), http.StatusSeeOther)
}

// handlePage navigates the tab to the requested page and serves the
// document. A load following an event keeps the page the event left.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := routes.FromURLPath(r.URL.Path)
	keep := r.URL.Query().Get(keepParam) != ""
	if !keep || path != s.app.Current() {
		s.app.Navigate(r.Context(), path)
	}

	flash := s.flash
	s.flash = ""

	page, err := s.page(flash)
	if err != nil {
		slog.Error("Error rendering page", "path", path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(page)
}

// page renders a copy of the document where every bound element is wired
// to its event route
func (s *Server) page(flash string) ([]byte, error) {
	doc := s.app.Document()
	copied, err := dom.Parse(strings.NewReader(doc.HTML()))
	if err != nil {
		return nil, err
	}

	// A browser cannot keep a file selection across pages: once uploaded, the
	// receipt no longer has to be picked again
	live, rendered := doc.QueryAll(dom.ByTag("input")), copied.QueryAll(dom.ByTag("input"))
	for k, input := range live {
		if files := input.Files(); len(files) > 0 && k < len(rendered) {
			rendered[k].RemoveAttr("required")
			rendered[k].SetAttr("title", files[0].Name)
		}
	}

	generation := doc.Generation()
	for i, b := range doc.Bindings() {
		for j, el := range copied.QueryAll(b.Selector) {
			action := fmt.Sprintf("/events/%d/%d/%d", generation, i, j)
			switch {
			case b.Kind == dom.Click && el.Tag() == "a":
				el.SetAttr("href", action)
			case b.Kind == dom.Submit && el.Tag() == "form":
				el.SetAttr("action", action)
				el.SetAttr("method", "post")
				el.SetAttr("enctype", "multipart/form-data")
			}
		}
	}

	if head := copied.Query(dom.ByTag("head")); head != nil {
		if err := head.SetInnerHTML(head.InnerHTML() + "<style>" + pageStyle + "</style>"); err != nil {
			return nil, err
		}
	}
	if flash != "" {
		if body := copied.Body(); body != nil {
			alert := `<div class="alert" role="alert" data-testid="event-error">` + html.EscapeString(flash) + `</div>`
			if err := body.SetInnerHTML(alert + body.InnerHTML()); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := copied.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// handleEvent fires the event a hydrated element was wired to and sends the
// browser back to the page the tab now displays
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dispatch(w, r); err != nil {
		slog.Warn("Event failed", "path", r.URL.Path, "error", err)
		s.flash = err.Error()
	}
	s.redirectToCurrent(w, r)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) error {
	doc := s.app.Document()

	if generation, err := strconv.Atoi(r.PathValue("generation")); err != nil || generation != doc.Generation() {
		return ErrStaleEvent
	}

	bindings := doc.Bindings()
	i, err := strconv.Atoi(r.PathValue("binding"))
	if err != nil || i < 0 || i >= len(bindings) {
		return ErrStaleEvent
	}
	binding := bindings[i]

	elements := doc.QueryAll(binding.Selector)
	j, err := strconv.Atoi(r.PathValue("element"))
	if err != nil || j < 0 || j >= len(elements) {
		return ErrStaleEvent
	}
	target := elements[j]

	if binding.Kind == dom.Submit {
		if r.Method != http.MethodPost {
			return ErrStaleEvent
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := s.fill(r, target); err != nil {
			return err
		}
	}

	_, err = doc.Fire(r.Context(), target, binding.Kind)
	return err
}

// fill copies a posted form into the document form. Selected files are
// set first and their change event fired, as a browser would have done
// when they were picked.
func (s *Server) fill(r *http.Request, form *dom.Element) error {
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("reading form: %w", err)
	}

	var fileErr error
	controls := form.QueryAll(dom.HasAttr("name"))
	for _, el := range controls {
		if el.Tag() != "input" || !strings.EqualFold(el.Attr("type"), "file") {
			continue
		}
		file, err := formFile(r.MultipartForm, el.Attr("name"))
		if err != nil {
			return err
		}
		if file == nil {
			continue
		}
		el.SetFiles(*file)
		if _, err := s.app.Document().Fire(r.Context(), el, dom.Change); err != nil {
			fileErr = errors.Join(fileErr, err)
		}
	}

	for _, el := range controls {
		switch el.Tag() {
		case "input", "select", "textarea":
		default:
			continue
		}
		if strings.EqualFold(el.Attr("type"), "file") {
			continue
		}
		if values, ok := r.Form[el.Attr("name")]; ok && len(values) > 0 {
			el.SetValue(values[0])
		}
	}

	return fileErr
}

func formFile(form *multipart.Form, name string) (*dom.File, error) {
	if form == nil || len(form.File[name]) == 0 {
		return nil, nil
	}
	header := form.File[name][0]
	if header.Filename == "" {
		return nil, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
	}
	return &dom.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
