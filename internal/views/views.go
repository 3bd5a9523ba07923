package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/zombor/billed/internal/routes"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"href": routes.Href,
}).ParseFS(templatesFS, "templates/*.html"))

// Row is one line of the bills table
type Row struct {
	ID          string
	Type        string
	Name        string
	Date        string // ISO date, kept for ordering checks
	DisplayDate string
	Amount      string
	Status      string
	FileURL     string
	FileName    string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s view: %w", name, err)
	}
	return buf.String(), nil
}

// Bills renders the employee bills list
func Bills(rows []Row) (string, error) {
	return render("bills", struct{ Rows []Row }{rows})
}

// NewBill renders the bill creation form offering types as categories
func NewBill(types []string) (string, error) {
	return render("newbill", struct{ Types []string }{types})
}

// Loading renders the placeholder shown while data is fetched
func Loading() (string, error) {
	return render("loading", nil)
}

// Error renders message as is
func Error(message string) (string, error) {
	return render("error", struct{ Message string }{message})
}

// NotFound renders the page shown for unknown paths
func NotFound() (string, error) {
	return render("notfound", nil)
}
