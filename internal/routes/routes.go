package routes

import "strings"

// Logical paths understood by the router
const (
	Login     = "/"
	Bills     = "#employee/bills"
	NewBill   = "#employee/bill/new"
	Dashboard = "#admin/dashboard"
)

// Href maps a logical path to the URL the shell serves it under,
// e.g. "#employee/bills" -> "/employee/bills"
func Href(path string) string {
	return "/" + strings.TrimPrefix(strings.TrimPrefix(path, "#"), "/")
}

// FromURLPath is the inverse of Href
func FromURLPath(urlPath string) string {
	p := strings.Trim(urlPath, "/")
	if p == "" {
		return Login
	}
	return "#" + p
}
