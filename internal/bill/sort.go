package bill

import (
	"slices"
	"strings"
)

// SortAntiChrono orders bills newest date first. Dates are compared as ISO
// strings; bills sharing a date keep their relative order.
func SortAntiChrono(bills []Bill) {
	slices.SortStableFunc(bills, func(a, b Bill) int {
		return strings.Compare(b.Date, a.Date)
	})
}
