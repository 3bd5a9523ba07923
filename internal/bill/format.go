package bill

import (
	"fmt"
	"time"
)

// DateLayout is the normalized storage format of Bill.Date
const DateLayout = "2006-01-02"

// Capitalized three-letter French month abbreviations, indexed by time.Month.
var shortMonths = [...]string{
	"", "Jan", "Fév", "Mar", "Avr", "Mai", "Jui", "Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// ParseDate parses an ISO date and rejects impossible calendar dates
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate turns an ISO date into the list display form, e.g. "4 Avr. 04"
func FormatDate(iso string) (string, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), shortMonths[t.Month()], t.Year()%100), nil
}

// FormatStatus returns the label shown for a status
func FormatStatus(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refused"
	default:
		return string(s)
	}
}
