// Package export renders pass forecasts into interchange formats.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/passes"
)

// icsTimeLayout is the iCalendar UTC timestamp form (RFC 5545 3.3.5).
const icsTimeLayout = "20060102T150405Z"

// ICS renders the passes as an iCalendar document, one VEVENT per
// pass. Lines are CRLF-terminated per RFC 5545. UIDs combine the
// catalog number with the rise time, so re-exporting the same forecast
// yields identical UIDs and calendar clients deduplicate on import.
func ICS(catalogNumber int, windows []passes.Window, title string) string {
	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:-//satlink-planner//EN")
	for _, w := range windows {
		rise := w.Rise.UTC()
		set := w.Set.UTC()
		writeLine("BEGIN:VEVENT")
		writeLine(fmt.Sprintf("UID:%d-%s", catalogNumber, rise.Format(time.RFC3339)))
		writeLine("DTSTART:" + rise.Format(icsTimeLayout))
		writeLine("DTEND:" + set.Format(icsTimeLayout))
		writeLine(fmt.Sprintf("SUMMARY:%s NORAD %d - Max Elev %.1f deg", title, catalogNumber, w.MaxElevationDeg))
		writeLine("END:VEVENT")
	}
	writeLine("END:VCALENDAR")
	return b.String()
}
