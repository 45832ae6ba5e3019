package vacation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

var calendarCSVHeader = []string{"request_id", "employee_id", "employee", "type", "start_date", "end_date", "days", "status"}

func WriteCalendarCSV(w io.Writer, entries []CalendarEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(calendarCSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.RequestID,
			e.EmployeeID,
			e.EmployeeName,
			e.TypeName,
			e.StartDate.Format(dateLayout),
			e.EndDate.Format(dateLayout),
			fmt.Sprintf("%g", e.Days),
			e.Status,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCalendarICS writes all-day events; DTEND is exclusive per RFC 5545.
func WriteCalendarICS(w io.Writer, entries []CalendarEntry, stamp time.Time) error {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Vacations//Team Calendar//EN\r\nCALSCALE:GREGORIAN\r\n")
	dtstamp := stamp.UTC().Format("20060102T150405Z")
	for _, e := range entries {
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s@vacations\r\n", e.RequestID)
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", dtstamp)
		fmt.Fprintf(&b, "DTSTART;VALUE=DATE:%s\r\n", e.StartDate.Format("20060102"))
		fmt.Fprintf(&b, "DTEND;VALUE=DATE:%s\r\n", e.EndDate.AddDate(0, 0, 1).Format("20060102"))
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", icsEscape(fmt.Sprintf("%s - %s (%s)", e.EmployeeName, e.TypeName, e.Status)))
		b.WriteString("END:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

var icsReplacer = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`, "\r", "")

func icsEscape(s string) string {
	return icsReplacer.Replace(s)
}
