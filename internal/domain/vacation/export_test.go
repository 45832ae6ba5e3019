package vacation

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleEntries = []CalendarEntry{
	{RequestID: "r1", EmployeeID: "e1", EmployeeName: "Ana, Lopez", TypeName: "Vacation", StartDate: date(2024, time.January, 8), EndDate: date(2024, time.January, 12), Days: 5, Status: StatusApproved},
	{RequestID: "r2", EmployeeID: "e2", EmployeeName: "Ben", TypeName: "Permission", StartDate: date(2024, time.January, 9), EndDate: date(2024, time.January, 9), Days: 0.5, Status: StatusPending},
}

func TestWriteCalendarCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCalendarCSV(&buf, sampleEntries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, calendarCSVHeader, records[0])
	assert.Equal(t, []string{"r1", "e1", "Ana, Lopez", "Vacation", "2024-01-08", "2024-01-12", "5", "approved"}, records[1])
	assert.Equal(t, "0.5", records[2][6])
}

func TestWriteCalendarICS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCalendarICS(&buf, sampleEntries, date(2024, time.January, 1)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240108\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240113\r\n")
	assert.Contains(t, out, `SUMMARY:Ana\, Lopez - Vacation (approved)`)
	assert.Contains(t, out, "DTSTAMP:20240101T000000Z\r\n")
}
