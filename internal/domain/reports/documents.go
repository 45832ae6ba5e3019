package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"vacations/internal/domain/vacation"
)

const balancesSheet = "Balances"

var balanceColumns = []string{"Employee", "Email", "Department", "Accrued", "Used", "Pending", "Available", "Debt"}

// RequestCertificate renders a one-page PDF confirming a vacation request and
// the decisions taken on it.
func RequestCertificate(req vacation.Request, approvals []vacation.Approval, issued time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Vacation request "+req.ID, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Vacation request certificate")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(45, 8, label)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 8, value)
		pdf.Ln(8)
	}
	line("Request", req.ID)
	line("Employee", req.EmployeeName)
	line("Type", req.TypeName)
	line("From", req.StartDate.Format("2006-01-02"))
	line("To", req.EndDate.Format("2006-01-02"))
	line("Business days", fmt.Sprintf("%g", req.Days))
	line("Status", strings.ReplaceAll(req.Status, "_", " "))
	if req.Reason != "" {
		line("Reason", req.Reason)
	}

	if len(approvals) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Decisions")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, a := range approvals {
			text := fmt.Sprintf("%s  %s by %s (%s)", a.CreatedAt.Format("2006-01-02 15:04"), a.Decision, a.ApproverID, a.Stage)
			if a.Comment != "" {
				text += ": " + a.Comment
			}
			pdf.MultiCell(0, 6, text, "", "L", false)
		}
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Issued "+issued.UTC().Format(time.RFC3339))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func balanceRecord(b vacation.EmployeeBalance) []any {
	return []any{b.Name, b.Email, b.Department, b.Accrued, b.Used, b.Pending, b.Available(), b.Debt()}
}

// BalancesWorkbook writes one row per employee to a single-sheet XLSX file.
func BalancesWorkbook(rows []vacation.EmployeeBalance) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", balancesSheet); err != nil {
		return nil, err
	}
	header := make([]any, len(balanceColumns))
	for i, col := range balanceColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(balancesSheet, "A1", &header); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(balancesSheet, 1, 1, style); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		record := balanceRecord(row)
		if err := f.SetSheetRow(balancesSheet, cell, &record); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(balancesSheet, "A", "C", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteBalancesCSV(w io.Writer, rows []vacation.EmployeeBalance) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(balanceColumns); err != nil {
		return err
	}
	for _, row := range rows {
		record := balanceRecord(row)
		fields := make([]string, len(record))
		for i, v := range record {
			fields[i] = fmt.Sprint(v)
		}
		if err := writer.Write(fields); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
