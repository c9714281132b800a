package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	ReportCSV  = "csv"
	ReportXLSX = "xlsx"
)

// Report is a rendered transaction export.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}

var reportHeaders = []string{"Transaction ID", "Date", "Student Name", "Student Email", "Course", "Amount", "Currency", "Provider", "Status", "Provider Order ID"}

// TransactionReport exports transactions created in [from, to] that match
// status (all statuses when empty).
func (s *TransactionService) TransactionReport(from, to time.Time, status, format string) (*Report, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = ReportCSV
	}
	if format != ReportCSV && format != ReportXLSX {
		return nil, apperrors.BadRequest("Unsupported report format %q, use csv or xlsx", format)
	}
	if to.Before(from) {
		return nil, apperrors.BadRequest("end_date must not be before start_date")
	}

	var txns []models.Transaction
	if err := s.filtered(TransactionFilter{Status: status, From: &from, To: &to}).
		Preload("User").Preload("Course").
		Order("created_at desc").
		Find(&txns).Error; err != nil {
		return nil, errors.Wrap(err, "loading transactions")
	}

	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		var studentName, studentEmail, courseTitle, orderID string
		if t.User != nil {
			studentName, studentEmail = t.User.FullName, t.User.Email
		}
		if t.Course != nil {
			courseTitle = t.Course.Title
		}
		if t.ProviderOrderID != nil {
			orderID = *t.ProviderOrderID
		}
		rows = append(rows, []string{
			t.ID.String(),
			t.CreatedAt.Format("2006-01-02 15:04"),
			studentName,
			studentEmail,
			courseTitle,
			fmt.Sprintf("%.2f", t.Amount),
			t.Currency,
			t.Provider,
			t.Status,
			orderID,
		})
	}

	name := fmt.Sprintf("transactions_%s_to_%s.%s", from.Format("2006-01-02"), to.Format("2006-01-02"), format)
	if format == ReportXLSX {
		body, err := writeXLSX(rows, txns)
		if err != nil {
			return nil, err
		}
		return &Report{
			Filename:    name,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	}

	body, err := writeCSV(rows)
	if err != nil {
		return nil, err
	}
	return &Report{Filename: name, ContentType: "text/csv", Body: body}, nil
}

func writeCSV(rows [][]string) ([]byte, error) {
	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	if err := w.Write(reportHeaders); err != nil {
		return nil, errors.Wrap(err, "writing csv header")
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, errors.Wrap(err, "writing csv rows")
	}
	return b.Bytes(), nil
}

// writeXLSX lays rows out on a "Transactions" sheet with numeric amounts and
// a totals row.
func writeXLSX(rows [][]string, txns []models.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	var total float64
	for i, r := range rows {
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		values[5] = txns[i].Amount
		if txns[i].Status == models.TransactionSuccess {
			total += txns[i].Amount
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "locating row")
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, errors.Wrap(err, "writing row")
		}
	}

	totalRow := len(rows) + 3
	if err := f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), "Total (successful)"); err != nil {
		return nil, errors.Wrap(err, "writing total label")
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), roundMoney(total)); err != nil {
		return nil, errors.Wrap(err, "writing total")
	}
	if err := f.SetColWidth(sheet, "A", "J", 20); err != nil {
		return nil, errors.Wrap(err, "sizing columns")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encoding xlsx")
	}
	return buf.Bytes(), nil
}
