package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// EmptyCell replaces blank values in exported rows.
const EmptyCell = "-"

const exportSheet = "Leads"

// ExportHeaders lists the export columns in order.
var ExportHeaders = []string{"#", "Name", "Email", "Phone", "Budget", "Summary", "Date", "Time"}

// ExportTable shapes leads into rows matching ExportHeaders. Rows keep the
// input order and are numbered from one. A nil loc renders UTC.
func ExportTable(leads []*Lead, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(leads))
	for i, lead := range leads {
		created := lead.CreatedAt.In(loc)
		date, clock := EmptyCell, EmptyCell
		if !lead.CreatedAt.IsZero() {
			date = created.Format("2006-01-02")
			clock = created.Format("15:04")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cell(lead.Name),
			cell(lead.Email),
			cell(lead.Phone),
			cell(lead.Budget),
			cell(lead.Message),
			date,
			clock,
		})
	}
	return rows
}

func cell(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return EmptyCell
	}
	return v
}

// WriteCSV renders the export table with a header row.
func WriteCSV(w io.Writer, leads []*Lead, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders); err != nil {
		return fmt.Errorf("leads: write csv header: %w", err)
	}
	if err := cw.WriteAll(ExportTable(leads, loc)); err != nil {
		return fmt.Errorf("leads: write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX renders the export table as a single-sheet workbook.
func WriteXLSX(w io.Writer, leads []*Lead, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("leads: name sheet: %w", err)
	}
	header := append([]string(nil), ExportHeaders...)
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("leads: write header: %w", err)
	}
	for i, row := range ExportTable(leads, loc) {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(exportSheet, ref, &row); err != nil {
			return fmt.Errorf("leads: write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("leads: header style: %w", err)
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("leads: apply header style: %w", err)
	}
	_ = f.SetColWidth(exportSheet, "B", "E", 22)
	_ = f.SetColWidth(exportSheet, "F", "F", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("leads: write xlsx: %w", err)
	}
	return nil
}
