package season

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportOptions selects which column groups appear in an export.
type ExportOptions struct {
	IncludeCharges   bool
	IncludePayments  bool
	IncludeOccupancy bool
}

// exportHeader builds the header row for the selected options.
func exportHeader(opts ExportOptions) []string {
	h := []string{"Family Group", "Check-In Date", "Check-Out Date", "Nights", "Status"}
	if opts.IncludeCharges {
		h = append(h, "Base Charge", "Total Charges")
	}
	if opts.IncludePayments {
		h = append(h, "Amount Paid", "Balance Due", "Payment Status")
	}
	if opts.IncludeOccupancy {
		h = append(h, "Average Occupancy")
	}
	return h
}

// exportRow renders one stay; money cells are returned pre-formatted
// to two decimals.
func exportRow(r StayRow, opts ExportOptions) []string {
	row := []string{r.FamilyGroup, r.CheckIn, r.CheckOut, fmt.Sprintf("%d", r.Nights), r.Status}
	if opts.IncludeCharges {
		row = append(row, money(r.BaseCharge), money(r.TotalCharge))
	}
	if opts.IncludePayments {
		row = append(row, money(r.AmountPaid), money(r.BalanceDue), r.PaymentStatus)
	}
	if opts.IncludeOccupancy {
		row = append(row, fmt.Sprintf("%.1f", r.AverageOccupancy))
	}
	return row
}

// totalsRow renders the trailing TOTALS line.
func totalsRow(s Summary, opts ExportOptions) []string {
	row := []string{"TOTALS", "", "", fmt.Sprintf("%d", s.Totals.Nights), fmt.Sprintf("%d stays", s.Totals.Stays)}
	if opts.IncludeCharges {
		var base float64
		for _, r := range s.Rows {
			base += r.BaseCharge
		}
		row = append(row, money(base), money(s.Totals.TotalCharged))
	}
	if opts.IncludePayments {
		row = append(row, money(s.Totals.TotalPaid), money(s.Totals.Outstanding), "")
	}
	if opts.IncludeOccupancy {
		row = append(row, "")
	}
	return row
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }

// WriteCSV writes the season table as CSV.  Every cell is quoted so
// that monetary values and names with commas survive round-trips;
// dates use yyyy-mm-dd and money is formatted to two decimals.
func WriteCSV(w io.Writer, s Summary, opts ExportOptions) error {
	write := func(cells []string) error {
		quoted := make([]string, len(cells))
		for i, c := range cells {
			quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
		return err
	}
	if err := write(exportHeader(opts)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s.Rows {
		if err := write(exportRow(r, opts)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := write(totalsRow(s, opts)); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}
	return nil
}

// WriteXLSX writes the season table as a single-sheet xlsx workbook.
func WriteXLSX(w io.Writer, s Summary, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Season %d", s.Config.Year)
	f.SetSheetName("Sheet1", sheet)

	for i, h := range exportHeader(opts) {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	rows := make([][]string, 0, len(s.Rows)+1)
	for _, r := range s.Rows {
		rows = append(rows, exportRow(r, opts))
	}
	rows = append(rows, totalsRow(s, opts))
	for ri, cells := range rows {
		for ci, v := range cells {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return fmt.Errorf("xlsx cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx row: %w", err)
			}
		}
	}

	// Readable defaults: family group and dates get wider columns.
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "C", 14)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
