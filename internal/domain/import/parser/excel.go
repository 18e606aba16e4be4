package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the sheet written by WriteExcel and preferred by ReadExcel.
const SheetName = "Transactions"

// WriteExcel writes rows to a single-sheet workbook. Amounts become numeric
// cells; everything else is text so account numbers keep leading zeros.
func WriteExcel(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(Columns))
		for j, v := range row.values() {
			values[j] = v
		}
		if amount, err := decimal.NewFromString(row.Amount); err == nil {
			values[4] = amount.InexactFloat64()
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadExcel reads rows from the Transactions sheet, or the first sheet when
// there is none. The first row is the header.
func ReadExcel(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := findSheet(f)
	if sheet == "" {
		return nil, fmt.Errorf("no suitable sheet found")
	}

	cells, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(cells)-1)
	for i, values := range cells[1:] {
		if isBlank(values) {
			continue
		}
		row := Row{Line: i + 2}
		for j, v := range values {
			if j < len(header) {
				row.set(header[j], v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, sheet := range sheets {
		if strings.EqualFold(sheet, SheetName) {
			return sheet
		}
	}
	return sheets[0]
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
