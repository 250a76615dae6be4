package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tsflow/pkg/contracts/domain"
)

// DefaultSheet names the sheet WriteXLSX fills when none is given.
const DefaultSheet = "Sheet1"

// WriteXLSX writes atoms as a single-sheet workbook. Numbers stay numeric
// cells; label columns follow the fields.
func WriteXLSX(path, sheet string, atoms []*domain.Atom) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	t := NewTable(atoms)
	if err := setRow(f, sheet, 1, t.Headers); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i := range t.Values {
		row := make([]any, 0, len(t.Headers))
		for _, v := range t.Values[i] {
			row = append(row, cellValue(v))
		}
		for _, l := range t.Labels[i] {
			row = append(row, l)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// cellValue keeps numbers and booleans typed; nil becomes an empty cell.
func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return nil
	case float64, int64, int, bool:
		return v
	default:
		return FormatValue(v)
	}
}
