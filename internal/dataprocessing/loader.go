package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tsflow/pkg/contracts/domain"
)

// ErrNoHeader is returned for inputs without a header row.
var ErrNoHeader = errors.New("missing header row")

// timeLayouts are tried in order on the datetime column.
var timeLayouts = []string{
	domain.TimestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadOptions configures how rows become atoms.
type LoadOptions struct {
	// Sheet selects the XLSX sheet. Empty means the first sheet.
	Sheet string
	// Aliases renames lower-cased header names.
	Aliases map[string]string
	// TimeKey names the column normalized to domain.TimestampLayout.
	// Defaults to "datetime".
	TimeKey string
	Logger  *slog.Logger
}

func (o LoadOptions) timeKey() string {
	if o.TimeKey == "" {
		return domain.FieldDatetime
	}
	return o.TimeKey
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// LoadFile reads a CSV or XLSX file, chosen by extension.
func LoadFile(path string, opts LoadOptions) ([]*domain.Atom, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		atoms, err := ReadCSV(f, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logLoaded(opts.logger(), path, "", len(atoms))
		return atoms, nil
	case ExtXLSX:
		return ReadXLSX(path, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads a header row and data rows from r.
func ReadCSV(r io.Reader, opts LoadOptions) ([]*domain.Atom, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rowsToAtoms(rows, opts, false)
}

// ReadXLSX reads the selected sheet of an Excel workbook. Date cells are
// read as serial numbers and converted on the datetime column.
func ReadXLSX(path string, opts LoadOptions) ([]*domain.Atom, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: sheet %q not found", path, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q: %w", path, sheet, err)
	}
	atoms, err := rowsToAtoms(rows, opts, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logLoaded(opts.logger(), path, sheet, len(atoms))
	return atoms, nil
}

func rowsToAtoms(rows [][]string, opts LoadOptions, serialDates bool) ([]*domain.Atom, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	header, err := headerKeys(rows[0], opts.Aliases)
	if err != nil {
		return nil, err
	}

	timeKey := opts.timeKey()
	atoms := make([]*domain.Atom, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if blank(row) {
			continue
		}
		a := domain.NewAtom()
		for i, key := range header {
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if key != timeKey {
				a.Set(key, ParseCell(cell))
				continue
			}
			ts, err := parseTimestamp(cell, serialDates)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
			a.Set(key, ts)
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func headerKeys(row []string, aliases map[string]string) ([]string, error) {
	if blank(row) {
		return nil, ErrNoHeader
	}
	keys := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
		}
		if alias, ok := aliases[key]; ok {
			key = alias
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate column %q", key)
		}
		seen[key] = true
		keys[i] = key
	}
	return keys, nil
}

// ParseCell types a raw cell: empty is nil, numbers are float64, anything
// else stays a string.
func ParseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64); err == nil {
		return f
	}
	return cell
}

func parseTimestamp(cell string, serialDates bool) (any, error) {
	if cell == "" {
		return nil, nil
	}
	if serialDates {
		if serial, err := strconv.ParseFloat(cell, 64); err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return nil, fmt.Errorf("invalid date serial %q: %w", cell, err)
			}
			return domain.FormatTime(t), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return domain.FormatTime(t), nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", cell)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func logLoaded(logger *slog.Logger, path, sheet string, atoms int) {
	logger.Info("input_loaded",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("atoms", atoms))
}
