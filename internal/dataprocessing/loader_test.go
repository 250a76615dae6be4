package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tsflow/internal/shared/testutil"
	"tsflow/pkg/contracts/domain"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		cell string
		want any
	}{
		{cell: "", want: nil},
		{cell: "12.5", want: 12.5},
		{cell: "-3", want: -3.0},
		{cell: "1,234.5", want: 1234.5},
		{cell: "ACME", want: "ACME"},
		{cell: "a,b", want: "a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCell(tt.cell))
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffDate,Open,Close,Ticker\n" +
		"2024-01-15,10,11.5,ACME\n" +
		",,,\n" +
		"2024-01-16 09:30:00,11.5,,ACME\n" +
		"2024-01-17T10:00:00Z,12\n"

	atoms, err := ReadCSV(strings.NewReader(input), LoadOptions{Aliases: map[string]string{"date": "datetime"}})
	require.NoError(t, err)
	require.Len(t, atoms, 3, "blank rows are skipped")

	assert.Equal(t, []string{"datetime", "open", "close", "ticker"}, atoms[0].Keys())

	ts, _ := atoms[0].String(domain.FieldDatetime)
	assert.Equal(t, "2024-01-15 00:00:00.000", ts)
	ts, _ = atoms[1].String(domain.FieldDatetime)
	assert.Equal(t, "2024-01-16 09:30:00.000", ts)
	ts, _ = atoms[2].String(domain.FieldDatetime)
	assert.Equal(t, "2024-01-17 10:00:00.000", ts)

	assert.Equal(t, []float64{11.5, 0, 0}, testutil.Floats(atoms, domain.FieldClose))
	v, ok := atoms[1].Get(domain.FieldClose)
	assert.True(t, ok)
	assert.Nil(t, v, "empty cells are nil")
	v, _ = atoms[2].Get("ticker")
	assert.Nil(t, v, "short rows are padded with nil")
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "blank header", input: ",,\n1,2,3\n"},
		{name: "duplicate column", input: "close,Close\n1,2\n"},
		{name: "bad timestamp", input: "datetime,close\nyesterday,1\n"},
		{name: "unbalanced quote", input: "close\n\"1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), LoadOptions{})
			assert.Error(t, err)
		})
	}
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, "Daily", [][]any{
		{"Datetime", "Close", "Volume"},
		{"2024-01-15 09:00:00.000", 10.5, 100},
		{45307, 11, nil},
	})

	t.Run("named sheet", func(t *testing.T) {
		atoms, err := ReadXLSX(path, LoadOptions{Sheet: "Daily"})
		require.NoError(t, err)
		require.Len(t, atoms, 2)

		ts, _ := atoms[0].String(domain.FieldDatetime)
		assert.Equal(t, "2024-01-15 09:00:00.000", ts)
		ts, _ = atoms[1].String(domain.FieldDatetime)
		assert.Equal(t, "2024-01-16 00:00:00.000", ts, "serial dates are converted")

		assert.Equal(t, []float64{10.5, 11}, testutil.Floats(atoms, domain.FieldClose))
		v, _ := atoms[1].Get(domain.FieldVolume)
		assert.Nil(t, v)
	})

	t.Run("first sheet is empty by default", func(t *testing.T) {
		_, err := ReadXLSX(path, LoadOptions{})
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := ReadXLSX(path, LoadOptions{Sheet: "Weekly"})
		assert.ErrorContains(t, err, `sheet "Weekly" not found`)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("datetime,close\n2024-01-15,1\n"), 0o644))

	logger, logs := testutil.NewTestLogger(t)
	atoms, err := LoadFile(csvPath, LoadOptions{Logger: logger})
	require.NoError(t, err)
	assert.Len(t, atoms, 1)
	require.Len(t, logs.FindRecords("input_loaded"), 1)

	xlsxPath := writeWorkbook(t, "Sheet1", [][]any{{"close"}, {2.5}})
	atoms, err = LoadFile(xlsxPath, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, testutil.Floats(atoms, domain.FieldClose))

	_, err = LoadFile(filepath.Join(dir, "prices.json"), LoadOptions{})
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = LoadFile(filepath.Join(dir, "absent.csv"), LoadOptions{})
	assert.Error(t, err)
}
