package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tsflow/internal/shared/testutil"
	"tsflow/internal/validation"
	"tsflow/pkg/contracts/domain"
)

func labeledAtoms() []*domain.Atom {
	atoms := []*domain.Atom{
		domain.NewAtom(domain.FieldDatetime, "2024-01-15 09:00:00.000", domain.FieldClose, 10.5, "ticker", "ACME"),
		domain.NewAtom(domain.FieldDatetime, "2024-01-15 09:01:00.000", domain.FieldClose, nil, domain.FieldVolume, int64(300)),
	}
	atoms[1].AddLabel(validation.LabelError, "close is null")
	atoms[1].AddLabel(validation.LabelError, "volume spike")
	atoms[1].AddLabel(validation.LabelWarning, "gap")
	return atoms
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "float", value: 13.4, want: "13.4"},
		{name: "whole float", value: 2.0, want: "2"},
		{name: "int64", value: int64(-7), want: "-7"},
		{name: "bool", value: true, want: "true"},
		{name: "string", value: "ACME", want: "ACME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}

func TestNewTable(t *testing.T) {
	table := NewTable(labeledAtoms())

	assert.Equal(t,
		[]string{"datetime", "close", "ticker", "volume", "ERROR", "WARNING", "UNKNOWN"},
		table.Headers)
	assert.Equal(t, [][]string{
		{"2024-01-15 09:00:00.000", "10.5", "ACME", "", "", "", ""},
		{"2024-01-15 09:01:00.000", "", "", "300", "close is null; volume spike", "gap", ""},
	}, table.Records())
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteAtoms(path, labeledAtoms()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "\ufeff"), "BOM prefix")

	require.NoError(t, w.AppendAtoms(path, labeledAtoms()[:1]))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "\ufeffdatetime", rows[0][0])
	assert.Equal(t, "close is null; volume spike", rows[2][4])
	assert.Equal(t, []string{"2024-01-15 09:00:00.000", "10.5", "ACME", "", "", "", ""}, rows[3],
		"appended rows follow the file's header")
}

func TestCSVWriterAppend(t *testing.T) {
	w := NewCSVWriter(nil)

	t.Run("fewer fields than the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, w.WriteAtoms(path, labeledAtoms()))

		extra := domain.NewAtom(domain.FieldVolume, int64(7))
		extra.AddLabel(validation.LabelWarning, "late")
		require.NoError(t, w.AppendAtoms(path, []*domain.Atom{extra}))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"", "", "", "7", "", "late", ""}, rows[3])
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, w.WriteAtoms(path, labeledAtoms()))
		err := w.AppendAtoms(path, []*domain.Atom{domain.NewAtom("open", 1.0)})
		assert.ErrorContains(t, err, `column "open"`)
	})

	t.Run("missing file is created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.csv")
		require.NoError(t, w.AppendAtoms(path, labeledAtoms()[:1]))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(raw), "\ufeffdatetime,close,ticker,ERROR"))
	})
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, "nulls", labeledAtoms()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"nulls"}, f.GetSheetList())
	rows, err := f.GetRows("nulls")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "WARNING", rows[0][5])
	assert.Equal(t, "10.5", rows[1][1])
	assert.Equal(t, "gap", rows[2][5])

	typ, err := f.GetCellType("nulls", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numbers stay numeric")
}

func TestArchive(t *testing.T) {
	atoms := testutil.CloseSeries(testutil.Epoch, time.Minute, 10, 11.25, 9.5)
	atoms[1].Set("ticker", "ACME")
	atoms[2].Set(domain.FieldVolume, int64(42))

	path := filepath.Join(t.TempDir(), "out.mebo")
	require.NoError(t, WriteArchive(path, atoms))

	back, err := ReadArchive(path, domain.FieldClose, domain.FieldVolume, "ticker", "missing")
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, []float64{10, 11.25, 9.5}, testutil.Floats(back, domain.FieldClose))

	for i := range atoms {
		want, _ := atoms[i].String(domain.FieldDatetime)
		got, _ := back[i].String(domain.FieldDatetime)
		assert.Equal(t, want, got)
	}
	assert.False(t, back[1].Has("ticker"), "strings are not archived")
	assert.False(t, back[0].Has(domain.FieldVolume))
	v, _ := back[2].Float(domain.FieldVolume)
	assert.Equal(t, 42.0, v)
}

func TestArchiveErrors(t *testing.T) {
	_, err := EncodeArchive([]*domain.Atom{domain.NewAtom(domain.FieldDatetime, "2024-01-15 09:00:00.000", "ticker", "ACME")}, "")
	assert.ErrorIs(t, err, ErrEmptyArchive)

	_, err = EncodeArchive([]*domain.Atom{domain.NewAtom(domain.FieldClose, 1.0)}, "")
	assert.ErrorContains(t, err, "atom 0")

	_, err = DecodeArchive([]byte("not a blob"), "", domain.FieldClose)
	assert.Error(t, err)
}

func TestExporter(t *testing.T) {
	_, err := New(t.TempDir(), "json", nil)
	assert.ErrorContains(t, err, "unsupported export format")

	for _, format := range []string{FormatCSV, FormatXLSX, FormatMebo} {
		t.Run(format, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			dir := t.TempDir()
			exp, err := New(dir, format, logger)
			require.NoError(t, err)

			path, err := exp.Export("nulls", testutil.CloseSeries(testutil.Epoch, time.Minute, 1, 2))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "nulls."+format), path)
			assert.FileExists(t, path)
			assert.Len(t, logs.FindRecords("export_complete"), 1)
		})
	}

	t.Run("failure is logged", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		exp, err := New(t.TempDir(), FormatMebo, logger)
		require.NoError(t, err)
		_, err = exp.Export("empty", nil)
		assert.ErrorIs(t, err, ErrEmptyArchive)
		assert.Len(t, logs.FindRecords("export_failed"), 1)
	})
}
