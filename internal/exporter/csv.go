package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tsflow/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Debug("csv_write_start",
		slog.String("file", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// WriteAtoms writes atoms as a CSV table with label columns.
func (w *CSVWriter) WriteAtoms(path string, atoms []*domain.Atom) error {
	t := NewTable(atoms)
	return w.WriteCSV(path, WriteOptions{
		Headers:   t.Headers,
		Records:   t.Records(),
		BOMPrefix: true,
	})
}

// AppendAtoms appends atoms to a CSV file, projecting each row onto the
// file's header. Fields the header lacks are an error. A missing file is
// written with WriteAtoms.
func (w *CSVWriter) AppendAtoms(path string, atoms []*domain.Atom) error {
	headers, err := readHeader(path)
	if errors.Is(err, fs.ErrNotExist) {
		return w.WriteAtoms(path, atoms)
	}
	if err != nil {
		return err
	}

	column := make(map[string]int, len(headers))
	for i, h := range headers {
		column[h] = i
	}
	t := NewTable(atoms)
	src := t.Records()
	records := make([][]string, len(src))
	for r, rec := range src {
		row := make([]string, len(headers))
		for i, v := range rec {
			j, ok := column[t.Headers[i]]
			if !ok {
				if v == "" {
					continue
				}
				return fmt.Errorf("column %q not in %s", t.Headers[i], path)
			}
			row[j] = v
		}
		records[r] = row
	}

	return w.WriteCSV(path, WriteOptions{
		Records: records,
		Append:  true,
	})
}

func readHeader(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers, nil
}
