package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"tsflow/pkg/contracts/domain"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatMebo = "mebo"
)

// Exporter writes atom queues to a directory in one format.
type Exporter struct {
	dir    string
	format string
	logger *slog.Logger
	csv    *CSVWriter
}

// New creates an exporter writing into dir.
func New(dir, format string, logger *slog.Logger) (*Exporter, error) {
	switch format {
	case FormatCSV, FormatXLSX, FormatMebo:
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, format: format, logger: logger, csv: NewCSVWriter(logger)}, nil
}

// Path returns the file Export writes for name.
func (e *Exporter) Path(name string) string {
	return filepath.Join(e.dir, name+"."+e.format)
}

// Export writes atoms to the file named after name and returns its path.
func (e *Exporter) Export(name string, atoms []*domain.Atom) (string, error) {
	path := e.Path(name)

	var err error
	switch e.format {
	case FormatCSV:
		err = e.csv.WriteAtoms(path, atoms)
	case FormatXLSX:
		err = WriteXLSX(path, name, atoms)
	case FormatMebo:
		err = WriteArchive(path, atoms)
	}
	if err != nil {
		e.logger.Error("export_failed",
			slog.String("file", path),
			slog.String("format", e.format),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("export %s: %w", name, err)
	}

	e.logger.Info("export_complete",
		slog.String("file", path),
		slog.String("format", e.format),
		slog.Int("atoms", len(atoms)))
	return path, nil
}
