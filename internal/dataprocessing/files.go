package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Supported input extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// FileChecker provides the file checks run before loading and exporting.
type FileChecker struct {
	logger *slog.Logger
}

// NewFileChecker creates a new file checker
func NewFileChecker(logger *slog.Logger) *FileChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileChecker{logger: logger}
}

// CheckFile checks that path exists, is a regular file and is readable.
func (c *FileChecker) CheckFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		c.logger.Error("input_file_missing", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		c.logger.Error("input_file_stat_failed",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		c.logger.Error("input_file_is_directory", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		c.logger.Error("input_file_unreadable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	c.logger.Debug("input_file_checked",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CheckInputFile checks a file and its extension against the loaders.
// Office lock files ("~$name.xlsx") are rejected.
func (c *FileChecker) CheckInputFile(path string) error {
	if err := c.CheckFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExtCSV && ext != ExtXLSX {
		c.logger.Error("input_file_unsupported",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s has unsupported extension %q", path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		c.logger.Warn("input_file_temporary", slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}
	return nil
}

// CheckOutputDir ensures dir exists or can be created, and is writable.
func (c *FileChecker) CheckOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.logger.Error("output_dir_create_failed",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		c.logger.Error("output_dir_not_writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	c.logger.Debug("output_dir_checked", slog.String("directory", dir))
	return nil
}
