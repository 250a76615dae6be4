// Package exporter writes labeled atom queues out of the engine.
//
// CSV and XLSX exports lay atoms out as a table: one column per field, in
// first-seen order, followed by the ERROR, WARNING and UNKNOWN label columns.
// Several labels under one key are joined with "; ".
//
// The mebo format keeps only numeric fields, one metric per field, and can be
// read back with ReadArchive given the field names.
//
// Example usage:
//
//	exp, err := exporter.New("out", exporter.FormatCSV, logger)
//	if err != nil {
//		return err
//	}
//	path, err := exp.Export(result.AnalysisID, result.Output)
package exporter
