// Package dataprocessing loads time series files into atoms.
//
// CSV and XLSX files are read as a header row followed by data rows. Header
// names become field names, lower-cased and optionally renamed through
// aliases. Cells are typed on the way in: empty cells become nil, numbers
// become float64, and the datetime column is normalized to
// domain.TimestampLayout.
//
//	atoms, err := dataprocessing.LoadFile("prices.xlsx", dataprocessing.LoadOptions{
//	    Sheet:   "Daily",
//	    Aliases: map[string]string{"date": "datetime"},
//	})
//
// FileChecker verifies input files and output directories before a run and
// logs what it finds.
package dataprocessing
