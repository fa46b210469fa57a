// Package export turns activation data into analysis-friendly outputs:
// CSV tables for R/pandas and content fingerprints for reproducibility notes.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/Lesliefans0-0/dnnbrain/pkg/activation"
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV (comma-separated, quoted strings).
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect `yaml:"dialect"`

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool `yaml:"include_header"`

	// Precision is the number of significant digits for floating-point values.
	// -1 writes the shortest representation that reads back exactly.
	// Default: -1
	Precision int `yaml:"precision"`

	// NAString is the representation for NaN values.
	// Default: "NA" (compatible with R and Python pandas)
	NAString string `yaml:"na_string"`
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     -1,
		NAString:      "NA",
	}
}

// LayerCSVWriter writes one layer's activation as a 2-D table. The first
// array axis becomes rows (one per stimulus); the remaining axes are
// flattened row-major into columns.
type LayerCSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	rowsWritten int
}

// NewLayerCSVWriter creates a LayerCSVWriter that writes to w.
// If config is nil, DefaultCSVConfig() is used.
func NewLayerCSVWriter(w io.Writer, config *CSVConfig) *LayerCSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}

	return &LayerCSVWriter{
		config: config,
		writer: csvWriter,
	}
}

// Write writes the layer as rows. name prefixes the column headers.
func (lw *LayerCSVWriter) Write(name string, layer activation.Layer) error {
	values := layer.Data.Float64s()
	if values == nil {
		return dnnerrors.ActUnsupportedDType(name, layer.Data.Values)
	}
	rows, cols := tableShape(layer.Data.Shape, len(values))
	if rows*cols != len(values) {
		return dnnerrors.Newf(dnnerrors.ErrActShapeMismatch,
			"layer %q: shape %v does not hold %d values", name, layer.Data.Shape, len(values)).
			WithContext("layer", name)
	}

	if lw.config.IncludeHeader {
		header := make([]string, cols+1)
		header[0] = "row"
		for j := 0; j < cols; j++ {
			header[j+1] = name + "_" + strconv.Itoa(j+1)
		}
		if err := lw.writer.Write(header); err != nil {
			return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to write CSV header")
		}
	}

	record := make([]string, cols+1)
	for i := 0; i < rows; i++ {
		record[0] = strconv.Itoa(i + 1)
		for j := 0; j < cols; j++ {
			record[j+1] = lw.formatFloat(values[i*cols+j])
		}
		if err := lw.writer.Write(record); err != nil {
			return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to write CSV row %d", i+1)
		}
		lw.rowsWritten++
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (lw *LayerCSVWriter) Flush() error {
	lw.writer.Flush()
	if err := lw.writer.Error(); err != nil {
		return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to flush CSV writer")
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding header).
func (lw *LayerCSVWriter) RowsWritten() int {
	return lw.rowsWritten
}

func (lw *LayerCSVWriter) formatFloat(f float64) string {
	if math.IsNaN(f) {
		return lw.config.NAString
	}
	return strconv.FormatFloat(f, 'g', lw.config.Precision, 64)
}

// tableShape maps an n-d shape onto rows and columns.
func tableShape(shape []int, n int) (rows, cols int) {
	if len(shape) == 0 || shape[0] == 0 {
		return 0, 0
	}
	if len(shape) == 1 {
		return shape[0], 1
	}
	return shape[0], n / shape[0]
}

// WriteLayerCSV is a convenience function to export one layer to CSV.
// If config is nil, DefaultCSVConfig() is used.
func WriteLayerCSV(w io.Writer, name string, layer activation.Layer, config *CSVConfig) error {
	writer := NewLayerCSVWriter(w, config)
	if err := writer.Write(name, layer); err != nil {
		return err
	}
	return writer.Flush()
}
