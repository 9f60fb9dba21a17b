package writer

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/barsim/internal/types"
)

// Format is the file format a writer exports to.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// FormatFromPath picks the export format from the file extension. Anything but .csv is Parquet.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}

	return FormatParquet
}

// MarketDataWriter defines the interface for writing bars to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
