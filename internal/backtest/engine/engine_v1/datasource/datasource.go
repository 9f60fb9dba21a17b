package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/types"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

var AllIntervals = []any{
	Interval1m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval4h, Interval6h, Interval8h, Interval12h,
	Interval1d, Interval1w,
}

// SQLResult represents a row of data from a SQL query.
type SQLResult struct {
	Values map[string]any
}

// DataSource serves bars for one or more symbols. An empty symbol matches every symbol.
type DataSource interface {
	// Initialize points the data source at a Parquet or CSV file. Glob patterns are allowed.
	Initialize(path string) error
	// Symbols returns the distinct symbols in the data, sorted.
	Symbols() ([]string, error)
	// Count returns the number of bars within the optional time bounds.
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ReadAll yields the bars within the optional time bounds in time order.
	ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// GetRange returns the bars of a symbol between start and end, aggregated to interval when set.
	GetRange(symbol string, start time.Time, end time.Time, interval optional.Option[Interval]) ([]types.Bar, error)
	// ReadLastBar returns the most recent bar of a symbol.
	ReadLastBar(symbol string) (types.Bar, error)
	// ExecuteSQL executes a raw SQL query against the loaded data.
	ExecuteSQL(query string, params ...any) ([]SQLResult, error)
	// Close releases any resources.
	Close() error
}
