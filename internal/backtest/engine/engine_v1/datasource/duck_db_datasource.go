package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"go.uber.org/zap"
)

var barColumns = []string{"time", "symbol", "open", "high", "low", "close", "volume"}

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a DuckDB data source backed by the database at path.
// An empty path keeps the database in memory. Bars are loaded separately by Initialize.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='4GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to set DuckDB options: %w", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
// Columns are cast to their bar types so CSV files with inferred types read the same as Parquet.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT
			CAST(time AS TIMESTAMP) AS time,
			CAST(symbol AS VARCHAR) AS symbol,
			CAST(open AS DOUBLE) AS open,
			CAST(high AS DOUBLE) AS high,
			CAST(low AS DOUBLE) AS low,
			CAST(close AS DOUBLE) AS close,
			CAST(volume AS DOUBLE) AS volume
		FROM %s;
	`, readFunction(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load market data from %s", path)
	}

	return nil
}

func (d *DuckDBDataSource) filter(q squirrel.SelectBuilder, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if symbol != "" {
		q = q.Where(squirrel.Eq{"symbol": symbol})
	}

	if start.IsSome() {
		q = q.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		q = q.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return q
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := d.sq.Select("DISTINCT symbol").From("market_data").OrderBy("symbol ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return symbols, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.filter(d.sq.Select("COUNT(*)").From("market_data"), symbol, start, end).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		d.logger.Debug("Reading bars from DuckDB", zap.String("symbol", symbol))

		query, args, err := d.filter(d.sq.Select(barColumns...).From("market_data"), symbol, start, end).
			OrderBy("time ASC").
			ToSql()
		if err != nil {
			yield(types.Bar{}, fmt.Errorf("failed to build query: %w", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := scanBar(rows)
			if err != nil {
				yield(types.Bar{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, fmt.Errorf("error iterating rows: %w", err))
		}
	}
}

// GetRange implements DataSource.
// With an interval, bars are aggregated into time buckets: first open, highest high, lowest low,
// last close and summed volume.
func (d *DuckDBDataSource) GetRange(symbol string, start time.Time, end time.Time, interval optional.Option[Interval]) ([]types.Bar, error) {
	q := d.sq.Select(barColumns...).From("market_data")

	if interval.IsSome() {
		minutes, err := getIntervalMinutes(interval.Unwrap())
		if err != nil {
			return nil, err
		}

		q = d.sq.Select(
			fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time) AS bucket_time", minutes),
			"symbol",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).From("market_data").GroupBy("bucket_time", "symbol")
	}

	q = d.filter(q, symbol, optional.Some(start), optional.Some(end))

	if interval.IsSome() {
		q = q.OrderBy("bucket_time ASC")
	} else {
		q = q.OrderBy("time ASC")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	result := make([]types.Bar, 0, 1000)

	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// ReadLastBar implements DataSource.
func (d *DuckDBDataSource) ReadLastBar(symbol string) (types.Bar, error) {
	query, args, err := d.sq.Select(barColumns...).
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.Bar{}, fmt.Errorf("failed to build query: %w", err)
	}

	bar, err := scanBar(d.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Bar{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol: %s", symbol)
	}

	return bar, err
}

// ExecuteSQL implements DataSource.
func (d *DuckDBDataSource) ExecuteSQL(query string, params ...any) ([]SQLResult, error) {
	d.logger.Debug("Executing SQL query", zap.String("query", query))

	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []SQLResult

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}

		result = append(result, SQLResult{Values: rowMap})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBar(row rowScanner) (types.Bar, error) {
	var bar types.Bar

	err := row.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Bar{}, err
		}

		return types.Bar{}, fmt.Errorf("failed to scan row: %w", err)
	}

	bar.Time = bar.Time.UTC()

	return bar, nil
}
