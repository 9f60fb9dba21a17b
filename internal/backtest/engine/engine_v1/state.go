package engine

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/backtest/engine"
	"github.com/rxtech-lab/barsim/internal/logger"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	BacktestFileName = "backtest.csv"
	TradesFileName   = "trades.csv"
	StatsFileName    = "stats.yaml"

	insertBatchSize = 1000
)

// BacktestState holds the account table and trade ledger of the current run in DuckDB
// so they can be queried and exported.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open state database", err)
	}

	return &BacktestState{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the tables for the account rows and the trades.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest (
			bar_index INTEGER,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			strategy_signal INTEGER,
			qty DOUBLE,
			balance DOUBLE,
			portfolio_value DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			bar_index INTEGER,
			time TIMESTAMP,
			action TEXT,
			quantity DOUBLE,
			price DOUBLE,
			commission DOUBLE,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades table", err)
	}

	return nil
}

// Record stores a simulation result. Values are rounded to precision when it is set.
func (b *BacktestState) Record(result engine.SimulationResult, precision optional.Option[int]) error {
	round := func(v float64) float64 {
		return roundValue(v, precision)
	}

	for start := 0; start < len(result.Rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(result.Rows))

		insert := b.sq.Insert("backtest").Columns(
			"bar_index", "time", "symbol", "open", "high", "low", "close", "volume",
			"strategy_signal", "qty", "balance", "portfolio_value",
		)

		for i, row := range result.Rows[start:end] {
			insert = insert.Values(
				start+i, row.Time, row.Symbol, row.Open, row.High, row.Low, row.Close, row.Volume,
				int(row.Signal), round(row.Quantity), round(row.Balance), round(row.PortfolioValue),
			)
		}

		if _, err := insert.RunWith(b.db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert backtest rows", err)
		}
	}

	for start := 0; start < len(result.Trades); start += insertBatchSize {
		end := min(start+insertBatchSize, len(result.Trades))

		insert := b.sq.Insert("trades").Columns(
			"bar_index", "time", "action", "quantity", "price", "commission", "reason",
		)

		for _, trade := range result.Trades[start:end] {
			insert = insert.Values(
				trade.Index, trade.Time, trade.Action.String(), round(trade.Quantity),
				round(trade.Price), round(trade.Commission), string(trade.Reason),
			)
		}

		if _, err := insert.RunWith(b.db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert trades", err)
		}
	}

	return nil
}

// GetAllTrades returns the recorded trades in execution order.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	rows, err := b.sq.
		Select("bar_index", "time", "action", "quantity", "price", "commission", "reason").
		From("trades").
		OrderBy("rowid ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade  types.Trade
			action string
			reason string
		)

		if err := rows.Scan(&trade.Index, &trade.Time, &action, &trade.Quantity, &trade.Price, &trade.Commission, &reason); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Time = trade.Time.UTC()
		trade.Reason = types.Reason(reason)

		trade.Action = types.ActionTypeSell
		if action == types.ActionTypeBuy.String() {
			trade.Action = types.ActionTypeBuy
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Cleanup resets the database state
func (b *BacktestState) Cleanup() error {
	// Squirrel doesn't have DROP syntax
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS backtest;
		DROP TABLE IF EXISTS trades;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to cleanup tables", err)
	}

	return b.Initialize()
}

// Write exports the account table and the trade ledger as CSV files into path and returns their locations.
func (b *BacktestState) Write(path string) (string, string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create result directory", err)
	}

	backtestPath := filepath.Join(path, BacktestFileName)
	tradesPath := filepath.Join(path, TradesFileName)

	// Squirrel doesn't support COPY
	_, err := b.db.Exec(fmt.Sprintf(
		`COPY (SELECT * EXCLUDE (bar_index) FROM backtest ORDER BY bar_index) TO '%s' (HEADER, DELIMITER ',')`,
		escapePath(backtestPath),
	))
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export backtest rows", err)
	}

	_, err = b.db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM trades ORDER BY rowid) TO '%s' (HEADER, DELIMITER ',')`,
		escapePath(tradesPath),
	))
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export trades", err)
	}

	b.logger.Debug("Exported backtest results",
		zap.String("backtest", backtestPath),
		zap.String("trades", tradesPath),
	)

	return backtestPath, tradesPath, nil
}

func (b *BacktestState) Close() error {
	return b.db.Close()
}

func roundValue(v float64, precision optional.Option[int]) float64 {
	if precision.IsNone() || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	return decimal.NewFromFloat(v).Round(int32(precision.Unwrap())).InexactFloat64()
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
