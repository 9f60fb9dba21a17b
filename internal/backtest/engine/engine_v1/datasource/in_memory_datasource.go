package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/internal/types"
	"github.com/rxtech-lab/barsim/pkg/errors"
)

// InMemoryDataSource serves bars held in memory, such as generated data.
// It does not read files and does not support SQL.
type InMemoryDataSource struct {
	mu   sync.RWMutex
	bars []types.Bar
}

// NewInMemoryDataSource copies bars and sorts them by time.
func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	sorted := append([]types.Bar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &InMemoryDataSource{bars: sorted}
}

// Initialize implements DataSource. The path is ignored.
func (m *InMemoryDataSource) Initialize(_ string) error {
	return nil
}

func inRange(bar types.Bar, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if symbol != "" && bar.Symbol != symbol {
		return false
	}

	if start.IsSome() && bar.Time.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && bar.Time.After(end.Unwrap()) {
		return false
	}

	return true
}

// Symbols implements DataSource.
func (m *InMemoryDataSource) Symbols() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})

	var symbols []string

	for _, bar := range m.bars {
		if _, ok := seen[bar.Symbol]; ok {
			continue
		}

		seen[bar.Symbol] = struct{}{}
		symbols = append(symbols, bar.Symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Count implements DataSource.
func (m *InMemoryDataSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0

	for _, bar := range m.bars {
		if inRange(bar, symbol, start, end) {
			count++
		}
	}

	return count, nil
}

// ReadAll implements DataSource.
func (m *InMemoryDataSource) ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for _, bar := range m.bars {
			if !inRange(bar, symbol, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// GetRange implements DataSource. Aggregation is not supported in memory.
func (m *InMemoryDataSource) GetRange(symbol string, start time.Time, end time.Time, interval optional.Option[Interval]) ([]types.Bar, error) {
	if interval.IsSome() {
		return nil, errors.New(errors.ErrCodeInvalidInterval, "in-memory data source cannot aggregate bars")
	}

	var result []types.Bar

	for bar, err := range m.ReadAll(symbol, optional.Some(start), optional.Some(end)) {
		if err != nil {
			return nil, err
		}

		result = append(result, bar)
	}

	return result, nil
}

// ReadLastBar implements DataSource.
func (m *InMemoryDataSource) ReadLastBar(symbol string) (types.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.bars) - 1; i >= 0; i-- {
		if m.bars[i].Symbol == symbol {
			return m.bars[i], nil
		}
	}

	return types.Bar{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol: %s", symbol)
}

// ExecuteSQL implements DataSource.
func (m *InMemoryDataSource) ExecuteSQL(_ string, _ ...any) ([]SQLResult, error) {
	return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "in-memory data source does not support SQL")
}

// Close implements DataSource.
func (m *InMemoryDataSource) Close() error {
	return nil
}
