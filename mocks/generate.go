package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/barsim/internal/strategy Strategy
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/barsim/pkg/marketdata/provider Provider
