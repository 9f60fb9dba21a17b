package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/barsim/internal/strategy"
)

// inMemoryDataName names the data folder of runs over a data source that was not loaded from a file.
const inMemoryDataName = "memory"

func getResultFolder(dataPath string, symbol string, b *BacktestEngineV1, strategy strategy.Strategy) string {
	strategyFolder := filepath.Join(b.resultsFolder, strategy.Name())

	// Create data folder with time range if specified
	var dataFolder string

	if b.config.StartTime.IsSome() || b.config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if b.config.StartTime.IsSome() {
			startTimeStr = b.config.StartTime.Unwrap().Format("20060102")
		}

		if b.config.EndTime.IsSome() {
			endTimeStr = b.config.EndTime.Unwrap().Format("20060102")
		}

		timeRange := fmt.Sprintf("%s_%s", startTimeStr, endTimeStr)
		dataFolder = filepath.Join(strategyFolder, timeRange)
	} else {
		dataFolder = strategyFolder
	}

	dataFileName := inMemoryDataName
	if dataPath != "" {
		dataFileName = strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	}

	if symbol == "" {
		return filepath.Join(dataFolder, dataFileName)
	}

	return filepath.Join(dataFolder, dataFileName, sanitizeSymbol(symbol))
}

// sanitizeSymbol makes a symbol safe to use as a folder name, e.g. X:BTCUSD becomes X_BTCUSD.
func sanitizeSymbol(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}

		return r
	}, symbol)
}
