package datasource

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/barsim/pkg/errors"
)

func getIntervalMinutes(interval Interval) (int, error) {
	switch interval {
	case Interval1m:
		return 1, nil
	case Interval5m:
		return 5, nil
	case Interval15m:
		return 15, nil
	case Interval30m:
		return 30, nil
	case Interval1h:
		return 60, nil
	case Interval4h:
		return 240, nil
	case Interval6h:
		return 360, nil
	case Interval8h:
		return 480, nil
	case Interval12h:
		return 720, nil
	case Interval1d:
		return 1440, nil
	case Interval1w:
		return 10080, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}
}

// readFunction returns the DuckDB table function that reads path, chosen by extension.
func readFunction(path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Sprintf("read_csv(%s, header = true, auto_detect = true)", quoted)
	}

	return fmt.Sprintf("read_parquet(%s)", quoted)
}
