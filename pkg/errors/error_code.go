package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidBars          ErrorCode = 120
	ErrCodeInvalidInterval      ErrorCode = 121

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeResultWriteFailed     ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeUnsupportedStrategy  ErrorCode = 403
	ErrCodeVersionMismatch      ErrorCode = 404
	ErrCodeSignalLengthMismatch ErrorCode = 405

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoStrategies  ErrorCode = 604
	ErrCodeBacktestNoResultsDir  ErrorCode = 607
	ErrCodeBacktestNoDatasource  ErrorCode = 608
	ErrCodeBacktestCancelled     ErrorCode = 609

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
