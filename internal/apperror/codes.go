package apperror

// Code identifies a class of failure.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Exchange connectivity
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	CodeExchangeConnectionFailed Code = "EXCHANGE_CONNECTION_FAILED"
	CodeExchangeAPIError         Code = "EXCHANGE_API_ERROR"
	CodeExchangeAuthFailed       Code = "EXCHANGE_AUTH_FAILED"
	CodeExchangeRateLimited      Code = "EXCHANGE_RATE_LIMITED"
	CodeExchangeUnsupported      Code = "EXCHANGE_UNSUPPORTED"
	CodeOrderbookFetchFailed     Code = "ORDERBOOK_FETCH_FAILED"
	CodeBalanceFetchFailed       Code = "BALANCE_FETCH_FAILED"
	CodeMarketsFetchFailed       Code = "MARKETS_FETCH_FAILED"
	CodeTickersFetchFailed       Code = "TICKERS_FETCH_FAILED"
	CodeUnknownSymbol            Code = "UNKNOWN_SYMBOL"
	CodeReferencePriceFailed     Code = "REFERENCE_PRICE_FAILED"
)

// Ranking, sizing and simulation
const (
	CodeInvalidCycle        Code = "INVALID_CYCLE"
	CodeInvalidEdge         Code = "INVALID_EDGE"
	CodeCycleNotEvaluable   Code = "CYCLE_NOT_EVALUABLE"
	CodeMissingBalance      Code = "MISSING_BALANCE"
	CodeMissingMarket       Code = "MISSING_MARKET"
	CodeMissingPrecision    Code = "MISSING_PRECISION"
	CodeMissingQuantity     Code = "MISSING_QUANTITY"
	CodeZeroTradeAmount     Code = "ZERO_TRADE_AMOUNT"
	CodeBelowMinTradeAmount Code = "BELOW_MIN_TRADE_AMOUNT"
	CodeScanFailed          Code = "SCAN_FAILED"
	CodeScanInProgress      Code = "SCAN_IN_PROGRESS"
)

// Execution
const (
	CodeOrderSubmitFailed   Code = "ORDER_SUBMIT_FAILED"
	CodeOrderQueryFailed    Code = "ORDER_QUERY_FAILED"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeOrderQueueFull      Code = "ORDER_QUEUE_FULL"

	CodeCacheMiss Code = "CACHE_MISS"

	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
