package apperror

var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	CodeExchangeConnectionFailed: "Failed to reach exchange",
	CodeExchangeAPIError:         "Exchange API error",
	CodeExchangeAuthFailed:       "Exchange rejected credentials",
	CodeExchangeRateLimited:      "Exchange rate limit exceeded",
	CodeExchangeUnsupported:      "No connector for exchange",
	CodeOrderbookFetchFailed:     "Failed to fetch order book",
	CodeBalanceFetchFailed:       "Failed to fetch balance",
	CodeMarketsFetchFailed:       "Failed to load market metadata",
	CodeTickersFetchFailed:       "Failed to fetch tickers",
	CodeUnknownSymbol:            "Unknown exchange symbol",
	CodeReferencePriceFailed:     "Reference price lookup failed",

	CodeInvalidCycle:        "Edges do not form a closed cycle",
	CodeInvalidEdge:         "Invalid edge",
	CodeCycleNotEvaluable:   "Order book is missing a required level",
	CodeMissingBalance:      "No balance for asset",
	CodeMissingMarket:       "No market metadata for pair",
	CodeMissingPrecision:    "Market precision is unknown",
	CodeMissingQuantity:     "Edge quantity is not set",
	CodeZeroTradeAmount:     "Trade amount rounds to zero",
	CodeBelowMinTradeAmount: "Trade amount below exchange minimum",
	CodeScanFailed:          "Scan failed",
	CodeScanInProgress:      "Scan already in progress",

	CodeOrderSubmitFailed:   "Failed to submit order",
	CodeOrderQueryFailed:    "Failed to query order",
	CodeInsufficientBalance: "Insufficient balance for order",
	CodeOrderQueueFull:      "Order queue is full",

	CodeCacheMiss: "Cache miss",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
