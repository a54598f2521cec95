package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// Engine input validation
	CodeInvalidAmount:       "Amount must be a finite non-negative decimal",
	CodeInvalidCurrencyCode: "Malformed currency code",
	CodeInvalidInput:        "Invalid input provided",
	CodeInvalidAsset:        "Invalid asset identifier",
	CodeInvalidPair:         "Invalid trading pair",

	// Configuration
	CodeConfigInvalid: "Configuration error",

	// System errors
	CodeInternal: "Internal error",
	CodeUnknown:  "An unknown error occurred",

	// JSON-RPC
	CodeLedgerUnavailable:     "Ledger node unavailable",
	CodeLedgerRequestFailed:   "Ledger request failed",
	CodeLedgerResponseInvalid: "Ledger returned an invalid response",
	CodePoolNotFound:          "AMM pool not found",

	// Streaming
	CodeStreamDisconnected: "Ledger stream disconnected",
	CodeStreamSendFailed:   "Failed to send stream message",
	CodeStreamClosed:       "Ledger stream closed",

	// Protection
	CodeRateLimited: "Rate limit exceeded",
	CodeCircuitOpen: "Circuit breaker is open",
}
