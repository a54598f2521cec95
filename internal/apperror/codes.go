package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// Engine input validation
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInvalidCurrencyCode Code = "INVALID_CURRENCY_CODE"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidAsset        Code = "INVALID_ASSET"
	CodeInvalidPair         Code = "INVALID_PAIR"

	// Configuration
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// System errors
	CodeInternal Code = "INTERNAL_ERROR"
	CodeUnknown  Code = "UNKNOWN_ERROR"
)

// Ledger-specific error codes
const (
	// JSON-RPC
	CodeLedgerUnavailable     Code = "LEDGER_CONNECTION_UNAVAILABLE"
	CodeLedgerRequestFailed   Code = "LEDGER_REQUEST_FAILED"
	CodeLedgerResponseInvalid Code = "LEDGER_RESPONSE_INVALID"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"

	// Streaming
	CodeStreamDisconnected Code = "STREAM_CONNECTION_LOST"
	CodeStreamSendFailed   Code = "STREAM_SEND_FAILED"
	CodeStreamClosed       Code = "STREAM_CLOSED"

	// Protection
	CodeRateLimited Code = "RATE_LIMITED"
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
