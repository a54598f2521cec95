package domain

import "time"

// LedgerClose is emitted each time the network validates a ledger.
type LedgerClose struct {
	Index     uint32
	Hash      string
	CloseTime time.Time
	TxnCount  int
}

// ConnectionState represents the state of a ledger connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)
