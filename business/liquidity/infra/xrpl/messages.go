package xrpl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
)

// rippleEpoch is 2000-01-01T00:00:00Z, the zero of ledger timestamps.
const rippleEpoch = 946684800

// errActNotFound is what amm_info answers for a pair without a pool.
const errActNotFound = "actNotFound"

// rpcRequest is a JSON-RPC call in rippled's envelope.
type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// rpcEnvelope is rippled's JSON-RPC response. Failures arrive with HTTP 200
// and status "error" inside the result.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// RPCError is an error reported by the server for a well-formed request.
type RPCError struct {
	Method  string
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Method, e.Code, e.Message)
}

// currencySpec identifies an asset in requests.
type currencySpec struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

func specOf(a asset.Asset) currencySpec {
	if a.IsNative() {
		return currencySpec{Currency: asset.NativeCode}
	}
	return currencySpec{Currency: a.WireCurrency(), Issuer: a.Issuer}
}

// ledgerSelector is either a ledger shortcut ("validated", "current",
// "closed") or a sequence number.
type ledgerSelector any

func parseLedgerSelector(s string) ledgerSelector {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n)
	}
	if s == "" {
		return "validated"
	}
	return s
}

type bookOffersParams struct {
	TakerGets   currencySpec   `json:"taker_gets"`
	TakerPays   currencySpec   `json:"taker_pays"`
	Limit       int            `json:"limit,omitempty"`
	LedgerIndex ledgerSelector `json:"ledger_index,omitempty"`
}

type bookOffersResult struct {
	LedgerIndex        uint32      `json:"ledger_index"`
	LedgerCurrentIndex uint32      `json:"ledger_current_index"`
	Validated          bool        `json:"validated"`
	Offers             []wireOffer `json:"offers"`
}

func (r bookOffersResult) ledger() uint32 {
	return max(r.LedgerIndex, r.LedgerCurrentIndex)
}

// wireOffer is one Offer ledger entry as returned by book_offers. The funded
// fields are present when the owner cannot cover the full offer.
type wireOffer struct {
	Account         string          `json:"Account"`
	Sequence        uint32          `json:"Sequence"`
	TakerGets       json.RawMessage `json:"TakerGets"`
	TakerPays       json.RawMessage `json:"TakerPays"`
	TakerGetsFunded json.RawMessage `json:"taker_gets_funded,omitempty"`
	TakerPaysFunded json.RawMessage `json:"taker_pays_funded,omitempty"`
	Quality         string          `json:"quality"`
}

// amounts returns what the offer can actually deliver and its matching cost.
func (o wireOffer) amounts() (gets, pays asset.CurrencyAmount, err error) {
	getsRaw, paysRaw := o.TakerGets, o.TakerPays
	if len(o.TakerGetsFunded) > 0 && len(o.TakerPaysFunded) > 0 {
		getsRaw, paysRaw = o.TakerGetsFunded, o.TakerPaysFunded
	}

	if gets, err = parseAmount(getsRaw); err != nil {
		return gets, pays, err
	}
	pays, err = parseAmount(paysRaw)
	return gets, pays, err
}

type ammInfoParams struct {
	Asset       currencySpec   `json:"asset"`
	Asset2      currencySpec   `json:"asset2"`
	LedgerIndex ledgerSelector `json:"ledger_index,omitempty"`
}

type ammInfoResult struct {
	AMM struct {
		Account    string          `json:"account"`
		Amount     json.RawMessage `json:"amount"`
		Amount2    json.RawMessage `json:"amount2"`
		TradingFee uint32          `json:"trading_fee"`
	} `json:"amm"`
	LedgerIndex uint32 `json:"ledger_index"`
}

// wireIssued is an issued currency amount.
type wireIssued struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// parseAmount decodes a ledger amount: a JSON string is native drops, an
// object is an issued amount with a possibly hex-encoded currency.
func parseAmount(raw json.RawMessage) (asset.CurrencyAmount, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return asset.CurrencyAmount{}, invalidResponse("missing amount", nil)
	}

	if raw[0] == '"' {
		var drops string
		if err := json.Unmarshal(raw, &drops); err != nil {
			return asset.CurrencyAmount{}, invalidResponse("native amount", err)
		}
		return asset.NativeFromDrops(drops)
	}

	var issued wireIssued
	if err := json.Unmarshal(raw, &issued); err != nil {
		return asset.CurrencyAmount{}, invalidResponse("issued amount", err)
	}
	code, err := asset.DecodeCurrency(issued.Currency)
	if err != nil {
		return asset.CurrencyAmount{}, err
	}
	return asset.ParseIssued(code, issued.Issuer, issued.Value)
}

func invalidResponse(context string, cause error) error {
	opts := []apperror.Option{apperror.WithContext(context)}
	if cause != nil {
		opts = append(opts, apperror.WithCause(cause))
	}
	return apperror.New(apperror.CodeLedgerResponseInvalid, opts...)
}

// subscribeRequest is a WebSocket subscribe command.
type subscribeRequest struct {
	ID      uint64   `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// streamMessage holds the fields of every message the ledger stream can
// deliver: the subscribe response and ledgerClosed events.
type streamMessage struct {
	Type        string          `json:"type"`
	Status      string          `json:"status,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	LedgerIndex uint32          `json:"ledger_index"`
	LedgerHash  string          `json:"ledger_hash"`
	LedgerTime  int64           `json:"ledger_time"`
	TxnCount    int             `json:"txn_count"`
}

// ledgerTime converts seconds since the ripple epoch to UTC.
func ledgerTime(seconds int64) time.Time {
	return time.Unix(seconds+rippleEpoch, 0).UTC()
}
