package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the scale between drops and whole XRP.
const NativeDecimals = 6

// Common errors
var (
	ErrNegativeAmount   = errors.New("asset: negative amount")
	ErrUnparseable      = errors.New("asset: value is not a decimal")
	ErrFractionalDrops  = errors.New("asset: drops must be an integer")
	ErrUninitialized    = errors.New("asset: amount has no kind")
	ErrUnexpectedIssuer = errors.New("asset: native amounts have no issuer")
)

// Kind tags the variant held by a CurrencyAmount.
type Kind uint8

const (
	kindUnset Kind = iota
	KindNative
	KindIssued
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindIssued:
		return "issued"
	default:
		return "unset"
	}
}

// CurrencyAmount is an immutable, non-negative quantity of either the native
// coin (in whole XRP) or an issued currency.
type CurrencyAmount struct {
	kind  Kind
	asset Asset
	value decimal.Decimal
}

// Native creates a native amount expressed in whole XRP.
func Native(value decimal.Decimal) (CurrencyAmount, error) {
	if value.IsNegative() {
		return CurrencyAmount{}, invalidAmount(ErrNegativeAmount, value.String())
	}
	return CurrencyAmount{kind: KindNative, asset: XRP, value: value}, nil
}

// Issued creates an issued currency amount.
func Issued(code, issuer string, value decimal.Decimal) (CurrencyAmount, error) {
	a, err := NewIssuedAsset(code, issuer)
	if err != nil {
		return CurrencyAmount{}, err
	}
	if value.IsNegative() {
		return CurrencyAmount{}, invalidAmount(ErrNegativeAmount, value.String())
	}
	return CurrencyAmount{kind: KindIssued, asset: a, value: value}, nil
}

// NewCurrencyAmount creates an amount of a, choosing the variant from the asset.
func NewCurrencyAmount(a Asset, value decimal.Decimal) (CurrencyAmount, error) {
	if a.IsNative() {
		return Native(value)
	}
	if a.Currency == NativeCode {
		return CurrencyAmount{}, invalidAmount(ErrUnexpectedIssuer, a.String())
	}
	return Issued(a.Currency, a.Issuer, value)
}

// MustNative is Native for constants and tests. It panics on invalid input.
func MustNative(value decimal.Decimal) CurrencyAmount {
	a, err := Native(value)
	if err != nil {
		panic(err)
	}
	return a
}

// MustIssued is Issued for constants and tests. It panics on invalid input.
func MustIssued(code, issuer string, value decimal.Decimal) CurrencyAmount {
	a, err := Issued(code, issuer, value)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseNative parses a decimal string of whole XRP.
func ParseNative(s string) (CurrencyAmount, error) {
	d, err := parseValue(s)
	if err != nil {
		return CurrencyAmount{}, err
	}
	return Native(d)
}

// ParseIssued parses a decimal string for an issued currency.
func ParseIssued(code, issuer, s string) (CurrencyAmount, error) {
	d, err := parseValue(s)
	if err != nil {
		return CurrencyAmount{}, err
	}
	return Issued(code, issuer, d)
}

// NativeFromDrops converts an integer drops string into a native amount.
func NativeFromDrops(drops string) (CurrencyAmount, error) {
	d, err := parseValue(drops)
	if err != nil {
		return CurrencyAmount{}, err
	}
	if !d.IsInteger() {
		return CurrencyAmount{}, invalidAmount(ErrFractionalDrops, drops)
	}
	return Native(d.Shift(-NativeDecimals))
}

// Normalize returns the decimal value of a in major units.
func Normalize(a CurrencyAmount) (decimal.Decimal, error) {
	switch a.kind {
	case KindNative:
		if a.value.IsNegative() {
			return decimal.Zero, invalidAmount(ErrNegativeAmount, a.value.String())
		}
		return a.value, nil
	case KindIssued:
		if a.value.IsNegative() {
			return decimal.Zero, invalidAmount(ErrNegativeAmount, a.value.String())
		}
		return a.value, nil
	default:
		return decimal.Zero, invalidAmount(ErrUninitialized, "")
	}
}

// Kind returns the variant tag.
func (a CurrencyAmount) Kind() Kind { return a.kind }

// Asset returns the currency of the amount.
func (a CurrencyAmount) Asset() Asset { return a.asset }

// Value returns the amount in major units.
func (a CurrencyAmount) Value() decimal.Decimal { return a.value }

// IsNative reports whether the amount is in the native coin.
func (a CurrencyAmount) IsNative() bool { return a.kind == KindNative }

// IsZero reports whether the amount is zero.
func (a CurrencyAmount) IsZero() bool { return a.value.IsZero() }

// Drops returns a native amount in drops, truncating anything below one drop.
func (a CurrencyAmount) Drops() (decimal.Decimal, error) {
	if a.kind != KindNative {
		return decimal.Zero, invalidAmount(fmt.Errorf("asset: %s amount has no drops", a.kind), a.String())
	}
	return a.value.Shift(NativeDecimals).Truncate(0), nil
}

// String renders "<value> <asset>".
func (a CurrencyAmount) String() string {
	return a.value.String() + " " + a.asset.String()
}

func parseValue(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalidAmount(errors.Join(ErrUnparseable, err), s)
	}
	if d.IsNegative() {
		return decimal.Zero, invalidAmount(ErrNegativeAmount, s)
	}
	return d, nil
}

func invalidAmount(cause error, context string) error {
	return apperror.New(apperror.CodeInvalidAmount,
		apperror.WithCause(cause),
		apperror.WithContext(context),
	)
}
