// Package asset models ledger currencies and the amounts the liquidity engine
// works with. Values are exact decimals in major units; the ledger's smallest
// unit only appears at the parsing boundary.
package asset

import (
	"strings"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

// NativeCode is the currency code of the ledger's native coin.
const NativeCode = "XRP"

// issuer addresses use the ledger's base58 dictionary
const issuerAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// Asset identifies a currency on the ledger. The native coin has no issuer;
// every other currency is a code issued by an account.
type Asset struct {
	Currency string
	Issuer   string
}

// XRP is the native asset.
var XRP = Asset{Currency: NativeCode}

// NewIssuedAsset validates and canonicalizes an issued currency. The code may
// be given in either wire shape and is stored human-readable.
func NewIssuedAsset(code, issuer string) (Asset, error) {
	canonical, err := CanonicalCurrency(code)
	if err != nil {
		return Asset{}, err
	}
	if canonical == NativeCode {
		return Asset{}, apperror.Validation(apperror.CodeInvalidCurrencyCode, "XRP cannot be issued")
	}
	if err := ValidateIssuer(issuer); err != nil {
		return Asset{}, err
	}
	return Asset{Currency: canonical, Issuer: issuer}, nil
}

// ParseAsset parses "XRP" or "CODE.issuer".
func ParseAsset(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if s == NativeCode {
		return XRP, nil
	}

	code, issuer, ok := strings.Cut(s, ".")
	if !ok {
		return Asset{}, apperror.Validation(apperror.CodeInvalidAsset, s)
	}
	return NewIssuedAsset(code, issuer)
}

// IsNative reports whether a is the ledger's native coin.
func (a Asset) IsNative() bool {
	return a.Currency == NativeCode && a.Issuer == ""
}

// WireCurrency returns the currency code as the ledger API expects it.
func (a Asset) WireCurrency() string {
	if a.IsNative() {
		return NativeCode
	}
	wire, err := EncodeCurrency(a.Currency)
	if err != nil {
		return a.Currency
	}
	return wire
}

// String renders "XRP" or "CODE.issuer".
func (a Asset) String() string {
	if a.Issuer == "" {
		return a.Currency
	}
	return a.Currency + "." + a.Issuer
}

// ValidateIssuer performs a shape check on a classic address. The checksum is
// verified by the ledger itself when the address is used in a request.
func ValidateIssuer(issuer string) error {
	if len(issuer) < 25 || len(issuer) > 35 || issuer[0] != 'r' {
		return apperror.Validation(apperror.CodeInvalidAsset, "issuer "+issuer)
	}
	for _, c := range issuer {
		if !strings.ContainsRune(issuerAlphabet, c) {
			return apperror.Validation(apperror.CodeInvalidAsset, "issuer "+issuer)
		}
	}
	return nil
}
