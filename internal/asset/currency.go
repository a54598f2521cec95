package asset

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

// Currency code widths used on the ledger.
const (
	// StandardCodeLen is the longest code that travels in plain text.
	StandardCodeLen = 3
	// MaxCodeLen is the longest human-readable code that fits the binary form.
	MaxCodeLen = 20
	// CurrencyWidth is the size in bytes of the binary currency field.
	CurrencyWidth = 20

	// standard codes live at bytes 12..14 of the binary field
	standardOffset = 12
)

// EncodeCurrency converts a human-readable currency code to its wire form.
// Codes of up to three characters are returned unchanged. Longer codes are
// right-padded with zero bytes to 20 bytes and rendered as 40 uppercase hex
// digits.
func EncodeCurrency(code string) (string, error) {
	if len(code) <= StandardCodeLen {
		if err := validateStandard(code); err != nil {
			return "", err
		}
		return code, nil
	}

	if err := validateNonStandard(code); err != nil {
		return "", err
	}

	padded := common.RightPadBytes([]byte(code), CurrencyWidth)
	return strings.ToUpper(strings.TrimPrefix(hexutil.Encode(padded), "0x")), nil
}

// DecodeCurrency converts a wire currency code back to its human-readable form.
// Plain codes of up to three characters are validated and returned unchanged.
// A 40 hex digit code is decoded and its trailing zero padding trimmed; the
// ledger's standard layout (ASCII at bytes 12..14, zero elsewhere) decodes to
// the three character code it carries.
func DecodeCurrency(code string) (string, error) {
	if len(code) <= StandardCodeLen {
		if err := validateStandard(code); err != nil {
			return "", err
		}
		return code, nil
	}

	if len(code) != CurrencyWidth*2 {
		return "", invalidCurrency(code, "expected 3 characters or 40 hex digits")
	}

	raw, err := hexutil.Decode("0x" + code)
	if err != nil {
		return "", apperror.New(apperror.CodeInvalidCurrencyCode,
			apperror.WithContext(code),
			apperror.WithCause(err),
		)
	}

	var b [CurrencyWidth]byte
	copy(b[:], raw)
	return CurrencyFromBytes(b)
}

// CurrencyBytes returns the 20 byte binary form of a currency code. The native
// code maps to all zeros, three character codes use the standard layout and
// longer codes are stored verbatim, zero padded.
func CurrencyBytes(code string) ([CurrencyWidth]byte, error) {
	var b [CurrencyWidth]byte

	if code == NativeCode {
		return b, nil
	}

	if len(code) == CurrencyWidth*2 {
		decoded, err := DecodeCurrency(code)
		if err != nil {
			return b, err
		}
		code = decoded
	}

	if len(code) <= StandardCodeLen {
		if len(code) != StandardCodeLen {
			return b, invalidCurrency(code, "standard codes need exactly 3 characters in binary form")
		}
		if err := validateStandard(code); err != nil {
			return b, err
		}
		copy(b[standardOffset:], code)
		return b, nil
	}

	if err := validateNonStandard(code); err != nil {
		return b, err
	}
	copy(b[:], code)
	return b, nil
}

// CurrencyFromBytes decodes the 20 byte binary form of a currency code.
func CurrencyFromBytes(b [CurrencyWidth]byte) (string, error) {
	if b == ([CurrencyWidth]byte{}) {
		return NativeCode, nil
	}

	if b[0] == 0 {
		for i, c := range b {
			inCode := i >= standardOffset && i < standardOffset+StandardCodeLen
			if !inCode && c != 0 {
				return "", invalidCurrency(hexCode(b), "non-zero byte outside the standard code field")
			}
		}
		code := string(b[standardOffset : standardOffset+StandardCodeLen])
		if err := validateStandard(code); err != nil {
			return "", err
		}
		return code, nil
	}

	trimmed := common.TrimRightZeroes(b[:])
	if len(trimmed) <= StandardCodeLen {
		return "", invalidCurrency(hexCode(b), "non-standard codes need at least 4 characters")
	}
	code := string(trimmed)
	for _, c := range trimmed {
		if !isCodeChar(c) {
			return "", invalidCurrency(hexCode(b), "contains non printable bytes")
		}
	}
	return code, nil
}

// CanonicalCurrency returns the human-readable form of either wire shape.
func CanonicalCurrency(code string) (string, error) {
	if len(code) == CurrencyWidth*2 {
		return DecodeCurrency(code)
	}
	if _, err := EncodeCurrency(code); err != nil {
		return "", err
	}
	return code, nil
}

func validateStandard(code string) error {
	if code == "" {
		return invalidCurrency(code, "empty code")
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		isAlnum := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return invalidCurrency(code, "standard codes must be alphanumeric")
		}
	}
	return nil
}

func validateNonStandard(code string) error {
	if len(code) > MaxCodeLen {
		return invalidCurrency(code, "longer than 20 characters")
	}
	for i := 0; i < len(code); i++ {
		if !isCodeChar(code[i]) {
			return invalidCurrency(code, "contains characters outside printable ASCII")
		}
	}
	return nil
}

// isCodeChar accepts printable ASCII without the space.
func isCodeChar(c byte) bool {
	return c > 0x20 && c < 0x7f
}

func hexCode(b [CurrencyWidth]byte) string {
	return strings.ToUpper(strings.TrimPrefix(hexutil.Encode(b[:]), "0x"))
}

func invalidCurrency(code, reason string) error {
	return apperror.New(apperror.CodeInvalidCurrencyCode,
		apperror.WithContext(code),
		apperror.WithMessage("Malformed currency code: "+reason),
	)
}
