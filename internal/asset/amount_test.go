package asset_test

import (
	"errors"
	"testing"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/shopspring/decimal"
)

func TestNative_Basic(t *testing.T) {
	amt, err := asset.ParseNative("12.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !amt.IsNative() || amt.Kind() != asset.KindNative {
		t.Errorf("expected native amount, got %s", amt.Kind())
	}
	if amt.Asset() != asset.XRP {
		t.Errorf("expected XRP asset, got %s", amt.Asset())
	}
	if amt.String() != "12.5 XRP" {
		t.Errorf("expected '12.5 XRP', got '%s'", amt.String())
	}
}

func TestIssued_CanonicalizesWireCode(t *testing.T) {
	amt, err := asset.ParseIssued("524C555344000000000000000000000000000000", asset.IssuerRipple, "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amt.Asset() != asset.RLUSD {
		t.Errorf("expected %s, got %s", asset.RLUSD, amt.Asset())
	}
	if amt.Kind() != asset.KindIssued {
		t.Errorf("expected issued kind, got %s", amt.Kind())
	}
}

func TestIssued_RejectsNativeCode(t *testing.T) {
	_, err := asset.Issued("XRP", asset.IssuerBitstamp, decimal.NewFromInt(1))
	if !apperror.IsCode(err, apperror.CodeInvalidCurrencyCode) {
		t.Errorf("expected %s, got %v", apperror.CodeInvalidCurrencyCode, err)
	}
}

func TestNativeFromDrops(t *testing.T) {
	tests := []struct {
		drops string
		want  string
	}{
		{"1000000", "1"},
		{"1", "0.000001"},
		{"25000000000", "25000"},
		{"0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.drops, func(t *testing.T) {
			amt, err := asset.NativeFromDrops(tt.drops)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !amt.Value().Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("NativeFromDrops(%s) = %s, want %s", tt.drops, amt.Value(), tt.want)
			}
			drops, err := amt.Drops()
			if err != nil {
				t.Fatalf("Drops: %v", err)
			}
			if drops.String() != tt.drops {
				t.Errorf("Drops() = %s, want %s", drops, tt.drops)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	native := asset.MustNative(decimal.RequireFromString("1000"))
	issued := asset.MustIssued("USD", asset.IssuerBitstamp, decimal.RequireFromString("5000.25"))

	tests := []struct {
		name   string
		amount asset.CurrencyAmount
		want   string
	}{
		{"native in major units", native, "1000"},
		{"issued unchanged", issued, "5000.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.Normalize(tt.amount)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Normalize = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalize_ZeroValueAmount(t *testing.T) {
	_, err := asset.Normalize(asset.CurrencyAmount{})
	if !apperror.IsCode(err, apperror.CodeInvalidAmount) {
		t.Fatalf("expected %s, got %v", apperror.CodeInvalidAmount, err)
	}
	if !errors.Is(err, asset.ErrUninitialized) {
		t.Errorf("expected cause ErrUninitialized, got %v", err)
	}
}

func TestInvalidAmounts(t *testing.T) {
	tests := []struct {
		name  string
		parse func() error
		cause error
	}{
		{"negative native", func() error { _, err := asset.ParseNative("-1"); return err }, asset.ErrNegativeAmount},
		{"negative issued", func() error {
			_, err := asset.Issued("USD", asset.IssuerBitstamp, decimal.NewFromInt(-3))
			return err
		}, asset.ErrNegativeAmount},
		{"garbage", func() error { _, err := asset.ParseNative("abc"); return err }, asset.ErrUnparseable},
		{"nan", func() error { _, err := asset.ParseIssued("USD", asset.IssuerBitstamp, "NaN"); return err }, asset.ErrUnparseable},
		{"fractional drops", func() error { _, err := asset.NativeFromDrops("10.5"); return err }, asset.ErrFractionalDrops},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			if !apperror.IsCode(err, apperror.CodeInvalidAmount) {
				t.Fatalf("expected %s, got %v", apperror.CodeInvalidAmount, err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestParseIssued_ScientificNotation(t *testing.T) {
	amt, err := asset.ParseIssued("USD", asset.IssuerGateHub, "1.5e-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amt.Value().Equal(decimal.RequireFromString("0.0015")) {
		t.Errorf("expected 0.0015, got %s", amt.Value())
	}
}

func TestDrops_IssuedAmount(t *testing.T) {
	issued := asset.MustIssued("EUR", asset.IssuerGateHub, decimal.NewFromInt(1))
	if _, err := issued.Drops(); !apperror.IsCode(err, apperror.CodeInvalidAmount) {
		t.Errorf("expected %s, got %v", apperror.CodeInvalidAmount, err)
	}
}
