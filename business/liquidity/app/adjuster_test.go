package app_test

import (
	"testing"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

func TestAdjustEffectiveRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    string
		reserve string
		side    domain.Side
		want    string
	}{
		// raw 0.2/2 = 0.1, factor 0.1/1.1
		{"buy", "2", "0.2", domain.SideBuy, "2.1818181818181818"},
		{"no reserve buy", "3.5", "0", domain.SideBuy, "3.5"},
		{"no reserve sell", "3.5", "0", domain.SideSell, "3.5"},
		// raw 1, factor 0.5
		{"sell", "2", "2", domain.SideSell, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.AdjustEffectiveRate(d(tt.rate), d(tt.reserve), tt.side)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("AdjustEffectiveRate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAdjustEffectiveRate_Bounds(t *testing.T) {
	rates := []string{"0.0000001", "0.5", "1", "2.45", "1000", "123456789.123"}
	reserves := []string{"0", "0.2", "1", "10", "100000"}

	for _, r := range rates {
		for _, res := range reserves {
			buy, err := app.AdjustEffectiveRate(d(r), d(res), domain.SideBuy)
			if err != nil {
				t.Fatalf("buy %s/%s: %v", r, res, err)
			}
			if buy.LessThan(d(r)) {
				t.Errorf("buy %s with reserve %s = %s, below the proposed rate", r, res, buy)
			}

			sell, err := app.AdjustEffectiveRate(d(r), d(res), domain.SideSell)
			if err != nil {
				t.Fatalf("sell %s/%s: %v", r, res, err)
			}
			if sell.GreaterThan(d(r)) || sell.IsNegative() {
				t.Errorf("sell %s with reserve %s = %s, outside [0, rate]", r, res, sell)
			}
		}
	}
}

func TestAdjustEffectiveRate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		rate    string
		reserve string
		side    domain.Side
	}{
		{"zero rate", "0", "1", domain.SideBuy},
		{"negative rate", "-2", "1", domain.SideSell},
		{"negative reserve", "2", "-1", domain.SideBuy},
		{"unknown side", "2", "1", domain.Side(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.AdjustEffectiveRate(d(tt.rate), d(tt.reserve), tt.side)
			if !apperror.IsCode(err, apperror.CodeInvalidInput) {
				t.Errorf("expected %s, got %v", apperror.CodeInvalidInput, err)
			}
		})
	}
}
