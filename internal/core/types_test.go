package core

import (
	"testing"
	"time"
)

func TestBar_IsValid(t *testing.T) {
	b := Bar{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Open:   18000,
		High:   18120,
		Low:    17950,
		Close:  18080,
		Volume: 125000,
	}

	if !b.IsValid() {
		t.Error("expected valid bar")
	}

	invalid := Bar{Close: 0}
	if invalid.IsValid() {
		t.Error("expected invalid bar")
	}
}

func TestTradeType_Constants(t *testing.T) {
	types := []TradeType{TradeSellPut, TradeAssignPut, TradeCloseLong, TradeSellCoveredCall, TradeSkipPutCap}
	expected := []string{"SELL_PUT", "ASSIGN_PUT", "CLOSE_LONG", "SELL_COVERED_CALL", "SKIP_PUT_CAP"}

	for i, tt := range types {
		if string(tt) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], tt)
		}
	}
}
