package core

import "time"

// Bar represents one daily OHLCV bar of the underlying index.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// IsValid checks if the bar has required fields.
func (b Bar) IsValid() bool {
	return !b.Date.IsZero() && b.Close > 0
}

// TradeType identifies the kind of ledger entry.
type TradeType string

const (
	TradeSellPut         TradeType = "SELL_PUT"
	TradeAssignPut       TradeType = "ASSIGN_PUT"
	TradeCloseLong       TradeType = "CLOSE_LONG"
	TradeSellCoveredCall TradeType = "SELL_COVERED_CALL"
	TradeSkipPutCap      TradeType = "SKIP_PUT_CAP"
)

// TradeRecord is one append-only ledger entry. Fields that do not apply
// to the entry's type are left zero.
type TradeRecord struct {
	Date       time.Time `json:"date"`
	Type       TradeType `json:"type"`
	Contracts  int       `json:"contracts"`
	Premium    float64   `json:"premium_per_contract,omitempty"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	ExitPrice  float64   `json:"exit_price,omitempty"`
	Points     float64   `json:"points,omitempty"`
	PnL        float64   `json:"pnl_usd,omitempty"`
	CashChange float64   `json:"cash_change"`
	Note       string    `json:"note,omitempty"`
}

// EquityPoint is the end-of-day portfolio mark. One per trading day,
// immutable once appended.
type EquityPoint struct {
	Date              time.Time `json:"date"`
	Equity            float64   `json:"equity"`
	Cash              float64   `json:"cash"`
	Unrealized        float64   `json:"unrealized"`
	HeldContracts     int       `json:"held_contracts"`
	OpenPutContracts  int       `json:"open_puts"`
	OpenCallContracts int       `json:"open_calls"`
	Z                 float64   `json:"z"` // NaN while the rolling window is warming up
}
