package eod

import "github.com/shopspring/decimal"

// Row holds the end-of-day figures for one symbol.
type Row struct {
	Symbol      string
	Trades      int
	BuyQty      int
	BuyValue    decimal.Decimal
	SellQty     int
	SellValue   decimal.Decimal
	RealizedPnL decimal.Decimal // average-cost P&L of the day's sells
	Wins        int             // sells closed above the average cost
	Losses      int
	PnLMean     float64 // per-sell realized P&L
	PnLStdDev   float64
}

func (r Row) BuyAvg() decimal.Decimal {
	if r.BuyQty == 0 {
		return decimal.Zero
	}
	return r.BuyValue.Div(decimal.NewFromInt(int64(r.BuyQty)))
}

func (r Row) SellAvg() decimal.Decimal {
	if r.SellQty == 0 {
		return decimal.Zero
	}
	return r.SellValue.Div(decimal.NewFromInt(int64(r.SellQty)))
}

// WinRate is wins over closed sells, 0 when nothing was sold.
func (r Row) WinRate() float64 {
	n := r.Wins + r.Losses
	if n == 0 {
		return 0
	}
	return float64(r.Wins) / float64(n)
}

// book tracks the running average cost of one symbol.
type book struct {
	qty  int
	cost decimal.Decimal // total cost of qty
}
