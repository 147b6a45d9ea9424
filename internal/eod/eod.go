package eod

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"sentiment-trader/internal/types"
)

var header = []string{
	"symbol", "trades", "buy_qty", "buy_avg", "sell_qty", "sell_avg",
	"realized_pnl", "win_rate", "pnl_mean", "pnl_stddev", "gross_buy_value", "gross_sell_value",
}

type eodSummarizer struct {
	dir string
	loc *time.Location
}

func dayKey(t time.Time, loc *time.Location) string { return t.In(loc).Format("2006-01-02") }

func (s *eodSummarizer) csvPath(day time.Time) string {
	return filepath.Join(s.dir, "eod", dayKey(day, s.loc)+".csv")
}

// Summarize aggregates the records that fall on day. Earlier records only
// seed the average cost so a position carried overnight is valued right.
func Summarize(day time.Time, records []types.TradeRecord, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}
	key := dayKey(day, loc)

	books := map[string]*book{}
	rows := map[string]*Row{}
	pnls := map[string][]float64{}

	for _, r := range records {
		d := dayKey(r.Timestamp, loc)
		if d > key {
			continue
		}
		b := books[r.Symbol]
		if b == nil {
			b = &book{}
			books[r.Symbol] = b
		}
		price := decimal.NewFromFloat(r.Price)
		qty := decimal.NewFromInt(int64(r.Quantity))

		var realized decimal.Decimal
		switch r.Side {
		case types.SideBuy:
			b.qty += r.Quantity
			b.cost = b.cost.Add(price.Mul(qty))
		case types.SideSell:
			matched := r.Quantity
			if matched > b.qty {
				matched = b.qty
			}
			if matched > 0 {
				avg := b.cost.Div(decimal.NewFromInt(int64(b.qty)))
				m := decimal.NewFromInt(int64(matched))
				realized = price.Sub(avg).Mul(m)
				b.cost = b.cost.Sub(avg.Mul(m))
				b.qty -= matched
			}
			if b.qty == 0 {
				b.cost = decimal.Zero
			}
		}

		if d != key {
			continue
		}
		row := rows[r.Symbol]
		if row == nil {
			row = &Row{Symbol: r.Symbol}
			rows[r.Symbol] = row
		}
		row.Trades++
		switch r.Side {
		case types.SideBuy:
			row.BuyQty += r.Quantity
			row.BuyValue = row.BuyValue.Add(price.Mul(qty))
		case types.SideSell:
			row.SellQty += r.Quantity
			row.SellValue = row.SellValue.Add(price.Mul(qty))
			row.RealizedPnL = row.RealizedPnL.Add(realized)
			if realized.IsPositive() {
				row.Wins++
			} else {
				row.Losses++
			}
			pnls[r.Symbol] = append(pnls[r.Symbol], realized.InexactFloat64())
		}
	}

	out := make([]Row, 0, len(rows))
	for sym, row := range rows {
		if p := pnls[sym]; len(p) > 0 {
			row.PnLMean, _ = stats.Mean(p)
			row.PnLStdDev, _ = stats.StandardDeviation(p)
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SummarizeDay writes <dir>/eod/<day>.csv. It returns an empty path and no
// error when there were no trades on day.
func (s *eodSummarizer) SummarizeDay(day time.Time, records []types.TradeRecord) (string, error) {
	rows := Summarize(day, records, s.loc)
	if len(rows) == 0 {
		return "", nil
	}

	outPath := s.csvPath(day)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return "", err
	}

	var total Row
	var totalPnLs []float64
	for _, r := range rows {
		if err := w.Write(formatRow(r.Symbol, r)); err != nil {
			return "", err
		}
		total.Trades += r.Trades
		total.BuyQty += r.BuyQty
		total.SellQty += r.SellQty
		total.BuyValue = total.BuyValue.Add(r.BuyValue)
		total.SellValue = total.SellValue.Add(r.SellValue)
		total.RealizedPnL = total.RealizedPnL.Add(r.RealizedPnL)
		total.Wins += r.Wins
		total.Losses += r.Losses
		if r.Wins+r.Losses > 0 {
			totalPnLs = append(totalPnLs, r.PnLMean)
		}
	}
	if len(rows) > 1 {
		total.PnLMean, _ = stats.Mean(totalPnLs)
		total.PnLStdDev, _ = stats.StandardDeviation(totalPnLs)
	} else {
		total.PnLMean, total.PnLStdDev = rows[0].PnLMean, rows[0].PnLStdDev
	}
	if err := w.Write(formatRow("TOTAL", total)); err != nil {
		return "", err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func formatRow(label string, r Row) []string {
	return []string{
		label,
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.BuyQty),
		r.BuyAvg().StringFixed(4),
		strconv.Itoa(r.SellQty),
		r.SellAvg().StringFixed(4),
		r.RealizedPnL.StringFixed(2),
		fmt.Sprintf("%.4f", r.WinRate()),
		fmt.Sprintf("%.4f", r.PnLMean),
		fmt.Sprintf("%.4f", r.PnLStdDev),
		r.BuyValue.StringFixed(2),
		r.SellValue.StringFixed(2),
	}
}
