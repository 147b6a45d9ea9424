package eod

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/types"
)

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func trade(at time.Time, side types.Side, qty int, price float64) types.TradeRecord {
	a := types.ActionOpen
	if side == types.SideSell {
		a = types.ActionReduce
	}
	return types.TradeRecord{Timestamp: at, Symbol: "XOM", Action: a, Side: side, Quantity: qty, Price: price}
}

func TestSummarizeAverageCost(t *testing.T) {
	recs := []types.TradeRecord{
		trade(day.Add(10*time.Hour), types.SideBuy, 10, 100),
		trade(day.Add(11*time.Hour), types.SideBuy, 10, 110),
		trade(day.Add(12*time.Hour), types.SideSell, 5, 115),
		trade(day.Add(13*time.Hour), types.SideSell, 15, 100),
	}

	rows := Summarize(day, recs, time.UTC)
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, 4, r.Trades)
	assert.Equal(t, 20, r.BuyQty)
	assert.Equal(t, "105.0000", r.BuyAvg().StringFixed(4))
	assert.Equal(t, 20, r.SellQty)
	// (115-105)*5 + (100-105)*15 = 50 - 75
	assert.Equal(t, "-25.00", r.RealizedPnL.StringFixed(2))
	assert.Equal(t, 1, r.Wins)
	assert.Equal(t, 1, r.Losses)
	assert.Equal(t, 0.5, r.WinRate())
	assert.InDelta(t, -12.5, r.PnLMean, 1e-9)
	assert.InDelta(t, 62.5, r.PnLStdDev, 1e-9)
}

func TestSummarizeCarriesCostFromEarlierDays(t *testing.T) {
	recs := []types.TradeRecord{
		trade(day.Add(-10*time.Hour), types.SideBuy, 10, 90),
		trade(day.Add(10*time.Hour), types.SideSell, 10, 99),
	}
	rows := Summarize(day, recs, time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Trades)
	assert.Equal(t, 0, rows[0].BuyQty)
	assert.Equal(t, "90.00", rows[0].RealizedPnL.StringFixed(2))
}

func TestSummarizeIgnoresOtherDays(t *testing.T) {
	recs := []types.TradeRecord{
		trade(day.Add(-2*time.Hour), types.SideBuy, 1, 1),
		trade(day.Add(30*time.Hour), types.SideBuy, 1, 1),
	}
	assert.Empty(t, Summarize(day, recs, time.UTC))
}

func TestSummarizeDayWritesCSV(t *testing.T) {
	dir := t.TempDir()
	s := NewSummarizer(dir, time.UTC)
	recs := []types.TradeRecord{
		trade(day.Add(10*time.Hour), types.SideBuy, 10, 100),
		trade(day.Add(11*time.Hour), types.SideSell, 10, 103),
	}

	path, err := s.SummarizeDay(day, recs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eod", "2024-03-05.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "XOM", rows[1][0])
	assert.Equal(t, "30.00", rows[1][6])
	assert.Equal(t, "1.0000", rows[1][7])
	assert.Equal(t, "TOTAL", rows[2][0])
	assert.Equal(t, "30.00", rows[2][6])
}

func TestSummarizeDayNoTrades(t *testing.T) {
	dir := t.TempDir()
	path, err := NewSummarizer(dir, nil).SummarizeDay(day, nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(filepath.Join(dir, "eod"))
	assert.True(t, os.IsNotExist(err))
}
