package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-trader/internal/types"
)

var t0 = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func record(action types.Action, qty, pos int, price float64, at time.Time) types.TradeRecord {
	return types.TradeRecord{
		Timestamp:         at,
		Symbol:            "XOM",
		Action:            action,
		Side:              action.Side(),
		Quantity:          qty,
		Price:             price,
		ResultingPosition: pos,
		OrderID:           "SIM-1",
		Reason:            "BUY",
	}
}

func TestAppendJournalsAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	h := NewHistory(dir, time.UTC)

	require.NoError(t, h.Append(record(types.ActionOpen, 10, 10, 100, t0)))
	require.NoError(t, h.Append(record(types.ActionReduce, 4, 6, 101.25, t0.Add(time.Minute))))

	recs := h.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, types.ActionOpen, recs[0].Action)
	assert.Equal(t, 6, recs[1].ResultingPosition)

	// the copy is detached from the history
	recs[0].Quantity = 999
	assert.Equal(t, 10, h.Records()[0].Quantity)

	f, err := os.Open(filepath.Join(dir, "2024-03-04.txt"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r types.TradeRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestAppendWithoutJournal(t *testing.T) {
	h := NewHistory("", nil)
	require.NoError(t, h.Append(record(types.ActionOpen, 1, 1, 1, t0)))
	assert.Equal(t, 1, h.Len())
}

func TestOnDay(t *testing.T) {
	h := NewHistory("", time.UTC)
	_ = h.Append(record(types.ActionOpen, 1, 1, 1, t0))
	_ = h.Append(record(types.ActionClose, 1, 0, 1, t0.Add(24*time.Hour)))
	assert.Len(t, h.OnDay("2024-03-04"), 1)
	assert.Len(t, h.OnDay("2024-03-05"), 1)
	assert.Empty(t, h.OnDay("2024-03-06"))
}

func TestFlushWritesHeaderAndRows(t *testing.T) {
	h := NewHistory("", time.UTC)
	_ = h.Append(record(types.ActionOpen, 20, 20, 100.5, t0))
	_ = h.Append(record(types.ActionClose, 20, 0, 97, t0.Add(time.Hour)))

	path := filepath.Join(t.TempDir(), "out", "trade_history.csv")
	require.NoError(t, h.Flush(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2024-03-04T15:00:00Z", "OPEN", "20", "100.5", "20", "XOM", "SIM-1", "BUY"}, rows[1])
	assert.Equal(t, "CLOSE", rows[2][1])
	assert.Equal(t, "0", rows[2][4])
}

func TestFlushEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_history.csv")
	require.NoError(t, NewHistory("", nil).Flush(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, ",")+"\n", string(b))
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2024-01-01.txt")
	fresh := filepath.Join(dir, "2024-03-04.txt")
	require.NoError(t, os.WriteFile(old, []byte("{\"a\":1}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))
	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, stale, stale))

	require.NoError(t, CompressOlder(dir, 7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	b, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(b))
}

func TestLogDir(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", "")
	assert.Equal(t, "journal", LogDir("journal"))
	assert.Equal(t, "logs", LogDir(""))
	t.Setenv("TRADER_LOG_DIR", "/var/log/trader")
	assert.Equal(t, "/var/log/trader", LogDir("journal"))
}
