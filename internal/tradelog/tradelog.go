package tradelog

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"sentiment-trader/internal/types"
)

// Header is the column order of the flushed history CSV.
var Header = []string{"timestamp", "action", "quantity", "price", "resulting_position", "symbol", "order_id", "reason"}

// LogDir resolves the journal directory; TRADER_LOG_DIR wins over fallback.
func LogDir(fallback string) string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	if fallback == "" {
		return "logs"
	}
	return fallback
}

// History is the append-only record of confirmed fills. Records live in
// memory for the whole run and are mirrored line by line into a daily
// JSONL journal so a crash loses nothing.
type History struct {
	dir string
	loc *time.Location

	mu      sync.Mutex
	records []types.TradeRecord
}

// NewHistory journals into dir, one file per day in loc. An empty dir
// disables the journal.
func NewHistory(dir string, loc *time.Location) *History {
	if loc == nil {
		loc = time.UTC
	}
	return &History{dir: dir, loc: loc}
}

func (h *History) journalPath(t time.Time) string {
	return filepath.Join(h.dir, t.In(h.loc).Format("2006-01-02")+".txt")
}

// Append adds r to the history. The in-memory record is kept even when
// the journal write fails; the error is returned for logging.
func (h *History) Append(r types.TradeRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)

	if h.dir == "" {
		return nil
	}
	p := h.journalPath(r.Timestamp)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Records returns a copy of every record in append order.
func (h *History) Records() []types.TradeRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.TradeRecord, len(h.records))
	copy(out, h.records)
	return out
}

// OnDay returns the records whose timestamp falls on day (YYYY-MM-DD) in
// the history's location.
func (h *History) OnDay(day string) []types.TradeRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []types.TradeRecord
	for _, r := range h.records {
		if r.Timestamp.In(h.loc).Format("2006-01-02") == day {
			out = append(out, r)
		}
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Flush writes the full history to path as CSV with a header row. The file
// is written beside path and renamed so readers never see a partial file.
func (h *History) Flush(path string) error {
	recs := h.Records()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, recs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteCSV encodes recs in Header order.
func WriteCSV(w io.Writer, recs []types.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			string(r.Action),
			strconv.Itoa(r.Quantity),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			strconv.Itoa(r.ResultingPosition),
			r.Symbol,
			r.OrderID,
			r.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CompressOlder gzips journal files under root last modified more than
// retentionDays ago and removes the originals.
func CompressOlder(root string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := d.Info()
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// if already gz exists, remove original .txt
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		if e3 := gzipFile(p, gz); e3 == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
