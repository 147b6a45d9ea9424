package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

// SQLiteRecorder persists trades and cycles to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info(context.Background(), "SQLite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			cycle_id           TEXT,
			symbol             TEXT NOT NULL,
			action             TEXT NOT NULL,
			side               TEXT NOT NULL,
			quantity           INTEGER NOT NULL,
			price              REAL NOT NULL,
			resulting_position INTEGER NOT NULL,
			order_id           TEXT,
			reason             TEXT,
			signal             REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT,
			outcome      TEXT NOT NULL,
			duration_ms  INTEGER,
			fetched      INTEGER,
			skipped      INTEGER,
			pre_scored   INTEGER,
			signal       REAL,
			sample_count INTEGER,
			price        REAL,
			action       TEXT,
			quantity     INTEGER,
			reason       TEXT,
			position     INTEGER,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(rec types.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, cycle_id, symbol, action, side, quantity, price,
		 resulting_position, order_id, reason, signal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.CycleID, rec.Symbol, string(rec.Action), string(rec.Side),
		rec.Quantity, rec.Price, rec.ResultingPosition, rec.OrderID, rec.Reason, rec.Signal,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(res *types.CycleResult) error {
	if res == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(cycle_id, timestamp, symbol, outcome, duration_ms, fetched, skipped, pre_scored,
		 signal, sample_count, price, action, quantity, reason, position, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.CycleID, res.StartedAt.Unix(), res.Symbol, string(res.Outcome),
		res.Duration.Milliseconds(), res.Fetched, res.Skipped, res.PreScored,
		res.Signal.Value, res.Signal.SampleCount, res.Price,
		string(res.Decision.Action), res.Decision.Quantity, res.Decision.Reason,
		res.Position.Quantity, res.Error,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// RecentTrades returns up to limit trades, newest first.
func (r *SQLiteRecorder) RecentTrades(limit int) ([]types.TradeRecord, error) {
	rows, err := r.db.Query(`SELECT timestamp, cycle_id, symbol, action, side, quantity, price,
		resulting_position, order_id, reason, signal
		FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []types.TradeRecord
	for rows.Next() {
		var (
			rec          types.TradeRecord
			ts           int64
			action, side string
		)
		if err := rows.Scan(&ts, &rec.CycleID, &rec.Symbol, &action, &side, &rec.Quantity, &rec.Price,
			&rec.ResultingPosition, &rec.OrderID, &rec.Reason, &rec.Signal); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.Action = types.Action(action)
		rec.Side = types.Side(side)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountCycles returns the number of recorded cycles with the given outcome,
// or all cycles when outcome is empty.
func (r *SQLiteRecorder) CountCycles(outcome types.CycleOutcome) (int, error) {
	var n int
	var err error
	if outcome == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM cycles`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE outcome = ?`, string(outcome)).Scan(&n)
	}
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}
