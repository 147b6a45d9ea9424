package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"sentiment-trader/internal/broker/brokerobs"
	"sentiment-trader/internal/broker/paper"
	"sentiment-trader/internal/broker/zerodha"
	"sentiment-trader/internal/engine"
	"sentiment-trader/internal/engine/engineobs"
	"sentiment-trader/internal/eod"
	"sentiment-trader/internal/eod/eodobs"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/market"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/news"
	"sentiment-trader/internal/recorder"
	"sentiment-trader/internal/scheduler"
	"sentiment-trader/internal/server"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/tradelog"
)

const shutdownTimeout = 10 * time.Second

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads the file named by CONFIG_PATH, config.yaml by default
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// retentionDays prefers TRADER_LOG_RETENTION_DAYS over the config file
func retentionDays(ctx context.Context, cfg *store.Config) int {
	v := os.Getenv("TRADER_LOG_RETENTION_DAYS")
	if v == "" {
		return cfg.TradeLog.RetentionDays
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn(ctx, "Ignoring invalid TRADER_LOG_RETENTION_DAYS", "value", v)
		return cfg.TradeLog.RetentionDays
	}
	return n
}

// initializeBroker picks the simulated or the Kite broker and wraps it with observability
func initializeBroker(ctx context.Context, cfg *store.Config) (interfaces.Broker, error) {
	var brk interfaces.Broker
	if cfg.Mode == "LIVE" {
		z, err := zerodha.NewZerodha(zerodha.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Exchange,
		})
		if err != nil {
			return nil, fmt.Errorf("live broker: %w", err)
		}
		logger.Warn(ctx, "Running in LIVE mode - orders go to the exchange", "exchange", cfg.Exchange)
		brk = z
	} else {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
		brk = paper.New(paper.Params{
			StartPrice:     cfg.Paper.StartPrice,
			Volatility:     cfg.Paper.Volatility,
			FillAfterPolls: cfg.Paper.FillAfterPolls,
			Seed:           cfg.Paper.Seed,
		})
	}
	return brokerobs.Wrap(brk), nil
}

func initializeMarket(cfg *store.Config) interfaces.MarketCalendar {
	if cfg.Market.Calendar != "SESSION" {
		return market.AlwaysOpen{}
	}
	// validated at load time
	open, _ := store.ParseClock(cfg.Market.Open)
	closeAt, _ := store.ParseClock(cfg.Market.Close)
	return market.NewSession(cfg.Location(), open, closeAt)
}

func initializeRecorder(ctx context.Context, cfg *store.Config) (recorder.Recorder, error) {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), nil
	}
	r, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Recording trades to SQLite", "path", cfg.Database.SQLitePath)
	return r, nil
}

type app struct {
	cfg       *store.Config
	history   *tradelog.History
	rec       recorder.Recorder
	eod       interfaces.EodSummarizer
	scheduler *scheduler.Scheduler
	server    *server.Server
}

func buildApp(ctx context.Context, cfg *store.Config) (*app, error) {
	logDir := tradelog.LogDir(cfg.TradeLog.Dir)
	retention := retentionDays(ctx, cfg)
	if err := tradelog.CompressOlder(logDir, retention); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}

	brk, err := initializeBroker(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rec, err := initializeRecorder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	history := tradelog.NewHistory(logDir, cfg.Location())
	src := news.NewSource(news.Config{
		BaseURL:   cfg.Source.BaseURL,
		Limit:     cfg.Source.Limit,
		Timeout:   cfg.Source.Timeout,
		StripHTML: cfg.Source.StripHTML,
		Sentiment: cfg.Source.Sentiment,
	})

	eng := engineobs.Wrap(engine.New(cfg, engine.Deps{
		Source:   src,
		Broker:   brk,
		Market:   initializeMarket(cfg),
		History:  history,
		Recorder: rec,
		Metrics:  m,
	}))

	var summarizer interfaces.EodSummarizer
	if cfg.TradeLog.EOD {
		summarizer = eodobs.Wrap(eod.NewSummarizer(logDir, cfg.Location()))
	}

	a := &app{
		cfg:     cfg,
		history: history,
		rec:     rec,
		eod:     summarizer,
		scheduler: scheduler.New(eng, scheduler.Options{
			Interval:      cfg.Interval,
			Location:      cfg.Location(),
			EOD:           summarizer,
			History:       history,
			LogDir:        logDir,
			RetentionDays: retention,
		}),
	}
	if cfg.Server.Listen != "" {
		a.server = server.New(cfg.Server.Listen, eng, history, m)
	}
	return a, nil
}

func (a *app) start(ctx context.Context) {
	if a.server != nil {
		a.server.Start()
	}
	a.scheduler.Start()
}

// shutdown runs between cycles: the scheduler waits for any running cycle
// before the history is flushed.
func (a *app) shutdown(ctx context.Context) {
	a.scheduler.Stop()

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Stop(sctx); err != nil {
			logger.ErrorWithErr(ctx, "Failed to stop status server", err)
		}
	}

	if err := a.history.Flush(a.cfg.TradeLog.HistoryFile); err != nil {
		logger.ErrorWithErr(ctx, "Failed to write trade history", err, "path", a.cfg.TradeLog.HistoryFile)
	} else {
		logger.Info(ctx, "Trade history written", "path", a.cfg.TradeLog.HistoryFile, "trades", a.history.Len())
	}

	if a.eod != nil {
		if _, err := a.eod.SummarizeDay(time.Now(), a.history.Records()); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write EOD summary", err)
		}
	}

	if err := a.rec.Close(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to close recorder", err)
	}
	if err := trace.Shutdown(sctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to shut down tracer", err)
	}
}
