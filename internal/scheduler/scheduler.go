package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/tradelog"
)

// Options configures the cycle loop.
type Options struct {
	Interval time.Duration
	Location *time.Location
	// EOD writes the summary of a finished day; nil disables it.
	EOD     interfaces.EodSummarizer
	History *tradelog.History
	// LogDir and RetentionDays drive journal compression at day rollover.
	LogDir        string
	RetentionDays int
}

// Scheduler runs engine cycles on a fixed interval. Cycles never overlap:
// a tick that arrives while a cycle is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	engine interfaces.Engine
	opts   Options
	job    cron.Job
	now    func() time.Time

	wg      sync.WaitGroup
	mu      sync.Mutex
	lastDay string
}

func New(eng interfaces.Engine, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	cl := cronLogger{}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(opts.Location), cron.WithLogger(cl)),
		engine: eng,
		opts:   opts,
		now:    time.Now,
	}
	// Recover sits inside the skip guard so a panicking cycle still releases it.
	s.job = cron.NewChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)).Then(cron.FuncJob(s.runCycle))
	return s
}

// Start schedules the loop and runs the first cycle right away.
func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.opts.Interval), s.job)
	s.cron.Start()
	logger.Info(context.Background(), "Scheduler started", "interval", s.opts.Interval.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
}

// Stop prevents new cycles and waits for a running one to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	logger.Info(context.Background(), "Scheduler stopped")
}

// RunOnce runs a single cycle synchronously, outside the schedule.
func (s *Scheduler) RunOnce() {
	s.job.Run()
}

func (s *Scheduler) runCycle() {
	// cycles are never cancelled mid-flight; shutdown waits for them
	ctx := context.Background()
	if _, err := s.engine.Step(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Cycle ended with error", err)
	}
	s.afterCycle(ctx, s.now())
}

// afterCycle writes the previous day's summary the first time a cycle
// runs on a new calendar day.
func (s *Scheduler) afterCycle(ctx context.Context, now time.Time) {
	day := now.In(s.opts.Location).Format("2006-01-02")

	s.mu.Lock()
	prev := s.lastDay
	s.lastDay = day
	s.mu.Unlock()

	if prev == "" || prev == day {
		return
	}
	logger.Info(ctx, "Trading day rolled over", "previous", prev, "current", day)

	if s.opts.EOD != nil && s.opts.History != nil {
		prevDay, err := time.ParseInLocation("2006-01-02", prev, s.opts.Location)
		if err == nil {
			if _, err := s.opts.EOD.SummarizeDay(prevDay, s.opts.History.Records()); err != nil {
				logger.ErrorWithErr(ctx, "End-of-day summary failed", err, "day", prev)
			}
		}
	}
	if s.opts.LogDir != "" && s.opts.RetentionDays > 0 {
		if err := tradelog.CompressOlder(s.opts.LogDir, s.opts.RetentionDays); err != nil {
			logger.ErrorWithErr(ctx, "Journal compression failed", err, "dir", s.opts.LogDir)
		}
	}
}

// cronLogger routes cron's own messages through the structured logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(context.Background(), "cron: "+msg, err, keysAndValues...)
}
