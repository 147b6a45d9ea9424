package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentiment-trader/internal/types"
)

// Recorder exports trading metrics on its own registry. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	trades        *prometheus.CounterVec
	signal        prometheus.Gauge
	position      prometheus.Gauge
	lastPrice     prometheus.Gauge
	cycleDuration prometheus.Histogram
	skipped       prometheus.Counter
}

// New creates a Prometheus metrics recorder with Go runtime collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_cycles_total",
				Help: "Trading cycles by outcome",
			},
			[]string{"outcome"},
		),
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_trades_total",
				Help: "Filled trades by action and reason",
			},
			[]string{"action", "reason"},
		),
		signal: f.NewGauge(prometheus.GaugeOpts{
			Name: "trader_signal_value",
			Help: "Last aggregate sentiment signal",
		}),
		position: f.NewGauge(prometheus.GaugeOpts{
			Name: "trader_position_quantity",
			Help: "Current position quantity",
		}),
		lastPrice: f.NewGauge(prometheus.GaugeOpts{
			Name: "trader_last_price",
			Help: "Last observed price",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "Duration of a trading cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "trader_articles_skipped_total",
			Help: "Articles dropped as malformed",
		}),
	}
}

// ObserveCycle records everything a finished cycle reports.
func (r *Recorder) ObserveCycle(res *types.CycleResult) {
	if r == nil || res == nil {
		return
	}
	r.cycles.WithLabelValues(string(res.Outcome)).Inc()
	r.cycleDuration.Observe(res.Duration.Seconds())
	r.position.Set(float64(res.Position.Quantity))
	if res.Skipped > 0 {
		r.skipped.Add(float64(res.Skipped))
	}
	if res.Signal.SampleCount > 0 {
		r.signal.Set(res.Signal.Value)
	}
	if res.Price > 0 {
		r.lastPrice.Set(res.Price)
	}
}

func (r *Recorder) RecordTrade(rec types.TradeRecord) {
	if r == nil {
		return
	}
	r.trades.WithLabelValues(string(rec.Action), rec.Reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
