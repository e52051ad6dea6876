package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	trades         *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	messagesSent   *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	portfolioValue prometheus.Gauge
	cash           prometheus.Gauge
	subscribers    prometheus.Gauge
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_trades_total",
				Help: "Executed paper trades",
			},
			[]string{"action", "ticker"},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_trade_rejections_total",
				Help: "Decisions that did not result in a trade",
			},
			[]string{"reason"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_decisions_total",
				Help: "Decisions produced per source",
			},
			[]string{"source", "action"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_journal_messages_total",
				Help: "Trade records sent to the journal backend",
			},
			[]string{"backend", "symbol"},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newstrader_broadcast_deliveries_total",
				Help: "Subscriber deliveries by result",
			},
			[]string{"result"},
		),
		portfolioValue: f.NewGauge(prometheus.GaugeOpts{
			Name: "newstrader_portfolio_value",
			Help: "Current total portfolio value",
		}),
		cash: f.NewGauge(prometheus.GaugeOpts{
			Name: "newstrader_cash",
			Help: "Current cash balance",
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "newstrader_subscribers",
			Help: "Connected broadcast subscribers",
		}),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "newstrader_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newstrader_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTrade(action, ticker string) {
	r.trades.WithLabelValues(action, ticker).Inc()
}

func (r *Recorder) RecordRejection(reason string) {
	r.rejections.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordDecision(source, action string) {
	r.decisions.WithLabelValues(source, action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

func (r *Recorder) RecordDelivery(result string) {
	r.deliveries.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordPortfolio(value, cash float64) {
	r.portfolioValue.Set(value)
	r.cash.Set(cash)
}

func (r *Recorder) RecordSubscribers(n int) {
	r.subscribers.Set(float64(n))
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Used in tests and when metrics are disabled.
type Nop struct{}

func (Nop) RecordTrade(string, string)       {}
func (Nop) RecordRejection(string)           {}
func (Nop) RecordDecision(string, string)    {}
func (Nop) RecordError(string)               {}
func (Nop) RecordMessageSent(string, string) {}
func (Nop) RecordDelivery(string)            {}
func (Nop) RecordPortfolio(float64, float64) {}
func (Nop) RecordSubscribers(int)            {}
func (Nop) RecordLastPrice(string, float64)  {}
func (Nop) RecordLatency(string, float64)    {}
