package metrics

import (
	"net/http"
	"time"

	"stitchpay/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry  *prometheus.Registry
	transfers *prometheus.CounterVec
	duration  prometheus.Histogram
	replays   prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stitchpay_transfers_total",
			Help: "Transfer attempts by terminal outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stitchpay_transfer_duration_seconds",
			Help:    "Time from transfer request to terminal outcome.",
			Buckets: prometheus.DefBuckets,
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stitchpay_credit_replays_total",
			Help: "Receiver credits replayed by the reconciler.",
		}),
	}
	c.registry.MustRegister(c.transfers, c.duration, c.replays)
	return c
}

func (c *Collector) RecordTransfer(outcome models.Outcome, duration time.Duration) {
	c.transfers.WithLabelValues(string(outcome)).Inc()
	c.duration.Observe(duration.Seconds())
}

func (c *Collector) RecordCreditReplay() {
	c.replays.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
