package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

// Metrics holds the RPC collectors. Create one per process and register it
// once; tests may use an unregistered instance.
type Metrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	BatchSize    prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trpc_calls_total",
				Help: "Dispatched procedure calls by procedure, caller and result code",
			},
			[]string{"procedure", "username", "code"}, // code: OK|BAD_REQUEST|NOT_FOUND|...
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trpc_call_duration_seconds",
				Help:    "Time spent in dispatch, including validation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trpc_batch_size",
			Help:    "Number of calls per batch request",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
	}
}

func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		m.CallsTotal,
		m.CallDuration,
		m.BatchSize,
	)
}

// ObserveCall implements rpc.Observer.
func (m *Metrics) ObserveCall(_ context.Context, c rpc.Call) {
	code := "OK"
	if c.Err != nil {
		code = rpc.CodeOf(c.Err)
	}
	m.CallsTotal.WithLabelValues(c.Procedure, c.Username, code).Inc()
	m.CallDuration.WithLabelValues(c.Procedure).Observe(c.Duration.Seconds())
}
