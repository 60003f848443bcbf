package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// CartMetrics counts cart mutations by operation and outcome.
type CartMetrics struct {
	mutations *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	reg.MustRegister(mutations)
	return &CartMetrics{mutations: mutations}
}

// Observe counts one mutation; a nil err is recorded as ok.
func (c *CartMetrics) Observe(op string, err error) {
	if c == nil || c.mutations == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}
