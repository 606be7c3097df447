package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "x2conn"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Registry holds the session manager's metrics.
// A nil *Registry is valid and records nothing.
type Registry struct {
	gatherer prometheus.Gatherer

	Logins          *prometheus.CounterVec
	Logouts         *prometheus.CounterVec
	Renewals        *prometheus.CounterVec
	Authenticated   prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates the metrics and registers them with reg.
// A nil reg gets a fresh prometheus.Registry with Go and process collectors.
func NewRegistry(reg *prometheus.Registry) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Registry{
		gatherer: reg,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Session terminations by reason",
		}, []string{"reason"}),
		Renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "renewals_total",
			Help:      "Token renewals by result",
		}, []string{"result"}),
		Authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 while a session token is held",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}

	reg.MustRegister(r.Logins, r.Logouts, r.Renewals, r.Authenticated, r.RequestDuration)
	return r
}

// Register adds extra collectors (store gauges, session collector).
func (r *Registry) Register(cs ...prometheus.Collector) error {
	if r == nil {
		return nil
	}
	reg, ok := r.gatherer.(prometheus.Registerer)
	if !ok {
		return nil
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Registerer returns the underlying registerer, or nil.
func (r *Registry) Registerer() prometheus.Registerer {
	if r == nil {
		return nil
	}
	reg, _ := r.gatherer.(prometheus.Registerer)
	return reg
}

// Gatherer returns the underlying gatherer, or nil.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.gatherer
}

// LoginResult counts one login attempt.
func (r *Registry) LoginResult(ok bool) {
	if r == nil {
		return
	}
	r.Logins.WithLabelValues(result(ok)).Inc()
}

// RenewalResult counts one renewal attempt.
func (r *Registry) RenewalResult(ok bool) {
	if r == nil {
		return
	}
	r.Renewals.WithLabelValues(result(ok)).Inc()
}

// Logout counts one session termination.
func (r *Registry) Logout(reason string) {
	if r == nil {
		return
	}
	r.Logouts.WithLabelValues(reason).Inc()
}

// SetAuthenticated records whether a token is held.
func (r *Registry) SetAuthenticated(v bool) {
	if r == nil {
		return
	}
	if v {
		r.Authenticated.Set(1)
	} else {
		r.Authenticated.Set(0)
	}
}

// ObserveRequest records an outgoing request. status 0 means no response.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.RequestDuration.WithLabelValues(method, code).Observe(elapsed.Seconds())
}

// Handler returns the HTTP handler for /metrics.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
