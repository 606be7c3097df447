package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionState is a point-in-time view of a session.
type SessionState struct {
	Authenticated bool
	Generation    uint64
	Remaining     time.Duration
	RenewPending  bool
	CheckPending  bool
}

// SessionCollector reports live session state on every scrape.
type SessionCollector struct {
	state func() SessionState

	remaining  *prometheus.Desc
	generation *prometheus.Desc
	timers     *prometheus.Desc
}

// NewCollector creates a collector that calls state on each scrape.
func NewCollector(state func() SessionState) *SessionCollector {
	return &SessionCollector{
		state: state,
		remaining: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "remaining_seconds"),
			"Seconds until the current token expires",
			nil, nil,
		),
		generation: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "generation"),
			"Current session generation",
			nil, nil,
		),
		timers: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "timer_pending"),
			"1 when the named scheduler timer is armed",
			[]string{"timer"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.remaining
	ch <- c.generation
	ch <- c.timers
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.state()

	remaining := s.Remaining
	if !s.Authenticated || remaining < 0 {
		remaining = 0
	}
	ch <- prometheus.MustNewConstMetric(c.remaining, prometheus.GaugeValue, remaining.Seconds())
	ch <- prometheus.MustNewConstMetric(c.generation, prometheus.CounterValue, float64(s.Generation))
	ch <- prometheus.MustNewConstMetric(c.timers, prometheus.GaugeValue, boolFloat(s.RenewPending), "renew")
	ch <- prometheus.MustNewConstMetric(c.timers, prometheus.GaugeValue, boolFloat(s.CheckPending), "inactivity_check")
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
