// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package. Unlike the Datadog backend it has no flush loop
// of its own: counters accumulate in a private registry and Flush pushes the
// whole registry to the gateway, grouped by job name.
package prompush

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend implements metrics.Backend against a Pushgateway.
type Backend struct {
	pusher *push.Pusher
	reg    *prometheus.Registry

	mu        sync.Mutex
	counters  map[string]prometheus.Counter
	summaries map[string]prometheus.Summary
}

// NewBackend creates a Pushgateway backend pushing under the given job name.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if strings.TrimSpace(job) == "" {
		return nil, fmt.Errorf("prompush: job name is required")
	}
	if strings.TrimSpace(gatewayURL) == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}

	reg := prometheus.NewRegistry()
	return &Backend{
		pusher:    push.New(gatewayURL, job).Gatherer(reg),
		reg:       reg,
		counters:  map[string]prometheus.Counter{},
		summaries: map[string]prometheus.Summary{},
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64) {
	if name == "" || delta <= 0 {
		return
	}

	b.mu.Lock()
	c, ok := b.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Name: sanitizeName("flightetl_" + name + "_total"),
			Help: "flightetl counter " + name,
		})
		b.reg.MustRegister(c)
		b.counters[name] = c
	}
	b.mu.Unlock()

	c.Add(delta)
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64) {
	if name == "" || seconds < 0 {
		return
	}

	b.mu.Lock()
	s, ok := b.summaries[name]
	if !ok {
		s = prometheus.NewSummary(prometheus.SummaryOpts{
			Name: sanitizeName("flightetl_" + name),
			Help: "flightetl duration " + name,
		})
		b.reg.MustRegister(s)
		b.summaries[name] = s
	}
	b.mu.Unlock()

	s.Observe(seconds)
}

// Flush pushes the registry to the gateway, replacing any previously pushed
// group for this job.
func (b *Backend) Flush() error {
	return b.pusher.Push()
}

// sanitizeName maps arbitrary metric names onto the Prometheus charset.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		}
		return '_'
	}, name)
}
