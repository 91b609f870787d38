package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	apiTotal   *prom.CounterVec
	apiSeconds *prom.HistogramVec
	pollTicks  *prom.CounterVec
	events     *prom.CounterVec
}

func (p *promRecorder) IncAPICallTotal(op string, success bool) {
	p.apiTotal.WithLabelValues(op, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveAPICallSeconds(op string, success bool, seconds float64) {
	p.apiSeconds.WithLabelValues(op, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncPollTickTotal(loop string, result string) {
	p.pollTicks.WithLabelValues(loop, result).Inc()
}

func (p *promRecorder) IncEventTotal(event string, success bool) {
	p.events.WithLabelValues(event, fmt.Sprintf("%t", success)).Inc()
}

// EnablePrometheus installs a Prometheus recorder on a fresh registry and
// returns the handler serving it. The caller mounts the handler.
func EnablePrometheus() http.Handler {
	registry := prom.NewRegistry()
	p := &promRecorder{
		apiTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "relminer_api_calls_total",
			Help: "Total number of backend API calls",
		}, []string{"op", "success"}),
		apiSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "relminer_api_call_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
		pollTicks: prom.NewCounterVec(prom.CounterOpts{
			Name: "relminer_poll_ticks_total",
			Help: "Total number of poll ticks by loop and result",
		}, []string{"loop", "result"}),
		events: prom.NewCounterVec(prom.CounterOpts{
			Name: "relminer_events_published_total",
			Help: "Total number of published session events",
		}, []string{"event", "success"}),
	}

	registry.MustRegister(p.apiTotal, p.apiSeconds, p.pollTicks, p.events)
	SetRecorder(p)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
