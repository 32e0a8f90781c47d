package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afkbot"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg          *prom.Registry
	activations  *prom.CounterVec
	deactivation prom.Counter
	autoReplies  *prom.CounterVec
	persistFails *prom.CounterVec
	away         prom.Gauge
	notified     prom.Gauge
}

// NewPrometheusRecorder creates the afkbot metrics and registers them, together
// with the Go runtime and process collectors, on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		activations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Away sessions started, labelled by whether a running session was restarted",
		}, []string{"restarted"}),
		deactivation: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deactivations_total",
			Help:      "Away sessions ended",
		}),
		autoReplies: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "auto_replies_total",
			Help:      "Automatic replies by outcome",
		}, []string{"outcome"}),
		persistFails: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "State saves that failed, by operation",
		}, []string{"op"}),
		away: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "away",
			Help:      "1 while an away session is running",
		}),
		notified: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "notified_senders",
			Help:      "Senders answered in the current away session",
		}),
	}
	reg.MustRegister(pr.activations, pr.deactivation, pr.autoReplies, pr.persistFails, pr.away, pr.notified)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return pr
}

// RegisterSenderErrors exposes a failed-send counter read at scrape time.
func (p *PrometheusRecorder) RegisterSenderErrors(read func() uint64) {
	if p == nil || read == nil {
		return
	}
	p.reg.MustRegister(prom.NewCounterFunc(prom.CounterOpts{
		Namespace: namespace,
		Name:      "sender_failed_jobs_total",
		Help:      "Outbound Telegram calls that failed after retries",
	}, func() float64 { return float64(read()) }))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncActivated(restarted bool) {
	if p == nil {
		return
	}
	p.activations.WithLabelValues(strconv.FormatBool(restarted)).Inc()
}

func (p *PrometheusRecorder) IncDeactivated() {
	if p == nil {
		return
	}
	p.deactivation.Inc()
}

func (p *PrometheusRecorder) IncAutoReply(outcome ReplyOutcome) {
	if p == nil {
		return
	}
	p.autoReplies.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPersistenceFailure(op string) {
	if p == nil {
		return
	}
	p.persistFails.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) SetAway(away bool, notified int) {
	if p == nil {
		return
	}
	if away {
		p.away.Set(1)
	} else {
		p.away.Set(0)
	}
	p.notified.Set(float64(notified))
}
