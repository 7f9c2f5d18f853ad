package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	goIdentity "github.com/MrEthical07/goIdentity"
)

const namespace = "goidentity"

type metricsSource interface {
	MetricsSnapshot() goIdentity.MetricsSnapshot
	AuditDropped() uint64
}

var counterHelp = map[goIdentity.MetricID]string{
	goIdentity.MetricRegisterSuccess:        "Successful registrations.",
	goIdentity.MetricRegisterDuplicate:      "Registrations rejected because the email exists.",
	goIdentity.MetricRegisterInvalid:        "Registrations rejected by input validation.",
	goIdentity.MetricLoginSuccess:           "Successful logins.",
	goIdentity.MetricLoginFailure:           "Failed logins.",
	goIdentity.MetricLoginUserNotFound:      "Failed logins for an unknown email.",
	goIdentity.MetricLoginPasswordMismatch:  "Failed logins with a wrong password.",
	goIdentity.MetricLoginRateLimited:       "Logins refused by the failed-login limiter.",
	goIdentity.MetricTokenIssued:            "Tokens issued.",
	goIdentity.MetricVerifySuccess:          "Tokens verified.",
	goIdentity.MetricVerifyFailure:          "Tokens rejected.",
	goIdentity.MetricVerifyExpired:          "Tokens rejected as expired.",
	goIdentity.MetricVerifyInvalidSignature: "Tokens rejected for a bad signature.",
	goIdentity.MetricVerifyMalformed:        "Tokens rejected as malformed.",
	goIdentity.MetricVerifyNotYetValid:      "Tokens rejected as not yet valid.",
}

// PrometheusExporter is a prometheus.Collector over engine metrics.
type PrometheusExporter struct {
	source   metricsSource
	counters map[goIdentity.MetricID]*prometheus.Desc
	latency  *prometheus.Desc
	dropped  *prometheus.Desc
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *goIdentity.Engine) *PrometheusExporter {
	return NewPrometheusExporterFromSource(engine)
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	p := &PrometheusExporter{
		source:   source,
		counters: make(map[goIdentity.MetricID]*prometheus.Desc, len(counterHelp)),
		latency: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "verify_latency_seconds"),
			"Token verification latency.", nil, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "audit_dropped_total"),
			"Audit events dropped under dispatcher backpressure.", nil, nil),
	}
	for id, help := range counterHelp {
		p.counters[id] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", id.String()+"_total"), help, nil, nil)
	}
	return p
}

// Describe implements prometheus.Collector.
func (p *PrometheusExporter) Describe(ch chan<- *prometheus.Desc) {
	for _, id := range goIdentity.MetricIDs() {
		if desc, ok := p.counters[id]; ok {
			ch <- desc
		}
	}
	ch <- p.latency
	ch <- p.dropped
}

// Collect implements prometheus.Collector. Nothing is emitted while the
// engine has metrics disabled, except the audit drop counter.
func (p *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	if p == nil || p.source == nil {
		return
	}

	snapshot := p.source.MetricsSnapshot()
	for _, id := range goIdentity.MetricIDs() {
		desc, ok := p.counters[id]
		if !ok {
			continue
		}
		value, ok := snapshot.Counters[id]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value))
	}

	if raw, ok := snapshot.Histograms[goIdentity.MetricVerifyLatency]; ok {
		count, buckets := cumulativeBuckets(raw)
		// Bucket counts carry no durations, so the sum is unknown.
		ch <- prometheus.MustNewConstHistogram(p.latency, count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(p.dropped, prometheus.CounterValue, float64(p.source.AuditDropped()))
}

// Handler serves the exporter together with Go runtime and process metrics
// from a private registry.
func (p *PrometheusExporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		p,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// cumulativeBuckets converts per-bucket counts into Prometheus upper bounds
// in seconds. The unbounded last bucket only contributes to count.
func cumulativeBuckets(raw []uint64) (uint64, map[float64]uint64) {
	buckets := make(map[float64]uint64, len(goIdentity.HistogramBounds))
	var running uint64
	for i, bound := range goIdentity.HistogramBounds {
		if i < len(raw) {
			running += raw[i]
		}
		buckets[bound.Seconds()] = running
	}
	for i := len(goIdentity.HistogramBounds); i < len(raw); i++ {
		running += raw[i]
	}
	return running, buckets
}
