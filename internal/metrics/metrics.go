package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	WidgetMutations   *prometheus.CounterVec
	DataStreamLookups *prometheus.CounterVec
	Revision          prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WidgetMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_mutations_total",
			Help:      "Widget create/delete operations by result.",
		}, []string{"operation", "result"}),
		DataStreamLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_stream_lookups_total",
			Help:      "Data stream lookups by whether any entry matched.",
		}, []string{"result"}),
		Revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "widgets_revision",
			Help:      "Current revision of the widget collection.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.WidgetMutations,
		c.DataStreamLookups,
		c.Revision,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveMutation records a create or delete; result is "ok" or the error kind.
func (c *Collector) ObserveMutation(operation, result string) {
	c.WidgetMutations.WithLabelValues(operation, result).Inc()
}

func (c *Collector) ObserveDataStreamLookup(matched bool) {
	result := "miss"
	if matched {
		result = "hit"
	}
	c.DataStreamLookups.WithLabelValues(result).Inc()
}

func (c *Collector) SetRevision(rev int64) {
	c.Revision.Set(float64(rev))
}
