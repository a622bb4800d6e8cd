package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric the Prometheus factory registers.
const Namespace = "subchain"

// PrometheusFactory is a MetricFactory backed by a Prometheus registry.
// Asking for the same name twice returns the collector registered first.
type PrometheusFactory struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
	gauges     map[string]prometheus.GaugeFunc
}

var _ MetricFactory = (*PrometheusFactory)(nil)

// NewPrometheusFactory creates a factory registering into registry.
func NewPrometheusFactory(registry *prometheus.Registry) *PrometheusFactory {
	return &PrometheusFactory{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
		gauges:     make(map[string]prometheus.GaugeFunc),
	}
}

// Counter implements MetricFactory. Dotted names become underscore
// separated and gain a _total suffix.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}

	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricName(name) + "_total",
		Help: "Total " + strings.ReplaceAll(trimNamespace(name), ".", " "),
	})
	f.registry.MustRegister(c)
	f.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricName(name),
		Help:    "Distribution of " + strings.ReplaceAll(trimNamespace(name), ".", " "),
		Buckets: prometheus.ExponentialBuckets(1, 10, 12),
	})
	f.registry.MustRegister(h)
	f.histograms[name] = h
	return h
}

// GaugeFunc registers a gauge whose value is read from fn at scrape time.
// Registering a name twice keeps the first fn.
func (f *PrometheusFactory) GaugeFunc(name string, fn func() float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.gauges[name]; ok {
		return
	}

	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: MetricName(name),
		Help: "Current " + strings.ReplaceAll(trimNamespace(name), ".", " "),
	}, fn)
	f.registry.MustRegister(g)
	f.gauges[name] = g
}

// Handler serves the registry in the Prometheus exposition format.
func (f *PrometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}

// MetricName converts a dotted metric name into a Prometheus one, adding
// the namespace when missing.
func MetricName(name string) string {
	n := strings.NewReplacer(".", "_", "-", "_").Replace(trimNamespace(name))
	return Namespace + "_" + n
}

func trimNamespace(name string) string {
	return strings.TrimPrefix(name, Namespace+".")
}
