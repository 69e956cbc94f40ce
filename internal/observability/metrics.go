package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// sandbox backend, server side
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_api_requests_total",
			Help: "Total campaign API requests served",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campaign_api_request_duration_seconds",
		Help:    "Campaign API latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campaign_api_in_flight",
		Help: "In-flight campaign API requests",
	})

	// client side
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_client_requests_total",
			Help: "Outgoing campaign requests by status code",
		}, []string{"method", "code"},
	)
	ClientLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campaign_client_request_duration_seconds",
		Help:    "Outgoing request latency seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	ClientInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campaign_client_in_flight",
		Help: "In-flight outgoing campaign requests",
	})
	FetchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_fetch_outcomes_total",
			Help: "Terminal fetch states by type",
		}, []string{"type"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight,
		ClientRequestsTotal, ClientLatency, ClientInFlight, FetchOutcomes)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// InstrumentTransport records outgoing calls made through next. Transport
// errors are counted under code "error".
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		ClientInFlight.Inc()
		defer ClientInFlight.Dec()

		res, err := next.RoundTrip(r)
		ClientLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		code := "error"
		if err == nil {
			code = strconv.Itoa(res.StatusCode)
		}
		ClientRequestsTotal.WithLabelValues(r.Method, code).Inc()
		return res, err
	})
}
