package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Values of the op label on StoreErrors.
const (
	StoreOpInsert = "insert"
	StoreOpList   = "list"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MessagesAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Total number of messages accepted by the store",
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_errors_total",
			Help: "Total number of failed store calls per operation",
		},
		[]string{"op"},
	)

	AuthDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_auth_denied_total",
			Help: "Total number of requests rejected by the API key gate",
		},
	)

	SecretsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_secrets_loaded",
			Help: "1 when the database secrets were loaded and the store was built",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(MessagesAppended)
	prometheus.MustRegister(StoreErrors)
	prometheus.MustRegister(AuthDenied)
	prometheus.MustRegister(SecretsLoaded)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
