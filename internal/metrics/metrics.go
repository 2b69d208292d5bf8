package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rciconnect",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rciconnect",
			Name:      "applications_total",
			Help:      "Consultant application transitions by status.",
		},
		[]string{"status"},
	)

	newsletterSignups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rciconnect",
			Name:      "newsletter_signups_total",
			Help:      "Newsletter subscribe requests that created or revived a subscriber.",
		},
	)

	sheetsSyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rciconnect",
			Name:      "sheets_sync_failures_total",
			Help:      "Google Sheets sync tasks that exhausted their retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, applications, newsletterSignups, sheetsSyncFailures)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncApplication records an application entering the given status.
func IncApplication(status string) {
	applications.WithLabelValues(status).Inc()
}

func IncNewsletterSignup() {
	newsletterSignups.Inc()
}

func IncSheetsSyncFailure() {
	sheetsSyncFailures.Inc()
}
