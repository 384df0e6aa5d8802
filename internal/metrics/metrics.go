package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected by the rate limiter"},
		[]string{"route"},
	)

	// scraper side
	ScrapedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scraper_records_total", Help: "Raw tender records by validation outcome"},
		[]string{"source", "outcome"}, // accepted | rejected
	)
	SavedTenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scraper_saved_tenders_total", Help: "Tender writes by result"},
		[]string{"source", "result"}, // inserted | updated | failed
	)
	ScrapeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Duration of a single source run",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"source"},
	)
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "notifier_sent_total", Help: "Tender notifications delivered"},
	)
)

func MustRegister() {
	prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight, RateLimited)
}

func MustRegisterScraper() {
	prometheus.MustRegister(ScrapedRecords, SavedTenders, ScrapeDuration)
}

func MustRegisterNotifier() {
	prometheus.MustRegister(NotificationsSent)
}
