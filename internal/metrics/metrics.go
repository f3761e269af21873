package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counts completed analyses by platform and resulting threat level.
var AnalysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aegis_analyses_total",
		Help: "Total number of completed comment analyses",
	},
	[]string{"platform", "threat_level"},
)

// Counts failed analyses by platform and stage.
var AnalysisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aegis_analysis_errors_total",
		Help: "Total number of analyses that failed",
	},
	[]string{"platform", "stage"},
)

// Measures engine run time, excluding scraping.
var AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "aegis_analysis_duration_seconds",
	Help:    "Time taken by the analysis engine",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
})

// Scraping metrics
var (
	CommentsScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_comments_scraped_total",
			Help: "Total number of comments fetched from platforms",
		},
		[]string{"platform"},
	)

	ScrapeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aegis_scrape_latency_seconds",
			Help:    "Time taken to fetch comments from a platform",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"platform"},
	)

	ModerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_moderation_requests_total",
			Help: "Total number of comments sent for third-party moderation",
		},
		[]string{"verdict"},
	)

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aegis_alerts_sent_total",
		Help: "Total number of watch list alerts dispatched",
	})
)
