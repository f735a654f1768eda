package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "empty"
	StatusSkipped = "skipped"
)

var (
	SignalsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_signals_fetched_total",
		Help: "The total number of trend signals returned by fetchers",
	}, []string{"source"})

	FetcherRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_fetcher_runs_total",
		Help: "Fetcher runs by source and outcome",
	}, []string{"source", "status"})

	FetcherDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendpulse_fetcher_duration_seconds",
		Help:    "Duration of one fetcher run",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"source"})

	SignalsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendpulse_signals_stored_total",
		Help: "The total number of new signals written to the signal store",
	})

	SignalsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendpulse_signals_pruned_total",
		Help: "The total number of signals removed after the retention window",
	})

	ClustersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendpulse_clusters_active",
		Help: "Number of clusters produced by the last clustering run",
	})

	ClustersByDirection = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trendpulse_clusters_by_direction",
		Help: "Clusters produced by the last clustering run by trend direction",
	}, []string{"direction"})

	ClusteringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendpulse_clustering_duration_seconds",
		Help:    "Duration of one clustering run",
		Buckets: prometheus.DefBuckets,
	})

	FatigueBuckets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trendpulse_fatigue_bucket_size",
		Help: "Cluster count per fatigue bucket from the last fatigue run",
	}, []string{"bucket"})

	ImageProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_image_provider_requests_total",
		Help: "Image provider calls by provider and outcome",
	}, []string{"provider", "status"})

	ImageProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendpulse_image_provider_duration_seconds",
		Help:    "Duration of image provider calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	ImageSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_image_selections_total",
		Help: "Image selection outcomes by winning source (none when nothing valid)",
	}, []string{"source"})

	AIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendpulse_ai_request_duration_seconds",
		Help:    "Duration of AI capability requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_ai_requests_total",
		Help: "AI capability requests by provider and outcome",
	}, []string{"provider", "status"})

	AIProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trendpulse_ai_provider_available",
		Help: "Whether an AI provider is configured (1) or not (0)",
	}, []string{"provider"})

	DraftsSynthesized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_drafts_synthesized_total",
		Help: "Synthesized drafts by provenance",
	}, []string{"source"})

	ValidationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_validation_outcomes_total",
		Help: "Validation pipeline topic outcomes",
	}, []string{"outcome"})

	ValidationAvgConfidence = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendpulse_validation_avg_confidence",
		Help: "Average confidence across topics of the last validation batch",
	})

	ValidationBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendpulse_validation_batch_duration_seconds",
		Help:    "Duration of one validation batch",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	DraftsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_drafts_persisted_total",
		Help: "Draft persistence outcomes",
	}, []string{"status"})

	SlugRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendpulse_slug_retries_total",
		Help: "Draft inserts retried after a slug conflict",
	})
)
