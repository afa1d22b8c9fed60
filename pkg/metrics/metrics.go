package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	IntentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapool_intents_created_total",
		Help: "The total number of intents created",
	})

	OpenIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapool_open_intents",
		Help: "The number of intents currently open for contributions",
	})

	Contributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_contributions_total",
		Help: "The total number of accepted contributions by custody path",
	}, []string{"path"})

	ContributionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_contribution_errors_total",
		Help: "Total number of rejected contributions by error type",
	}, []string{"error_type"})

	IntentsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_intents_executed_total",
		Help: "The total number of intent executions by status",
	}, []string{"status"})

	ExecutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_execution_errors_total",
		Help: "Total number of failed executions by error type",
	}, []string{"error_type"})

	ExecutionTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapool_execution_seconds",
		Help:    "Time taken to execute and distribute an intent",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	SharesDistributed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_shares_distributed_total",
		Help: "The total number of pro-rata shares credited by custody path",
	}, []string{"path"})

	DistributionDust = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapool_distribution_dust_total",
		Help: "Cumulative floor-rounding remainder left unassigned across settlements",
	})

	DistributionCreditFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_distribution_credit_failures_total",
		Help: "Total number of distribution credits rejected by a custody collaborator",
	}, []string{"path"})

	IntentsCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapool_intents_cleaned_total",
		Help: "The total number of expired intents reclaimed",
	})

	CleanupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_cleanup_errors_total",
		Help: "Total number of failed cleanup attempts by error type",
	}, []string{"error_type"})

	ExpiredAtExecute = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapool_expired_at_execute_total",
		Help: "Executions rejected because the intent deadline had passed",
	})

	// Sweeper related metrics

	ExpiredIntentsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapool_expired_intents_pending",
		Help: "The number of expired intents waiting to be reclaimed",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapool_sweep_seconds",
		Help:    "Time taken by a full expiry sweep pass",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	RetryQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapool_cleanup_retry_queue_size",
		Help: "Current size of the cleanup retry queue",
	})

	NextRetryIn = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapool_cleanup_next_retry_seconds",
		Help: "Seconds until the next scheduled cleanup retry",
	})

	RetriesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_cleanup_retries_executed_total",
		Help: "Number of cleanup retries that were executed",
	}, []string{"error_type"})

	RetriesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_cleanup_retries_skipped_total",
		Help: "Number of cleanup retries that were skipped",
	}, []string{"reason"})

	MaxRetriesReached = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapool_cleanup_max_retries_reached_total",
		Help: "Number of cleanup jobs that reached maximum retry attempts",
	}, []string{"error_type"})
)
