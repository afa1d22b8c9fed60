// Package sweeper runs the permissionless expiry garbage collection: it
// periodically scans for intents past deadline plus grace and reclaims them
// through the engine.
package sweeper

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/circuitbreaker"
	"github.com/swapool-hq/swapool/pkg/engine"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/metrics"
	"github.com/swapool-hq/swapool/pkg/models"
)

// Sweeper drives expired-intent reclamation
type Sweeper struct {
	engine      *engine.Engine
	interval    time.Duration
	workers     int
	maxRetries  int
	mu          sync.Mutex
	pendingJobs chan common.Hash
	retryJobs   chan models.CleanupJob
	wg          sync.WaitGroup
	breaker     *circuitbreaker.CircuitBreaker
	logger      logger.Logger
}

// New creates a sweeper over the given engine
func New(eng *engine.Engine, interval time.Duration, workers, maxRetries int, breaker *circuitbreaker.CircuitBreaker, log logger.Logger) *Sweeper {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Sweeper{
		engine:      eng,
		interval:    interval,
		workers:     workers,
		maxRetries:  maxRetries,
		pendingJobs: make(chan common.Hash, 100),       // Buffer for reclaimable intents
		retryJobs:   make(chan models.CleanupJob, 100), // Buffer for retry jobs
		breaker:     breaker,
		logger:      log,
	}
}

// Start begins the sweep loop and blocks until the context is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.NoticeWithScope(logger.Sweep, "Starting sweeper with %d workers, interval %v", s.workers, s.interval)
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx, i)
	}

	go s.retryHandler(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.NoticeWithScope(logger.Sweep, "Context cancelled, shutting down sweeper")
			// retryJobs stays open: processRetryJobs re-queues into it
			// and nothing ranges over it.
			close(s.pendingJobs)
			s.wg.Wait() // Wait for all workers to finish
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single scan pass, queueing every reclaimable intent
func (s *Sweeper) Sweep(_ context.Context) {
	start := time.Now()
	expired := s.engine.ExpiredIntents()
	metrics.ExpiredIntentsPending.Set(float64(len(expired)))

	if len(expired) > 0 {
		s.logger.InfoWithScope(logger.Sweep, "Found %d reclaimable intents", len(expired))
	}

	for _, id := range expired {
		s.wg.Add(1)
		s.pendingJobs <- id
	}
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
}

// worker reclaims intents from the job queue
func (s *Sweeper) worker(ctx context.Context, id int) {
	s.logger.DebugWithScope(logger.Sweep, "Starting worker %d", id)
	for {
		select {
		case <-ctx.Done():
			// Start closes pendingJobs on the same signal; account for
			// anything still queued so wg.Wait can return.
			for range s.pendingJobs {
				s.wg.Done()
			}
			return
		case intentID, ok := <-s.pendingJobs:
			if !ok {
				return
			}
			s.reclaim(ctx, id, intentID, 0)
			s.wg.Done()
		}
	}
}

func (s *Sweeper) reclaim(ctx context.Context, worker int, intentID common.Hash, retryCount int) {
	if s.breaker != nil && s.breaker.IsOpen() {
		s.logger.DebugWithScope(logger.Sweep, "Worker %d: circuit open, deferring intent %s", worker, intentID.Hex())
		s.queueForRetry(intentID, retryCount, "circuit_breaker_open")
		return
	}

	err := s.engine.CleanupExpired(ctx, intentID)
	if err == nil {
		s.logger.InfoWithScope(logger.Sweep, "Worker %d reclaimed intent %s", worker, intentID.Hex())
		return
	}

	// Terminal outcomes: someone else reclaimed it, it executed in the
	// meantime, or it is simply not reclaimable yet. No retry.
	if errors.Is(err, engine.ErrIntentNotFound) ||
		errors.Is(err, engine.ErrAlreadyExecuted) ||
		errors.Is(err, engine.ErrNotYetExpired) {
		s.logger.DebugWithScope(logger.Sweep, "Worker %d dropping intent %s: %v", worker, intentID.Hex(), err)
		return
	}

	// Custody collaborator failure: record and retry with backoff.
	if s.breaker != nil {
		s.breaker.RecordFailure()
	}
	s.logger.ErrorWithScope(logger.Sweep, "Worker %d failed to reclaim intent %s: %v", worker, intentID.Hex(), err)
	s.queueForRetry(intentID, retryCount, engine.ClassifyError(err))
}

// queueForRetry schedules another attempt with exponential backoff
func (s *Sweeper) queueForRetry(intentID common.Hash, retryCount int, errorType string) {
	if retryCount >= s.maxRetries {
		s.logger.ErrorWithScope(logger.Sweep, "Max retries exceeded for intent %s: %s", intentID.Hex(), errorType)
		metrics.MaxRetriesReached.WithLabelValues(errorType).Inc()
		return
	}

	// Exponential backoff (2^retry * 10 seconds), capped at 10 minutes
	backoff := time.Duration(math.Pow(2, float64(retryCount))) * 10 * time.Second
	if backoff > 10*time.Minute {
		backoff = 10 * time.Minute
	}

	job := models.CleanupJob{
		IntentID:    intentID,
		RetryCount:  retryCount + 1,
		NextAttempt: time.Now().Add(backoff),
		ErrorType:   errorType,
	}

	select {
	case s.retryJobs <- job:
		metrics.RetryQueueSize.Set(float64(len(s.retryJobs)))
	default:
		s.logger.ErrorWithScope(logger.Sweep, "Retry queue full, dropping intent %s", intentID.Hex())
	}
}

// retryHandler re-queues cleanup jobs whose backoff has elapsed
func (s *Sweeper) retryHandler(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.processRetryJobs(ctx)
		}
	}
}

// processRetryJobs processes jobs in the retry queue
func (s *Sweeper) processRetryJobs(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for {
		select {
		case job, ok := <-s.retryJobs:
			if !ok {
				return
			}
			if now.Before(job.NextAttempt) {
				// Put the job back in the queue
				s.retryJobs <- job
				metrics.NextRetryIn.Set(time.Until(job.NextAttempt).Seconds())
				return
			}

			if s.breaker != nil && s.breaker.IsOpen() {
				s.retryJobs <- job
				metrics.RetriesSkipped.WithLabelValues("circuit_breaker_open").Inc()
				return
			}

			metrics.RetriesExecuted.WithLabelValues(job.ErrorType).Inc()
			s.reclaim(ctx, -1, job.IntentID, job.RetryCount)
		default:
			metrics.RetryQueueSize.Set(float64(len(s.retryJobs)))
			return
		}
	}
}
