package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/observability"
)

// IngestStage fetches and persists readings for all cities.
type IngestStage interface {
	Run(ctx context.Context) int
}

// AggregateStage writes daily summaries from today's readings.
type AggregateStage interface {
	Run(ctx context.Context, now time.Time) int
}

// EvaluateStage checks threshold rules against the latest readings.
type EvaluateStage interface {
	Run(ctx context.Context) int
}

// Scheduler fires the ingestion cycle at a fixed interval. The phases run in
// strict sequence because evaluation reads "latest reading" and aggregation
// reads "today's readings", both of which must include this cycle's writes.
// If a cycle outlives the interval the next tick is skipped, never overlapped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingest    IngestStage
	aggregate AggregateStage
	evaluate  EvaluateStage
	interval  time.Duration
	logger    *zap.Logger
	running   atomic.Bool
}

// New creates a scheduler over the three pipeline stages.
func New(interval time.Duration, ingest IngestStage, aggregate AggregateStage, evaluate EvaluateStage, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		ingest:    ingest,
		aggregate: aggregate,
		evaluate:  evaluate,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the recurring cycle and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		s.RunCycle(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future cycles.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunCycle executes one full ingest, aggregate, evaluate sequence. A cycle
// that is still running when the next one is requested causes the new
// request to be skipped.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous cycle still running, skipping this tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	s.logger.Info("ingestion cycle started")

	stored := s.ingest.Run(ctx)
	written := s.aggregate.Run(ctx, time.Now())
	fired := s.evaluate.Run(ctx)

	elapsed := time.Since(start)
	observability.CyclesTotal.Inc()
	observability.CycleDuration.Observe(elapsed.Seconds())

	s.logger.Info("ingestion cycle completed",
		zap.Int("readingsStored", stored),
		zap.Int("summariesWritten", written),
		zap.Int("alertsFired", fired),
		zap.Duration("elapsed", elapsed))
}
