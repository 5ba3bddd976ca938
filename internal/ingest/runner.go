// Package ingest runs the one-shot jobs that pull Copilot data from GitHub into the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/copilot-insights/internal/clock"
	obscontext "github.com/smallbiznis/copilot-insights/internal/observability/context"
	obslogger "github.com/smallbiznis/copilot-insights/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/copilot-insights/internal/observability/metrics"
	"github.com/smallbiznis/copilot-insights/internal/ratelimit"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/smallbiznis/copilot-insights/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobFetchMetrics = "fetch-metrics"
	JobFetchBilling = "fetch-billing"

	defaultJobTimeout = 5 * time.Minute
	pushTimeout       = 10 * time.Second
)

var ErrJobLocked = errors.New("job_locked")

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Usage    usagedomain.Service
	Seats    seatdomain.Service
	Metrics  MetricsSource
	Billing  SeatSource
	Locker   *ratelimit.JobLocker   `optional:"true"`
	JobStats *obsmetrics.JobMetrics `optional:"true"`
	Registry *prometheus.Registry   `optional:"true"`
	Pusher   obsmetrics.Pusher      `optional:"true"`
}

// Runner executes one ingestion job per call, guarded by a per-job lock.
type Runner struct {
	log      *zap.Logger
	clock    clock.Clock
	usage    usagedomain.Service
	seats    seatdomain.Service
	source   MetricsSource
	billing  SeatSource
	locker   *ratelimit.JobLocker
	metrics  *obsmetrics.JobMetrics
	registry *prometheus.Registry
	pusher   obsmetrics.Pusher
	timeout  time.Duration
}

func NewRunner(p Params) *Runner {
	return &Runner{
		log:      p.Log.Named("ingest"),
		clock:    p.Clock,
		usage:    p.Usage,
		seats:    p.Seats,
		source:   p.Metrics,
		billing:  p.Billing,
		locker:   p.Locker,
		metrics:  p.JobStats,
		registry: p.Registry,
		pusher:   p.Pusher,
		timeout:  defaultJobTimeout,
	}
}

// counts is what a job reports back to the runner for metrics and the finish log.
type counts struct {
	inserted  int
	updated   int
	unchanged int
	skipped   int
}

func (c counts) total() int {
	return c.inserted + c.updated + c.unchanged + c.skipped
}

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
}

func (r *Runner) runJob(parent context.Context, name string, fn func(ctx context.Context) (counts, error)) error {
	start := r.clock.Now()
	run := jobRun{job: name, runID: correlation.NewRunID(start), startedAt: start}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()
	ctx = obscontext.WithJobRun(ctx, name, run.runID)
	ctx = correlation.ContextWithCorrelationID(ctx, run.runID)
	log := obslogger.WithContext(ctx, r.log)

	token, acquired, err := r.locker.TryLock(ctx, name)
	if err != nil {
		log.Warn("ingest.job.lock_failed", zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	if !acquired {
		log.Warn("ingest.job.skipped", zap.String("reason", "locked"))
		return fmt.Errorf("%s: %w", name, ErrJobLocked)
	}
	defer func() {
		if err := r.locker.Release(context.WithoutCancel(ctx), name, token); err != nil {
			log.Warn("ingest.job.unlock_failed", zap.Error(err))
		}
	}()

	log.Info("ingest.job.start", zap.Duration("timeout", r.timeout))
	r.metrics.IncJobRun(name)

	result, err := fn(ctx)
	elapsed := r.clock.Now().Sub(start)
	r.metrics.ObserveJobDuration(name, elapsed)
	r.metrics.AddItems(name, obsmetrics.OutcomeInserted, result.inserted)
	r.metrics.AddItems(name, obsmetrics.OutcomeUpdated, result.updated)
	r.metrics.AddItems(name, obsmetrics.OutcomeUnchanged, result.unchanged)
	r.metrics.AddItems(name, obsmetrics.OutcomeSkipped, result.skipped)

	fields := []zap.Field{
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.Int("processed_count", result.total()),
		zap.Int("inserted", result.inserted),
		zap.Int("updated", result.updated),
		zap.Int("unchanged", result.unchanged),
		zap.Int("skipped", result.skipped),
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			r.metrics.IncJobTimeout(name)
		}
		r.metrics.IncJobError(name, err)
		log.Error("ingest.job.failed", append(fields, zap.Error(err))...)
		r.push(ctx, log)
		return fmt.Errorf("%s: %w", name, err)
	}

	r.metrics.MarkSuccess(name, r.clock.Now())
	log.Info("ingest.job.finish", fields...)
	r.push(ctx, log)
	return nil
}

// push ships the job registry for runs that end before any scrape happens.
func (r *Runner) push(ctx context.Context, log *zap.Logger) {
	if r.pusher == nil || r.registry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := r.pusher.Push(ctx, r.registry); err != nil {
		log.Warn("ingest.metrics.push_failed", zap.Error(err))
	}
}
