package ingest

import (
	"context"

	"github.com/smallbiznis/copilot-insights/internal/github"
	obslogger "github.com/smallbiznis/copilot-insights/internal/observability/logger"
	"go.uber.org/zap"
)

// MetricsSource yields the raw usage metrics payload.
type MetricsSource interface {
	FetchMetrics(ctx context.Context) ([]byte, error)
}

// SeatSource yields the current billing seat assignments.
type SeatSource interface {
	FetchSeats(ctx context.Context) (github.SeatsPage, error)
}

// RunMetrics fetches the usage metrics once and upserts every day by date.
func (r *Runner) RunMetrics(ctx context.Context) error {
	return r.runJob(ctx, JobFetchMetrics, func(ctx context.Context) (counts, error) {
		payload, err := r.source.FetchMetrics(ctx)
		if err != nil {
			return counts{}, err
		}
		result, err := r.usage.Ingest(ctx, payload)
		return counts{
			inserted:  result.Inserted,
			updated:   result.Updated,
			unchanged: result.Unchanged,
			skipped:   result.Skipped,
		}, err
	})
}

// RunBilling fetches the seat list once and reconciles it with stored seats.
func (r *Runner) RunBilling(ctx context.Context) error {
	return r.runJob(ctx, JobFetchBilling, func(ctx context.Context) (counts, error) {
		page, err := r.billing.FetchSeats(ctx)
		if err != nil {
			return counts{}, err
		}
		obslogger.WithContext(ctx, r.log).Info("ingest.billing.fetched",
			zap.Int("total_seats", page.TotalSeats),
			zap.Int("seats_in_page", len(page.Seats)),
		)
		result, err := r.seats.Sync(ctx, page.Seats)
		return counts{
			inserted:  result.Inserted,
			updated:   result.Updated,
			unchanged: result.Unchanged,
			skipped:   result.Skipped,
		}, err
	})
}
