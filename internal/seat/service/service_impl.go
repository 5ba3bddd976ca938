package service

import (
	"context"
	"encoding/json"
	"fmt"

	obslogger "github.com/smallbiznis/copilot-insights/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/copilot-insights/internal/observability/metrics"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repo       seatdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       seatdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) seatdomain.Service {
	return &Service{
		log:        p.Log.Named("seat.service"),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Sync(ctx context.Context, seats []json.RawMessage) (seatdomain.SyncResult, error) {
	var result seatdomain.SyncResult
	log := obslogger.WithContext(ctx, s.log)

	for i, raw := range seats {
		incoming, err := seatdomain.ParseSeat(raw)
		if err != nil {
			result.Skipped++
			log.Warn("skipping seat", zap.Int("index", i), zap.Error(err))
			continue
		}

		fields := []zap.Field{
			zap.String("created_at", incoming.AssignedAt),
			zap.String("assignee_id", incoming.AssigneeID),
		}

		existing, err := s.repo.FindByIdentity(ctx, incoming.AssignedAt, incoming.AssigneeID)
		if err != nil {
			s.record(ctx, result)
			return result, fmt.Errorf("find seat %s/%s: %w", incoming.AssignedAt, incoming.AssigneeID, err)
		}

		if existing == nil {
			if err := s.repo.Insert(ctx, &incoming); err != nil {
				s.record(ctx, result)
				return result, fmt.Errorf("insert seat %s/%s: %w", incoming.AssignedAt, incoming.AssigneeID, err)
			}
			result.Inserted++
			log.Debug("seat inserted", fields...)
			continue
		}

		patch := seatdomain.Diff(*existing, incoming)
		if patch.Empty() {
			result.Unchanged++
			log.Debug("seat unchanged", fields...)
			continue
		}

		if err := s.repo.Patch(ctx, *existing, patch); err != nil {
			s.record(ctx, result)
			return result, fmt.Errorf("patch seat %s/%s: %w", incoming.AssignedAt, incoming.AssigneeID, err)
		}
		result.Updated++
		log.Debug("seat patched", append(fields, zap.Strings("fields", patch.Fields()))...)
	}

	s.record(ctx, result)
	return result, nil
}

func (s *Service) record(ctx context.Context, result seatdomain.SyncResult) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordSeatSync(ctx, "inserted", result.Inserted)
	s.obsMetrics.RecordSeatSync(ctx, "updated", result.Updated)
	s.obsMetrics.RecordSeatSync(ctx, "unchanged", result.Unchanged)
	s.obsMetrics.RecordSeatSync(ctx, "skipped", result.Skipped)
}
