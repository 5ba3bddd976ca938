package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	obslogger "github.com/smallbiznis/copilot-insights/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/copilot-insights/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repo       usagedomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       usagedomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		log:        p.Log.Named("usage.service"),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Ingest(ctx context.Context, payload []byte) (usagedomain.IngestResult, error) {
	var result usagedomain.IngestResult

	records, err := splitPayload(payload)
	if err != nil {
		return result, err
	}

	log := obslogger.WithContext(ctx, s.log)
	for i, record := range records {
		date, err := recordDate(record)
		if err != nil {
			result.Skipped++
			log.Warn("skipping usage record", zap.Int("index", i), zap.Error(err))
			continue
		}

		outcome, err := s.repo.Upsert(ctx, date, record)
		if err != nil {
			s.record(ctx, result)
			return result, fmt.Errorf("upsert usage %s: %w", date, err)
		}

		switch outcome {
		case usagedomain.UpsertInserted:
			result.Inserted++
		case usagedomain.UpsertUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
		log.Debug("usage record stored", zap.String("date", date), zap.String("outcome", string(outcome)))
	}

	s.record(ctx, result)
	return result, nil
}

func (s *Service) ListDays(ctx context.Context, filter usagedomain.ListFilter) ([]usagedomain.Day, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	days := make([]usagedomain.Day, 0, len(rows))
	for _, row := range rows {
		day, degraded, err := usagedomain.DecodeDay(row.Document)
		if err != nil {
			obslogger.WithContext(ctx, s.log).Warn("unreadable usage document",
				zap.String("date", row.Date),
				zap.Error(err),
			)
			day = usagedomain.Day{}
		} else if degraded {
			obslogger.WithContext(ctx, s.log).Debug("usage document partially decoded", zap.String("date", row.Date))
		}
		day.Date = row.Date
		days = append(days, day)
	}
	return days, nil
}

func (s *Service) record(ctx context.Context, result usagedomain.IngestResult) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordUsageRecords(ctx, string(usagedomain.UpsertInserted), result.Inserted)
	s.obsMetrics.RecordUsageRecords(ctx, string(usagedomain.UpsertUpdated), result.Updated)
	s.obsMetrics.RecordUsageRecords(ctx, string(usagedomain.UpsertUnchanged), result.Unchanged)
	s.obsMetrics.RecordUsageRecords(ctx, "skipped", result.Skipped)
}

// splitPayload accepts either one JSON object or an array of objects.
func splitPayload(payload []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, usagedomain.ErrInvalidPayload
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '[':
		var records []map[string]any
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %v", usagedomain.ErrInvalidPayload, err)
		}
		out := records[:0]
		for _, record := range records {
			if record != nil {
				out = append(out, record)
			}
		}
		return out, nil
	case '{':
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("%w: %v", usagedomain.ErrInvalidPayload, err)
		}
		return []map[string]any{record}, nil
	default:
		return nil, usagedomain.ErrInvalidPayload
	}
}

func recordDate(record map[string]any) (string, error) {
	raw, ok := record["date"].(string)
	if !ok {
		return "", usagedomain.ErrMissingDate
	}
	return usagedomain.NormalizeDate(raw)
}
