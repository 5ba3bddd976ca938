package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/samber/lo"
	"github.com/smallbiznis/copilot-insights/internal/aggregate"
	"github.com/smallbiznis/copilot-insights/internal/cache"
	"github.com/smallbiznis/copilot-insights/internal/config"
	dashboarddomain "github.com/smallbiznis/copilot-insights/internal/dashboard/domain"
	obslogger "github.com/smallbiznis/copilot-insights/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/copilot-insights/internal/observability/metrics"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const debugSampleSize = 10

type Params struct {
	fx.In

	Log        *zap.Logger
	Usage      usagedomain.Service
	UsageRepo  usagedomain.Repository
	Seats      seatdomain.Repository
	Catalog    dashboarddomain.Catalog       `optional:"true"`
	Config     *config.DashboardConfigHolder `optional:"true"`
	Cache      cache.UsageDaysCache          `optional:"true"`
	ObsMetrics *obsmetrics.Metrics           `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	usage      usagedomain.Service
	usageRepo  usagedomain.Repository
	seats      seatdomain.Repository
	catalog    dashboarddomain.Catalog
	config     *config.DashboardConfigHolder
	cache      cache.UsageDaysCache
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) dashboarddomain.Service {
	return &Service{
		log:        p.Log.Named("dashboard.service"),
		usage:      p.Usage,
		usageRepo:  p.UsageRepo,
		seats:      p.Seats,
		catalog:    p.Catalog,
		config:     p.Config,
		cache:      p.Cache,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Organization(ctx context.Context, req dashboarddomain.OrganizationRequest) (dashboarddomain.OrganizationResponse, error) {
	days, err := s.loadDays(ctx, "organization", req.Range)
	if err != nil {
		return dashboarddomain.OrganizationResponse{}, err
	}

	return dashboarddomain.OrganizationResponse{
		ActiveVsEngagedDaily: dashboarddomain.Chart[[]aggregate.OrgDaily]{
			Data:  nonNil(aggregate.OrgDailySeries(days)),
			Title: dashboarddomain.TitleActiveVsEngagedDaily,
		},
		ActiveVsEngagedWeekly: dashboarddomain.Chart[[]aggregate.OrgWeekly]{
			Data:  nonNil(aggregate.OrgWeeklySeries(days)),
			Title: dashboarddomain.TitleActiveVsEngagedWeekly,
		},
		FeaturesDaily: dashboarddomain.Chart[[]aggregate.FeatureDaily]{
			Data:  nonNil(aggregate.FeatureDailySeries(days)),
			Title: dashboarddomain.TitleFeaturesDaily,
		},
		FeaturesWeekly: dashboarddomain.Chart[[]aggregate.FeatureWeekly]{
			Data:  nonNil(aggregate.FeatureWeeklySeries(days)),
			Title: dashboarddomain.TitleFeaturesWeekly,
		},
	}, nil
}

func (s *Service) Languages(ctx context.Context, req dashboarddomain.LanguagesRequest) (dashboarddomain.LanguagesResponse, error) {
	days, err := s.loadDays(ctx, "languages", req.Range)
	if err != nil {
		return dashboarddomain.LanguagesResponse{}, err
	}
	cfg := s.config.Get()

	all := aggregate.LanguageDailySeries(days)
	if cfg.NormalizeNames {
		all = aggregate.NormalizeLanguages(all)
	}
	series := aggregate.FilterByKeys(all, aggregate.LanguageKey, req.Languages)

	return dashboarddomain.LanguagesResponse{
		LanguagesDaily: dashboarddomain.Chart[[]aggregate.LanguageDaily]{
			Data:  nonNil(series),
			Title: dashboarddomain.TitleLanguagesDaily,
		},
		LanguagesWeekly: dashboarddomain.Chart[[]aggregate.LanguageWeekly]{
			Data:  nonNil(aggregate.LanguageWeeklySeries(series)),
			Title: dashboarddomain.TitleLanguagesWeekly,
		},
		TopLanguages: dashboarddomain.Chart[aggregate.TopN]{
			Data:  aggregate.TopNWithOthers(all, aggregate.LanguageKey, aggregate.LanguageEngaged, cfg.TopThreshold, cfg.OthersLabel),
			Title: dashboarddomain.TitleTopLanguages,
		},
		AvailableLanguages: aggregate.AvailableKeys(series, aggregate.LanguageKey),
	}, nil
}

func (s *Service) Editors(ctx context.Context, req dashboarddomain.EditorsRequest) (dashboarddomain.EditorsResponse, error) {
	days, err := s.loadDays(ctx, "editors", req.Range)
	if err != nil {
		return dashboarddomain.EditorsResponse{}, err
	}
	cfg := s.config.Get()

	all := aggregate.EditorDailySeries(days)
	series := all.Filter(req.Editors)

	return dashboarddomain.EditorsResponse{
		EditorsDaily: dashboarddomain.Chart[[]aggregate.EditorDaily]{
			Data:  nonNil(series.Editors),
			Title: dashboarddomain.TitleEditorsDaily,
		},
		EditorsWeekly: dashboarddomain.Chart[[]aggregate.EditorWeekly]{
			Data:  nonNil(aggregate.EditorWeeklySeries(series.Editors)),
			Title: dashboarddomain.TitleEditorsWeekly,
		},
		ChatsDaily: dashboarddomain.Chart[[]aggregate.ChatDaily]{
			Data:  nonNil(series.Chats),
			Title: dashboarddomain.TitleChatsDaily,
		},
		ChatsWeekly: dashboarddomain.Chart[[]aggregate.ChatWeekly]{
			Data:  nonNil(aggregate.ChatWeeklySeries(series.Chats)),
			Title: dashboarddomain.TitleChatsWeekly,
		},
		CopyInsertDaily: dashboarddomain.Chart[[]aggregate.CopyInsertDaily]{
			Data:  nonNil(series.CopyInsert),
			Title: dashboarddomain.TitleCopyInsertDaily,
		},
		CopyInsertWeekly: dashboarddomain.Chart[[]aggregate.CopyInsertWeekly]{
			Data:  nonNil(aggregate.CopyInsertWeeklySeries(series.CopyInsert)),
			Title: dashboarddomain.TitleCopyInsertWeekly,
		},
		TopEditors: dashboarddomain.Chart[aggregate.TopN]{
			Data:  aggregate.TopNWithOthers(all.Editors, aggregate.EditorKey, aggregate.EditorEngaged, cfg.TopThreshold, cfg.OthersLabel),
			Title: dashboarddomain.TitleTopEditors,
		},
		AvailableEditors: aggregate.AvailableKeys(series.Editors, aggregate.EditorKey),
	}, nil
}

func (s *Service) ChatPrompts(ctx context.Context, req dashboarddomain.ChatPromptsRequest) (dashboarddomain.ChatPromptsResponse, error) {
	days, err := s.loadDays(ctx, "chat_prompts", req.Range)
	if err != nil {
		return dashboarddomain.ChatPromptsResponse{}, err
	}

	return dashboarddomain.ChatPromptsResponse{
		Success:     true,
		ChatPrompts: aggregate.ChatPromptSeries(days, s.config.Get().AveragePrecision),
	}, nil
}

func (s *Service) Billing(ctx context.Context) (dashboarddomain.BillingResponse, error) {
	counts, err := s.seats.CountByDatePlan(ctx)
	if err != nil {
		return dashboarddomain.BillingResponse{}, err
	}
	seats, err := s.seats.List(ctx)
	if err != nil {
		return dashboarddomain.BillingResponse{}, err
	}
	s.recordChart(ctx, "billing", len(seats) == 0)

	planLabel := func(plan string) string { return plan }
	if s.config.Get().NormalizeNames {
		planLabel = aggregate.NormalizePlanType
	}
	counts = lo.Map(counts, func(c seatdomain.PlanCount, _ int) seatdomain.PlanCount {
		c.PlanType = planLabel(c.PlanType)
		return c
	})

	planTypes, rows := pivotPlanCounts(counts)
	return dashboarddomain.BillingResponse{
		Title:     dashboarddomain.TitleBilling,
		Data:      rows,
		PlanTypes: planTypes,
		Seats: lo.Map(seats, func(seat seatdomain.Seat, _ int) dashboarddomain.SeatView {
			return dashboarddomain.SeatView{
				Assignee:           dashboarddomain.SeatAssignee{Login: seat.AssigneeLogin},
				CreatedAt:          seat.AssignedAt,
				PlanType:           planPtr(seat.PlanType, planLabel),
				LastActivityAt:     seat.LastActivityAt,
				LastActivityEditor: seat.LastActivityEditor,
			}
		}),
	}, nil
}

// pivotPlanCounts turns (date, plan, count) triples into one row per date with
// every plan type present, zero when no seat of that plan was created that day.
func pivotPlanCounts(counts []seatdomain.PlanCount) ([]string, []aggregate.DateRow[int64]) {
	planTypes := lo.Uniq(lo.Map(counts, func(c seatdomain.PlanCount, _ int) string { return c.PlanType }))
	sort.Strings(planTypes)

	byDate := map[string]map[string]int64{}
	for _, c := range counts {
		if byDate[c.Date] == nil {
			byDate[c.Date] = map[string]int64{}
		}
		byDate[c.Date][c.PlanType] += c.Count
	}
	dates := lo.Keys(byDate)
	sort.Strings(dates)

	rows := make([]aggregate.DateRow[int64], 0, len(dates))
	for _, date := range dates {
		row := aggregate.DateRow[int64]{Date: date}
		for _, plan := range planTypes {
			row.Values = append(row.Values, aggregate.Entry[int64]{Key: plan, Value: byDate[date][plan]})
		}
		rows = append(rows, row)
	}
	return planTypes, rows
}

func (s *Service) Debug(ctx context.Context) (dashboarddomain.DebugResponse, error) {
	sample, err := s.usageRepo.Sample(ctx, debugSampleSize)
	if err != nil {
		return dashboarddomain.DebugResponse{}, err
	}
	if len(sample) == 0 {
		return dashboarddomain.DebugResponse{}, dashboarddomain.ErrNoDocuments
	}

	total, err := s.usageRepo.Count(ctx)
	if err != nil {
		return dashboarddomain.DebugResponse{}, err
	}

	collections := []string{}
	if s.catalog != nil {
		names, err := s.catalog.Collections(ctx)
		if err != nil {
			return dashboarddomain.DebugResponse{}, err
		}
		collections = names
	}

	var allKeys []string
	for _, doc := range sample {
		allKeys = append(allKeys, objectKeys(doc.Document)...)
	}
	allKeys = lo.Uniq(allKeys)
	sort.Strings(allKeys)

	return dashboarddomain.DebugResponse{
		Collections:            collections,
		SampleDocument:         json.RawMessage(sample[0].Document),
		DocumentKeys:           objectKeys(sample[0].Document),
		AllKeysAcrossDocuments: allKeys,
		TotalDocuments:         total,
	}, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return []string{}
	}
	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// loadDays returns the usage days of a window, or ErrNoData when there are none.
func (s *Service) loadDays(ctx context.Context, endpoint string, window usagedomain.ListFilter) ([]usagedomain.Day, error) {
	days, err := s.listDays(ctx, window)
	if err != nil {
		return nil, err
	}
	s.recordChart(ctx, endpoint, len(days) == 0)
	if len(days) == 0 {
		obslogger.WithContext(ctx, s.log).Debug("no usage data in window",
			zap.String("endpoint", endpoint),
			zap.String("from", window.From),
			zap.String("to", window.To),
		)
		return nil, dashboarddomain.ErrNoData
	}
	return days, nil
}

func (s *Service) listDays(ctx context.Context, window usagedomain.ListFilter) ([]usagedomain.Day, error) {
	if s.cache != nil {
		if days, ok := s.cache.Get(window); ok {
			return days, nil
		}
	}
	days, err := s.usage.ListDays(ctx, window)
	if err != nil {
		return nil, err
	}
	// Empty windows are not cached so the first ingestion shows up at once.
	if s.cache != nil && len(days) > 0 {
		s.cache.Set(window, days, s.config.Get().CacheTTL)
	}
	return days, nil
}

func (s *Service) recordChart(ctx context.Context, endpoint string, empty bool) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordChartServed(ctx, endpoint, empty)
	}
}

func planPtr(plan *string, label func(string) string) *string {
	if plan == nil {
		return nil
	}
	out := label(*plan)
	return &out
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
