package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

const dateOnlyLayout = usagedomain.DateLayout

type dateRangeQuery struct {
	Days      string `form:"days"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// parseDateRange turns the query string into an inclusive date window.
// days wins over start_date/end_date when both are present.
func (s *Server) parseDateRange(c *gin.Context) (usagedomain.ListFilter, error) {
	var query dateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return usagedomain.ListFilter{}, ErrInvalidRequest
	}

	if days := strings.TrimSpace(query.Days); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return usagedomain.ListFilter{}, newValidationError("days", "invalid_days", "days must be a non-negative integer")
		}
		today := s.clock.Now().UTC().Truncate(24 * time.Hour)
		return usagedomain.ListFilter{From: today.AddDate(0, 0, -n).Format(dateOnlyLayout)}, nil
	}

	from, err := parseOptionalDate(query.StartDate)
	if err != nil {
		return usagedomain.ListFilter{}, newValidationError("start_date", "invalid_start_date", "start_date must be a date")
	}
	to, err := parseOptionalDate(query.EndDate)
	if err != nil {
		return usagedomain.ListFilter{}, newValidationError("end_date", "invalid_end_date", "end_date must be a date")
	}
	if from != "" && to != "" && from > to {
		return usagedomain.ListFilter{}, newValidationError("start_date", "invalid_date_range", "start_date is after end_date")
	}
	return usagedomain.ListFilter{From: from, To: to}, nil
}

func parseOptionalDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		return parsed.Format(dateOnlyLayout), nil
	}
	parsed, err := dateparse.ParseIn(trimmed, time.UTC)
	if err != nil {
		return "", err
	}
	return parsed.UTC().Format(dateOnlyLayout), nil
}

// queryValues reads a repeated query parameter, dropping blanks and duplicates.
func queryValues(c *gin.Context, key string) []string {
	values := lo.Map(c.QueryArray(key), func(v string, _ int) string {
		return strings.TrimSpace(v)
	})
	return lo.Uniq(lo.Compact(values))
}
