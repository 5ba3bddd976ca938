package aggregate

import (
	"github.com/samber/lo"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

type OrgDaily struct {
	Date              string `json:"date"`
	TotalActiveUsers  int64  `json:"total_active_users"`
	TotalEngagedUsers int64  `json:"total_engaged_users"`
}

type OrgWeekly struct {
	Week              string `json:"week"`
	TotalActiveUsers  int64  `json:"total_active_users"`
	TotalEngagedUsers int64  `json:"total_engaged_users"`
}

type FeatureDaily struct {
	Date           string `json:"date"`
	IDEChat        int64  `json:"IDE_Chat"`
	DotcomChat     int64  `json:"Dotcom_Chat"`
	PullRequest    int64  `json:"Pull_Request"`
	CodeCompletion int64  `json:"Code_Completion"`
}

type FeatureWeekly struct {
	Week           string `json:"week"`
	IDEChat        int64  `json:"IDE_Chat"`
	DotcomChat     int64  `json:"Dotcom_Chat"`
	PullRequest    int64  `json:"Pull_Request"`
	CodeCompletion int64  `json:"Code_Completion"`
}

// OrgDailySeries passes the org-wide counts through per date.
func OrgDailySeries(days []usagedomain.Day) []OrgDaily {
	return lo.Map(days, func(day usagedomain.Day, _ int) OrgDaily {
		return OrgDaily{
			Date:              day.Date,
			TotalActiveUsers:  int64(day.TotalActiveUsers),
			TotalEngagedUsers: int64(day.TotalEngagedUsers),
		}
	})
}

// OrgWeeklySeries sums the org-wide counts per Monday-start week.
func OrgWeeklySeries(days []usagedomain.Day) []OrgWeekly {
	return groupWeekly(OrgDailySeries(days),
		func(OrgDaily) string { return "" },
		func(r OrgDaily) string { return r.Date },
		func(_, week string) OrgWeekly { return OrgWeekly{Week: week} },
		func(w *OrgWeekly, r OrgDaily) {
			w.TotalActiveUsers += r.TotalActiveUsers
			w.TotalEngagedUsers += r.TotalEngagedUsers
		},
	)
}

// FeatureCounts flattens one day's feature tree. Missing subtrees count as zero.
func FeatureCounts(day usagedomain.Day) FeatureDaily {
	row := FeatureDaily{Date: day.Date}
	if chat := day.IDEChat; chat != nil {
		row.IDEChat = lo.SumBy(chat.Editors, func(e usagedomain.ChatEditor) int64 {
			return int64(e.TotalEngagedUsers)
		})
	}
	if day.DotcomChat != nil {
		row.DotcomChat = int64(day.DotcomChat.TotalEngagedUsers)
	}
	if day.DotcomPullRequests != nil {
		row.PullRequest = int64(day.DotcomPullRequests.TotalEngagedUsers)
	}
	row.CodeCompletion = lo.SumBy(LanguageDailySeries([]usagedomain.Day{day}), func(r LanguageDaily) int64 {
		return r.TotalEngagedUsers
	})
	return row
}

func FeatureDailySeries(days []usagedomain.Day) []FeatureDaily {
	return lo.Map(days, func(day usagedomain.Day, _ int) FeatureDaily {
		return FeatureCounts(day)
	})
}

func FeatureWeeklySeries(days []usagedomain.Day) []FeatureWeekly {
	return groupWeekly(FeatureDailySeries(days),
		func(FeatureDaily) string { return "" },
		func(r FeatureDaily) string { return r.Date },
		func(_, week string) FeatureWeekly { return FeatureWeekly{Week: week} },
		func(w *FeatureWeekly, r FeatureDaily) {
			w.IDEChat += r.IDEChat
			w.DotcomChat += r.DotcomChat
			w.PullRequest += r.PullRequest
			w.CodeCompletion += r.CodeCompletion
		},
	)
}
