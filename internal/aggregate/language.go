package aggregate

import usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"

type LanguageDaily struct {
	Date                 string `json:"date"`
	Language             string `json:"language"`
	TotalEngagedUsers    int64  `json:"total_engaged_users"`
	TotalCodeAcceptances int64  `json:"total_code_acceptances"`
	TotalCodeSuggestions int64  `json:"total_code_suggestions"`
}

type LanguageWeekly struct {
	Language             string `json:"language"`
	Week                 string `json:"week"`
	TotalEngagedUsers    int64  `json:"total_engaged_users"`
	TotalCodeAcceptances int64  `json:"total_code_acceptances"`
	TotalCodeSuggestions int64  `json:"total_code_suggestions"`
}

// LanguageDailySeries emits one row per code completion leaf, walking
// editor, model and language in document order.
func LanguageDailySeries(days []usagedomain.Day) []LanguageDaily {
	var rows []LanguageDaily
	for _, day := range days {
		if day.IDECodeCompletions == nil {
			continue
		}
		for _, editor := range day.IDECodeCompletions.Editors {
			for _, model := range editor.Models {
				for _, lang := range model.Languages {
					rows = append(rows, LanguageDaily{
						Date:                 day.Date,
						Language:             lang.Name,
						TotalEngagedUsers:    int64(lang.TotalEngagedUsers),
						TotalCodeAcceptances: int64(lang.TotalCodeAcceptances),
						TotalCodeSuggestions: int64(lang.TotalCodeSuggestions),
					})
				}
			}
		}
	}
	return rows
}

func LanguageWeeklySeries(rows []LanguageDaily) []LanguageWeekly {
	return groupWeekly(rows,
		func(r LanguageDaily) string { return r.Language },
		func(r LanguageDaily) string { return r.Date },
		func(key, week string) LanguageWeekly { return LanguageWeekly{Language: key, Week: week} },
		func(w *LanguageWeekly, r LanguageDaily) {
			w.TotalEngagedUsers += r.TotalEngagedUsers
			w.TotalCodeAcceptances += r.TotalCodeAcceptances
			w.TotalCodeSuggestions += r.TotalCodeSuggestions
		},
	)
}

func LanguageKey(r LanguageDaily) string { return r.Language }

func LanguageEngaged(r LanguageDaily) int64 { return r.TotalEngagedUsers }
