package aggregate

import (
	"github.com/samber/lo"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

type EditorDaily struct {
	Date              string `json:"date"`
	Editor            string `json:"editor"`
	TotalEngagedUsers int64  `json:"total_engaged_users"`
}

type EditorWeekly struct {
	Editor            string `json:"editor"`
	Week              string `json:"week"`
	TotalEngagedUsers int64  `json:"total_engaged_users"`
}

type ChatDaily struct {
	Date       string `json:"date"`
	Editor     string `json:"editor"`
	TotalChats int64  `json:"total_chats"`
}

type ChatWeekly struct {
	Editor     string `json:"editor"`
	Week       string `json:"week"`
	TotalChats int64  `json:"total_chats"`
}

type CopyInsertDaily struct {
	Date                     string `json:"date"`
	Editor                   string `json:"editor"`
	TotalChatCopyEvents      int64  `json:"total_chat_copy_events"`
	TotalChatInsertionEvents int64  `json:"total_chat_insertion_events"`
}

type CopyInsertWeekly struct {
	Editor                   string `json:"editor"`
	Week                     string `json:"week"`
	TotalChatCopyEvents      int64  `json:"total_chat_copy_events"`
	TotalChatInsertionEvents int64  `json:"total_chat_insertion_events"`
}

// EditorSeries holds the three per-editor chat views of the same days.
type EditorSeries struct {
	Editors    []EditorDaily
	Chats      []ChatDaily
	CopyInsert []CopyInsertDaily
}

// EditorDailySeries walks the IDE chat tree and emits one row per (date, editor)
// in each of the three views. Model level counts are summed per editor.
func EditorDailySeries(days []usagedomain.Day) EditorSeries {
	var out EditorSeries
	for _, day := range days {
		if day.IDEChat == nil {
			continue
		}
		for _, editor := range day.IDEChat.Editors {
			out.Editors = append(out.Editors, EditorDaily{
				Date:              day.Date,
				Editor:            editor.Name,
				TotalEngagedUsers: int64(editor.TotalEngagedUsers),
			})
			out.Chats = append(out.Chats, ChatDaily{
				Date:       day.Date,
				Editor:     editor.Name,
				TotalChats: totalChats(editor),
			})
			out.CopyInsert = append(out.CopyInsert, CopyInsertDaily{
				Date:   day.Date,
				Editor: editor.Name,
				TotalChatCopyEvents: lo.SumBy(editor.Models, func(m usagedomain.ChatModel) int64 {
					return int64(m.TotalChatCopyEvents)
				}),
				TotalChatInsertionEvents: lo.SumBy(editor.Models, func(m usagedomain.ChatModel) int64 {
					return int64(m.TotalChatInsertionEvents)
				}),
			})
		}
	}
	return out
}

func totalChats(editor usagedomain.ChatEditor) int64 {
	return lo.SumBy(editor.Models, func(m usagedomain.ChatModel) int64 {
		return int64(m.TotalChats)
	})
}

// Filter restricts all three views to the given editors. No editors means no filter.
func (s EditorSeries) Filter(editors []string) EditorSeries {
	return EditorSeries{
		Editors:    FilterByKeys(s.Editors, EditorKey, editors),
		Chats:      FilterByKeys(s.Chats, func(r ChatDaily) string { return r.Editor }, editors),
		CopyInsert: FilterByKeys(s.CopyInsert, func(r CopyInsertDaily) string { return r.Editor }, editors),
	}
}

func EditorWeeklySeries(rows []EditorDaily) []EditorWeekly {
	return groupWeekly(rows,
		EditorKey,
		func(r EditorDaily) string { return r.Date },
		func(key, week string) EditorWeekly { return EditorWeekly{Editor: key, Week: week} },
		func(w *EditorWeekly, r EditorDaily) { w.TotalEngagedUsers += r.TotalEngagedUsers },
	)
}

func ChatWeeklySeries(rows []ChatDaily) []ChatWeekly {
	return groupWeekly(rows,
		func(r ChatDaily) string { return r.Editor },
		func(r ChatDaily) string { return r.Date },
		func(key, week string) ChatWeekly { return ChatWeekly{Editor: key, Week: week} },
		func(w *ChatWeekly, r ChatDaily) { w.TotalChats += r.TotalChats },
	)
}

func CopyInsertWeeklySeries(rows []CopyInsertDaily) []CopyInsertWeekly {
	return groupWeekly(rows,
		func(r CopyInsertDaily) string { return r.Editor },
		func(r CopyInsertDaily) string { return r.Date },
		func(key, week string) CopyInsertWeekly { return CopyInsertWeekly{Editor: key, Week: week} },
		func(w *CopyInsertWeekly, r CopyInsertDaily) {
			w.TotalChatCopyEvents += r.TotalChatCopyEvents
			w.TotalChatInsertionEvents += r.TotalChatInsertionEvents
		},
	)
}

func EditorKey(r EditorDaily) string { return r.Editor }

func EditorEngaged(r EditorDaily) int64 { return r.TotalEngagedUsers }
