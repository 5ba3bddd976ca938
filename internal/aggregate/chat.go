package aggregate

import (
	"math"
	"sort"

	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

type ChatPromptRow struct {
	Date                  string  `json:"date"`
	Editor                string  `json:"editor"`
	TotalChats            int64   `json:"total_chats"`
	TotalEngagedUsers     int64   `json:"total_engaged_users"`
	AveragePromptsPerUser float64 `json:"average_prompts_per_user"`
}

type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type ChatPrompts struct {
	Data             []DateRow[float64] `json:"data"`
	AvailableEditors []string           `json:"available_editors"`
	RawData          []ChatPromptRow    `json:"raw_data"`
	TotalRecords     int                `json:"total_records"`
	DateRange        DateRange          `json:"date_range"`
}

// ChatPromptSeries computes the average number of chats per engaged user for
// every editor on every day that carries an IDE chat tree, then pivots the
// averages by date. Averages are rounded to precision decimals and are zero
// when an editor has no engaged users.
func ChatPromptSeries(days []usagedomain.Day, precision int) ChatPrompts {
	out := ChatPrompts{
		Data:             []DateRow[float64]{},
		AvailableEditors: []string{},
		RawData:          []ChatPromptRow{},
	}

	var dated []string
	for _, day := range days {
		if day.IDEChat == nil {
			continue
		}
		dated = append(dated, day.Date)

		row := DateRow[float64]{Date: day.Date}
		for _, editor := range day.IDEChat.Editors {
			chats := totalChats(editor)
			engaged := int64(editor.TotalEngagedUsers)
			avg := 0.0
			if engaged > 0 {
				avg = round(float64(chats)/float64(engaged), precision)
			}
			out.RawData = append(out.RawData, ChatPromptRow{
				Date:                  day.Date,
				Editor:                editor.Name,
				TotalChats:            chats,
				TotalEngagedUsers:     engaged,
				AveragePromptsPerUser: avg,
			})
			row.Values = setEntry(row.Values, editor.Name, avg)
		}
		sort.SliceStable(row.Values, func(i, j int) bool { return row.Values[i].Key < row.Values[j].Key })
		out.Data = append(out.Data, row)
	}

	out.TotalRecords = len(dated)
	if len(dated) > 0 {
		out.DateRange = DateRange{Start: dated[0], End: dated[len(dated)-1]}
	}
	out.AvailableEditors = AvailableKeys(out.RawData, func(r ChatPromptRow) string { return r.Editor })
	return out
}

// setEntry replaces key if present so the last editor entry of a day wins.
func setEntry[V Number](entries Entries[V], key string, value V) Entries[V] {
	for i := range entries {
		if entries[i].Key == key {
			entries[i].Value = value
			return entries
		}
	}
	return append(entries, Entry[V]{Key: key, Value: value})
}

func round(value float64, precision int) float64 {
	if precision < 0 {
		return value
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(value*scale) / scale
}
