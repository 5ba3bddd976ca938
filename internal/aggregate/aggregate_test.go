package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completions(editors ...usagedomain.CompletionEditor) *usagedomain.IDECodeCompletions {
	return &usagedomain.IDECodeCompletions{Editors: editors}
}

func completionEditor(name string, langs ...usagedomain.CompletionLanguage) usagedomain.CompletionEditor {
	return usagedomain.CompletionEditor{
		Name:   name,
		Models: []usagedomain.CompletionModel{{Name: "default", Languages: langs}},
	}
}

func lang(name string, engaged, acceptances, suggestions int64) usagedomain.CompletionLanguage {
	return usagedomain.CompletionLanguage{
		Name:                 name,
		TotalEngagedUsers:    usagedomain.Count(engaged),
		TotalCodeAcceptances: usagedomain.Count(acceptances),
		TotalCodeSuggestions: usagedomain.Count(suggestions),
	}
}

func chatEditor(name string, engaged int64, models ...usagedomain.ChatModel) usagedomain.ChatEditor {
	return usagedomain.ChatEditor{Name: name, TotalEngagedUsers: usagedomain.Count(engaged), Models: models}
}

func chatModel(chats, copies, inserts int64) usagedomain.ChatModel {
	return usagedomain.ChatModel{
		TotalChats:               usagedomain.Count(chats),
		TotalChatCopyEvents:      usagedomain.Count(copies),
		TotalChatInsertionEvents: usagedomain.Count(inserts),
	}
}

func TestWeekStartIsMonday(t *testing.T) {
	cases := map[string]string{
		"2024-01-01": "2024-01-01", // Monday
		"2024-01-03": "2024-01-01",
		"2024-01-07": "2024-01-01", // Sunday
		"2024-01-08": "2024-01-08",
		"2023-12-31": "2023-12-25",
	}
	for in, want := range cases {
		got, ok := WeekOf(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := WeekOf("not a date")
	assert.False(t, ok)
}

func TestOrgWeeklySumsDailyValuesInSameWeek(t *testing.T) {
	days := []usagedomain.Day{
		{Date: "2024-01-01", TotalActiveUsers: 10, TotalEngagedUsers: 4},
		{Date: "2024-01-03", TotalActiveUsers: 5, TotalEngagedUsers: 2},
		{Date: "2024-01-09", TotalActiveUsers: 7, TotalEngagedUsers: 1},
	}

	want := []OrgWeekly{
		{Week: "2024-01-01", TotalActiveUsers: 15, TotalEngagedUsers: 6},
		{Week: "2024-01-08", TotalActiveUsers: 7, TotalEngagedUsers: 1},
	}
	if diff := cmp.Diff(want, OrgWeeklySeries(days)); diff != "" {
		t.Fatalf("weekly mismatch (-want +got):\n%s", diff)
	}

	daily := OrgDailySeries(days)
	require.Len(t, daily, 3)
	assert.Equal(t, OrgDaily{Date: "2024-01-03", TotalActiveUsers: 5, TotalEngagedUsers: 2}, daily[1])
}

func TestFeatureCountsZeroFillMissingSubtrees(t *testing.T) {
	days := []usagedomain.Day{
		{
			Date:               "2024-01-01",
			IDECodeCompletions: completions(completionEditor("vscode", lang("go", 3, 0, 0), lang("python", 2, 0, 0)), completionEditor("jetbrains", lang("go", 1, 0, 0))),
			IDEChat:            &usagedomain.IDEChat{Editors: []usagedomain.ChatEditor{chatEditor("vscode", 4), chatEditor("jetbrains", 2)}},
			DotcomChat:         &usagedomain.DotcomChat{TotalEngagedUsers: 5},
			DotcomPullRequests: &usagedomain.DotcomPullRequests{TotalEngagedUsers: 1},
		},
		{Date: "2024-01-02"},
	}

	want := []FeatureDaily{
		{Date: "2024-01-01", IDEChat: 6, DotcomChat: 5, PullRequest: 1, CodeCompletion: 6},
		{Date: "2024-01-02"},
	}
	if diff := cmp.Diff(want, FeatureDailySeries(days)); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}

	weekly := FeatureWeeklySeries(days)
	require.Len(t, weekly, 1)
	assert.Equal(t, FeatureWeekly{Week: "2024-01-01", IDEChat: 6, DotcomChat: 5, PullRequest: 1, CodeCompletion: 6}, weekly[0])
}

func TestLanguageSeriesAndWeeklyOrder(t *testing.T) {
	days := []usagedomain.Day{
		{Date: "2024-01-01", IDECodeCompletions: completions(completionEditor("vscode", lang("python", 3, 5, 9), lang("go", 2, 1, 4)))},
		{Date: "2024-01-02", IDECodeCompletions: completions(completionEditor("vscode", lang("go", 1, 1, 1)))},
		{Date: "2024-01-08", IDECodeCompletions: completions(completionEditor("vscode", lang("go", 4, 0, 2)))},
	}

	daily := LanguageDailySeries(days)
	require.Len(t, daily, 4)
	assert.Equal(t, LanguageDaily{Date: "2024-01-01", Language: "python", TotalEngagedUsers: 3, TotalCodeAcceptances: 5, TotalCodeSuggestions: 9}, daily[0])

	want := []LanguageWeekly{
		{Language: "go", Week: "2024-01-01", TotalEngagedUsers: 3, TotalCodeAcceptances: 2, TotalCodeSuggestions: 5},
		{Language: "go", Week: "2024-01-08", TotalEngagedUsers: 4, TotalCodeAcceptances: 0, TotalCodeSuggestions: 2},
		{Language: "python", Week: "2024-01-01", TotalEngagedUsers: 3, TotalCodeAcceptances: 5, TotalCodeSuggestions: 9},
	}
	if diff := cmp.Diff(want, LanguageWeeklySeries(daily)); diff != "" {
		t.Fatalf("weekly languages mismatch (-want +got):\n%s", diff)
	}

	filtered := FilterByKeys(daily, LanguageKey, []string{"go"})
	assert.Len(t, filtered, 3)
	assert.Equal(t, []string{"go"}, AvailableKeys(filtered, LanguageKey))
	assert.Equal(t, []string{"go", "python"}, AvailableKeys(daily, LanguageKey))
	assert.Len(t, FilterByKeys(daily, LanguageKey, nil), 4)
}

func TestEditorSeriesSumsModels(t *testing.T) {
	days := []usagedomain.Day{
		{Date: "2024-01-01", IDEChat: &usagedomain.IDEChat{Editors: []usagedomain.ChatEditor{
			chatEditor("vscode", 4, chatModel(10, 2, 1), chatModel(5, 1, 0)),
			chatEditor("jetbrains", 1, chatModel(3, 0, 0)),
		}}},
		{Date: "2024-01-02", IDEChat: &usagedomain.IDEChat{Editors: []usagedomain.ChatEditor{
			chatEditor("vscode", 2, chatModel(4, 0, 3)),
		}}},
	}

	series := EditorDailySeries(days)
	require.Len(t, series.Editors, 3)
	assert.Equal(t, ChatDaily{Date: "2024-01-01", Editor: "vscode", TotalChats: 15}, series.Chats[0])
	assert.Equal(t, CopyInsertDaily{Date: "2024-01-01", Editor: "vscode", TotalChatCopyEvents: 3, TotalChatInsertionEvents: 1}, series.CopyInsert[0])

	filtered := series.Filter([]string{"vscode"})
	assert.Len(t, filtered.Editors, 2)
	assert.Len(t, filtered.Chats, 2)
	assert.Len(t, filtered.CopyInsert, 2)

	assert.Equal(t, []ChatWeekly{{Editor: "vscode", Week: "2024-01-01", TotalChats: 19}}, ChatWeeklySeries(filtered.Chats))
	assert.Equal(t, []EditorWeekly{
		{Editor: "jetbrains", Week: "2024-01-01", TotalEngagedUsers: 1},
		{Editor: "vscode", Week: "2024-01-01", TotalEngagedUsers: 6},
	}, EditorWeeklySeries(series.Editors))
	assert.Equal(t, []CopyInsertWeekly{{Editor: "vscode", Week: "2024-01-01", TotalChatCopyEvents: 3, TotalChatInsertionEvents: 4}}, CopyInsertWeeklySeries(filtered.CopyInsert))
}

func TestTopNWithOthers(t *testing.T) {
	rows := []LanguageDaily{
		{Language: "Python", TotalEngagedUsers: 30},
		{Language: "Go", TotalEngagedUsers: 20},
		{Language: "Python", TotalEngagedUsers: 20},
		{Language: "Zig", TotalEngagedUsers: 3},
		{Language: "Nim", TotalEngagedUsers: 2},
	}

	top := TopNWithOthers(rows, LanguageKey, LanguageEngaged, 10, "Others")
	assert.Equal(t, TopN{{Key: "Python", Value: 50}, {Key: "Go", Value: 20}, {Key: "Others", Value: 5}}, top)
	assert.EqualValues(t, 75, top.Sum())

	body, err := json.Marshal(top)
	require.NoError(t, err)
	assert.Equal(t, `{"Python":50,"Go":20,"Others":5}`, string(body))
}

func TestTopNWithOthersEdges(t *testing.T) {
	top := TopNWithOthers([]LanguageDaily{}, LanguageKey, LanguageEngaged, 10, "Others")
	body, err := json.Marshal(top)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))

	noSmall := TopNWithOthers([]LanguageDaily{{Language: "b", TotalEngagedUsers: 10}, {Language: "a", TotalEngagedUsers: 10}}, LanguageKey, LanguageEngaged, 10, "Others")
	assert.Equal(t, TopN{{Key: "a", Value: 10}, {Key: "b", Value: 10}}, noSmall)
	_, hasOthers := noSmall.Get("Others")
	assert.False(t, hasOthers)

	allSmall := TopNWithOthers([]EditorDaily{{Editor: "vim", TotalEngagedUsers: 1}, {Editor: "emacs", TotalEngagedUsers: 2}}, EditorKey, EditorEngaged, 10, "Others")
	assert.Equal(t, TopN{{Key: "Others", Value: 3}}, allSmall)
}

func TestChatPromptSeries(t *testing.T) {
	days := []usagedomain.Day{
		{Date: "2024-01-01"},
		{Date: "2024-01-02", IDEChat: &usagedomain.IDEChat{Editors: []usagedomain.ChatEditor{
			chatEditor("vscode", 3, chatModel(7, 0, 0), chatModel(3, 0, 0)),
			chatEditor("jetbrains", 0, chatModel(4, 0, 0)),
		}}},
		{Date: "2024-01-03", IDEChat: &usagedomain.IDEChat{Editors: []usagedomain.ChatEditor{
			chatEditor("vscode", 2, chatModel(5, 0, 0)),
		}}},
	}

	got := ChatPromptSeries(days, 2)
	assert.Equal(t, 2, got.TotalRecords)
	assert.Equal(t, DateRange{Start: "2024-01-02", End: "2024-01-03"}, got.DateRange)
	assert.Equal(t, []string{"jetbrains", "vscode"}, got.AvailableEditors)
	require.Len(t, got.RawData, 3)
	assert.Equal(t, 3.33, got.RawData[0].AveragePromptsPerUser)
	assert.Equal(t, 0.0, got.RawData[1].AveragePromptsPerUser)

	body, err := json.Marshal(got.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2024-01-02","jetbrains":0,"vscode":3.33},{"date":"2024-01-03","vscode":2.5}]`, string(body))
}

func TestNormalizeNames(t *testing.T) {
	cases := map[string]string{
		"javascriptreact": "JavaScript React",
		" TSX ":           "TypeScript React",
		"c#":              "C#",
		"c":               "C",
		"elixir":          "Elixir",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLanguage(in), in)
	}

	rows := NormalizeLanguages([]LanguageDaily{{Date: "2024-01-01", Language: "go"}, {Date: "2024-01-01", Language: "Go"}})
	assert.Equal(t, []string{"Go"}, AvailableKeys(rows, LanguageKey))

	assert.Equal(t, "business", NormalizePlanType("copilot_business"))
	assert.Equal(t, "enterprise", NormalizePlanType("enterprise"))
}
