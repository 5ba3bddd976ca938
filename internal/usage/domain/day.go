package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Count is a numeric field that decodes null, strings and floats without failing.
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = 0
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*c = Count(v)
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		*c = Count(int64(v))
	}
	return nil
}

// Day is the typed view of a stored usage document. Every subtree is optional.
type Day struct {
	Date               string              `json:"date"`
	TotalActiveUsers   Count               `json:"total_active_users"`
	TotalEngagedUsers  Count               `json:"total_engaged_users"`
	IDECodeCompletions *IDECodeCompletions `json:"copilot_ide_code_completions"`
	IDEChat            *IDEChat            `json:"copilot_ide_chat"`
	DotcomChat         *DotcomChat         `json:"copilot_dotcom_chat"`
	DotcomPullRequests *DotcomPullRequests `json:"copilot_dotcom_pull_requests"`
}

type IDECodeCompletions struct {
	TotalEngagedUsers Count              `json:"total_engaged_users"`
	Editors           []CompletionEditor `json:"editors"`
}

type CompletionEditor struct {
	Name              string            `json:"name"`
	TotalEngagedUsers Count             `json:"total_engaged_users"`
	Models            []CompletionModel `json:"models"`
}

type CompletionModel struct {
	Name              string               `json:"name"`
	IsCustomModel     bool                 `json:"is_custom_model"`
	TotalEngagedUsers Count                `json:"total_engaged_users"`
	Languages         []CompletionLanguage `json:"languages"`
}

type CompletionLanguage struct {
	Name                    string `json:"name"`
	TotalEngagedUsers       Count  `json:"total_engaged_users"`
	TotalCodeSuggestions    Count  `json:"total_code_suggestions"`
	TotalCodeAcceptances    Count  `json:"total_code_acceptances"`
	TotalCodeLinesSuggested Count  `json:"total_code_lines_suggested"`
	TotalCodeLinesAccepted  Count  `json:"total_code_lines_accepted"`
}

type IDEChat struct {
	TotalEngagedUsers Count        `json:"total_engaged_users"`
	Editors           []ChatEditor `json:"editors"`
}

type ChatEditor struct {
	Name              string      `json:"name"`
	TotalEngagedUsers Count       `json:"total_engaged_users"`
	Models            []ChatModel `json:"models"`
}

type ChatModel struct {
	Name                     string `json:"name"`
	IsCustomModel            bool   `json:"is_custom_model"`
	TotalEngagedUsers        Count  `json:"total_engaged_users"`
	TotalChats               Count  `json:"total_chats"`
	TotalChatInsertionEvents Count  `json:"total_chat_insertion_events"`
	TotalChatCopyEvents      Count  `json:"total_chat_copy_events"`
}

type DotcomChat struct {
	TotalEngagedUsers Count `json:"total_engaged_users"`
}

type DotcomPullRequests struct {
	TotalEngagedUsers Count `json:"total_engaged_users"`
}

// DecodeDay decodes a stored document. When the whole document does not fit
// the typed shape, each top-level field is decoded on its own and the ones
// that still fail are left zero. The returned bool reports whether any field
// had to be dropped.
func DecodeDay(document []byte) (Day, bool, error) {
	var day Day
	if err := json.Unmarshal(document, &day); err == nil {
		return day, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(document, &fields); err != nil {
		return Day{}, true, err
	}

	day = Day{}
	degraded := false
	decode := func(key string, target any) bool {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return false
		}
		if err := json.Unmarshal(raw, target); err != nil {
			degraded = true
			return false
		}
		return true
	}

	var date string
	if decode("date", &date) {
		day.Date = date
	}
	decode("total_active_users", &day.TotalActiveUsers)
	decode("total_engaged_users", &day.TotalEngagedUsers)

	if v := new(IDECodeCompletions); decode("copilot_ide_code_completions", v) {
		day.IDECodeCompletions = v
	}
	if v := new(IDEChat); decode("copilot_ide_chat", v) {
		day.IDEChat = v
	}
	if v := new(DotcomChat); decode("copilot_dotcom_chat", v) {
		day.DotcomChat = v
	}
	if v := new(DotcomPullRequests); decode("copilot_dotcom_pull_requests", v) {
		day.DotcomPullRequests = v
	}

	return day, degraded, nil
}
