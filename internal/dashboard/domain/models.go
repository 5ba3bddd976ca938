// Package domain defines the chart payloads served by the dashboard API.
package domain

import (
	"encoding/json"

	"github.com/smallbiznis/copilot-insights/internal/aggregate"
)

// Chart pairs a data series with its display title.
type Chart[T any] struct {
	Data  T      `json:"data"`
	Title string `json:"title"`
}

const (
	TitleActiveVsEngagedDaily  = "Active vs Engaged Users (Daily)"
	TitleActiveVsEngagedWeekly = "Active vs Engaged Users (Weekly)"
	TitleFeaturesDaily         = "Engaged Users per Feature (Daily)"
	TitleFeaturesWeekly        = "Engaged Users per Feature (Weekly)"
	TitleLanguagesDaily        = "Code Acceptances & Suggestions per Language (Daily)"
	TitleLanguagesWeekly       = "Code Acceptances & Suggestions per Language (Weekly)"
	TitleTopLanguages          = "Top Programming Languages by Engaged Users"
	TitleEditorsDaily          = "Engaged Users per Editor (Daily)"
	TitleEditorsWeekly         = "Engaged Users per Editor (Weekly)"
	TitleChatsDaily            = "Total Chats per Editor (Daily)"
	TitleChatsWeekly           = "Total Chats per Editor (Weekly)"
	TitleCopyInsertDaily       = "Chat Copy & Insertion Events per Editor (Daily)"
	TitleCopyInsertWeekly      = "Chat Copy & Insertion Events per Editor (Weekly)"
	TitleTopEditors            = "Top Editors by Engaged Users"
	TitleBilling               = "Daily Billing Plans Purchased by Plan Type"
)

type OrganizationResponse struct {
	ActiveVsEngagedDaily  Chart[[]aggregate.OrgDaily]      `json:"active_vs_engaged_daily"`
	ActiveVsEngagedWeekly Chart[[]aggregate.OrgWeekly]     `json:"active_vs_engaged_weekly"`
	FeaturesDaily         Chart[[]aggregate.FeatureDaily]  `json:"features_daily"`
	FeaturesWeekly        Chart[[]aggregate.FeatureWeekly] `json:"features_weekly"`
}

type LanguagesResponse struct {
	LanguagesDaily     Chart[[]aggregate.LanguageDaily]  `json:"languages_daily"`
	LanguagesWeekly    Chart[[]aggregate.LanguageWeekly] `json:"languages_weekly"`
	TopLanguages       Chart[aggregate.TopN]             `json:"top_languages"`
	AvailableLanguages []string                          `json:"available_languages"`
}

type EditorsResponse struct {
	EditorsDaily     Chart[[]aggregate.EditorDaily]      `json:"editors_daily"`
	EditorsWeekly    Chart[[]aggregate.EditorWeekly]     `json:"editors_weekly"`
	ChatsDaily       Chart[[]aggregate.ChatDaily]        `json:"chats_daily"`
	ChatsWeekly      Chart[[]aggregate.ChatWeekly]       `json:"chats_weekly"`
	CopyInsertDaily  Chart[[]aggregate.CopyInsertDaily]  `json:"copy_insert_daily"`
	CopyInsertWeekly Chart[[]aggregate.CopyInsertWeekly] `json:"copy_insert_weekly"`
	TopEditors       Chart[aggregate.TopN]               `json:"top_editors"`
	AvailableEditors []string                            `json:"available_editors"`
}

type ChatPromptsResponse struct {
	Success bool `json:"success"`
	aggregate.ChatPrompts
}

type SeatAssignee struct {
	Login string `json:"login"`
}

// SeatView is the subset of a seat returned to clients.
type SeatView struct {
	Assignee           SeatAssignee `json:"assignee"`
	CreatedAt          string       `json:"created_at"`
	PlanType           *string      `json:"plan_type"`
	LastActivityAt     *string      `json:"last_activity_at"`
	LastActivityEditor *string      `json:"last_activity_editor"`
}

type BillingResponse struct {
	Title     string                     `json:"title"`
	Data      []aggregate.DateRow[int64] `json:"data"`
	PlanTypes []string                   `json:"plan_types"`
	Seats     []SeatView                 `json:"seats"`
}

type DebugResponse struct {
	Collections            []string        `json:"collections"`
	SampleDocument         json.RawMessage `json:"sampleDocument"`
	DocumentKeys           []string        `json:"documentKeys"`
	AllKeysAcrossDocuments []string        `json:"allKeysAcrossDocuments"`
	TotalDocuments         int64           `json:"totalDocuments"`
}
