package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/smallbiznis/copilot-insights/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) usagedomain.Repository {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&usagedomain.UsageMetric{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return Provide(conn, node)
}

func doc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestUpsertIsIdempotentPerDate(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	first := doc(t, `{"date":"2024-01-01","total_active_users":10}`)
	outcome, err := repo.Upsert(ctx, "2024-01-01", first)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.UpsertInserted, outcome)

	outcome, err = repo.Upsert(ctx, "2024-01-01", first)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.UpsertUnchanged, outcome)

	outcome, err = repo.Upsert(ctx, "2024-01-01", doc(t, `{"date":"2024-01-01","total_active_users":11}`))
	require.NoError(t, err)
	assert.Equal(t, usagedomain.UpsertUpdated, outcome)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rows, err := repo.List(ctx, usagedomain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	day, _, err := usagedomain.DecodeDay(rows[0].Document)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.Count(11), day.TotalActiveUsers)
}

func TestUpsertKeepsFieldsMissingFromLaterPayload(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	_, err := repo.Upsert(ctx, "2024-01-01", doc(t, `{"date":"2024-01-01","total_active_users":10,"copilot_dotcom_chat":{"total_engaged_users":2}}`))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "2024-01-01", doc(t, `{"date":"2024-01-01","total_active_users":12}`))
	require.NoError(t, err)

	rows, err := repo.List(ctx, usagedomain.ListFilter{})
	require.NoError(t, err)
	day, _, err := usagedomain.DecodeDay(rows[0].Document)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.Count(12), day.TotalActiveUsers)
	require.NotNil(t, day.DotcomChat)
	assert.Equal(t, usagedomain.Count(2), day.DotcomChat.TotalEngagedUsers)
}

func TestListFiltersInclusiveRangeAscending(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	for _, date := range []string{"2024-01-05", "2024-01-01", "2024-01-03", "2024-01-07"} {
		_, err := repo.Upsert(ctx, date, map[string]any{"date": date})
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, usagedomain.ListFilter{From: "2024-01-03", To: "2024-01-05"})
	require.NoError(t, err)
	dates := make([]string, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.Date)
	}
	assert.Equal(t, []string{"2024-01-03", "2024-01-05"}, dates)

	sample, err := repo.Sample(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON([]byte(`{ "b": 1, "a": {"d": 2.50, "c": null} }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":null,"d":2.50},"b":1}`, string(got))
}
