package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/smallbiznis/copilot-insights/internal/usage/repository"
	"github.com/smallbiznis/copilot-insights/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupUsageService(t *testing.T) (usagedomain.Service, usagedomain.Repository) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&usagedomain.UsageMetric{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.Provide(conn, node)
	svc := NewService(ServiceParam{Log: zaptest.NewLogger(t), Repo: repo})
	return svc, repo
}

func TestIngestArrayPayloadTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupUsageService(t)

	payload := []byte(`[
		{"date": "2024-01-01", "total_active_users": 10, "total_engaged_users": 4},
		{"date": "2024-01-03", "total_active_users": 5, "total_engaged_users": 2.5}
	]`)

	result, err := svc.Ingest(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.IngestResult{Inserted: 2}, result)

	result, err = svc.Ingest(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, usagedomain.IngestResult{Unchanged: 2}, result)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestIngestSingleObjectUpdatesExistingDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupUsageService(t)

	_, err := svc.Ingest(ctx, []byte(`{"date": "2024-01-01", "total_active_users": 10}`))
	require.NoError(t, err)

	result, err := svc.Ingest(ctx, []byte(`{"date": "2024-01-01", "total_active_users": 14}`))
	require.NoError(t, err)
	assert.Equal(t, usagedomain.IngestResult{Updated: 1}, result)

	days, err := svc.ListDays(ctx, usagedomain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, usagedomain.Count(14), days[0].TotalActiveUsers)
}

func TestIngestSkipsRecordsWithoutDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupUsageService(t)

	result, err := svc.Ingest(ctx, []byte(`[{"total_active_users": 1}, {"date": 20240101}, {"date": "2024-01-02"}]`))
	require.NoError(t, err)
	assert.Equal(t, usagedomain.IngestResult{Inserted: 1, Skipped: 2}, result)
	assert.Equal(t, 3, result.Total())
}

func TestIngestRejectsGarbage(t *testing.T) {
	svc, _ := setupUsageService(t)

	for _, payload := range []string{"", "42", "{not json"} {
		_, err := svc.Ingest(context.Background(), []byte(payload))
		assert.True(t, errors.Is(err, usagedomain.ErrInvalidPayload), payload)
	}
}

func TestListDaysToleratesMalformedSubtrees(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupUsageService(t)

	_, err := svc.Ingest(ctx, []byte(`{"date": "2024-01-01", "total_active_users": 3, "copilot_ide_chat": {"editors": 7}}`))
	require.NoError(t, err)

	days, err := svc.ListDays(ctx, usagedomain.ListFilter{From: "2024-01-01", To: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-01", days[0].Date)
	assert.Equal(t, usagedomain.Count(3), days[0].TotalActiveUsers)
	assert.Nil(t, days[0].IDEChat)
}
