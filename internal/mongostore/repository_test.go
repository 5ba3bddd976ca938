package mongostore

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// sentCommand returns the last started command named name.
func sentCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	var found bson.Raw
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			found = evt.Command
		}
	}
	require.NotNil(mt, found, "no %s command sent", name)
	return found
}

func countSent(mt *mtest.T, name string) int {
	n := 0
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			n++
		}
	}
	return n
}

func TestUsageUpsertOutcomes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + UsageCollection }

	mt.Run("inserted", func(mt *mtest.T) {
		repo := NewUsageRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		outcome, err := repo.Upsert(context.Background(), "2024-01-01", map[string]any{"date": "2024-01-01", "total_active_users": 10})
		require.NoError(mt, err)
		assert.Equal(mt, usagedomain.UpsertInserted, outcome)

		update := sentCommand(mt, "update")
		assert.Equal(mt, "2024-01-01", update.Lookup("updates", "0", "q", "date").StringValue())
		assert.True(mt, update.Lookup("updates", "0", "upsert").Boolean())
		assert.Equal(mt, int64(10), update.Lookup("updates", "0", "u", "$set", "total_active_users").AsInt64())
		_, err = update.LookupErr("updates", "0", "u", "$setOnInsert", "_id")
		assert.NoError(mt, err)
	})

	mt.Run("unchanged", func(mt *mtest.T) {
		repo := NewUsageRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(7)},
			{Key: "date", Value: "2024-01-01"},
			{Key: "total_active_users", Value: int32(10)},
		}))

		outcome, err := repo.Upsert(context.Background(), "2024-01-01", map[string]any{"total_active_users": 10})
		require.NoError(mt, err)
		assert.Equal(mt, usagedomain.UpsertUnchanged, outcome)
		assert.Zero(mt, countSent(mt, "update"))
	})

	mt.Run("updated keeps unmentioned fields", func(mt *mtest.T) {
		repo := NewUsageRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: int64(7)},
				{Key: "date", Value: "2024-01-01"},
				{Key: "total_active_users", Value: int32(10)},
				{Key: "total_engaged_users", Value: int32(4)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		outcome, err := repo.Upsert(context.Background(), "2024-01-01", map[string]any{"total_active_users": 12})
		require.NoError(mt, err)
		assert.Equal(mt, usagedomain.UpsertUpdated, outcome)

		set := sentCommand(mt, "update").Lookup("updates", "0", "u", "$set")
		assert.Equal(mt, int64(12), set.Document().Lookup("total_active_users").AsInt64())
		assert.Equal(mt, int64(4), set.Document().Lookup("total_engaged_users").AsInt64())
	})
}

func TestUsageListFiltersAndSorts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("window", func(mt *mtest.T) {
		repo := NewUsageRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+UsageCollection, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "date", Value: "2024-01-02"}},
			bson.D{{Key: "_id", Value: int64(2)}, {Key: "date", Value: "2024-01-03"}},
		))

		rows, err := repo.List(context.Background(), usagedomain.ListFilter{From: "2024-01-02", To: "2024-01-05"})
		require.NoError(mt, err)
		require.Len(mt, rows, 2)
		assert.Equal(mt, "2024-01-02", rows[0].Date)
		assert.Equal(mt, snowflake.ID(2), rows[1].ID)

		find := sentCommand(mt, "find")
		assert.Equal(mt, "2024-01-02", find.Lookup("filter", "date", "$gte").StringValue())
		assert.Equal(mt, "2024-01-05", find.Lookup("filter", "date", "$lte").StringValue())
		assert.Equal(mt, int64(1), find.Lookup("sort", "date").AsInt64())
	})
}

func TestSeatIdentityMatchesStringAndNumber(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + SeatCollection }

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		seat, err := repo.FindByIdentity(context.Background(), "2024-01-01T00:00:00Z", "7")
		require.NoError(mt, err)
		assert.Nil(mt, seat)

		find := sentCommand(mt, "find")
		assert.Equal(mt, "2024-01-01T00:00:00Z", find.Lookup("filter", "created_at").StringValue())
		values, err := find.Lookup("filter", "assignee.id", "$in").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, values, 2)
		assert.Equal(mt, "7", values[0].StringValue())
		assert.Equal(mt, int64(7), values[1].Int64())
	})

	mt.Run("found", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(99)},
			{Key: "created_at", Value: "2024-01-01T00:00:00Z"},
			{Key: "plan_type", Value: "business"},
			{Key: "assignee", Value: bson.D{{Key: "id", Value: int64(7)}, {Key: "login", Value: "octocat"}}},
		}))

		seat, err := repo.FindByIdentity(context.Background(), "2024-01-01T00:00:00Z", "7")
		require.NoError(mt, err)
		require.NotNil(mt, seat)
		assert.Equal(mt, snowflake.ID(99), seat.ID)
		assert.Equal(mt, "7", seat.AssigneeID)
		assert.Equal(mt, "octocat", seat.AssigneeLogin)
		require.NotNil(mt, seat.PlanType)
		assert.Equal(mt, "business", *seat.PlanType)
	})
}

func TestSeatInsertAndPatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns id", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		seat, err := seatdomain.ParseSeat([]byte(`{"created_at":"2024-01-01T00:00:00Z","assignee":{"id":7}}`))
		require.NoError(mt, err)
		require.NoError(mt, repo.Insert(context.Background(), &seat))
		assert.NotZero(mt, seat.ID)

		doc := sentCommand(mt, "insert").Lookup("documents", "0").Document()
		assert.Equal(mt, int64(seat.ID), doc.Lookup("_id").Int64())
		assert.Equal(mt, "2024-01-01T00:00:00Z", doc.Lookup("created_at").StringValue())
	})

	mt.Run("patch sets changed fields only", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		plan := "enterprise"
		stored := seatdomain.Seat{AssignedAt: "2024-01-01T00:00:00Z", AssigneeID: "7"}
		patch := seatdomain.SeatPatch{seatdomain.FieldPlanType: &plan, seatdomain.FieldLastActivityEditor: nil}
		require.NoError(mt, repo.Patch(context.Background(), stored, patch))

		update := sentCommand(mt, "update")
		elems, err := update.Lookup("updates", "0", "u", "$set").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 2)
		assert.Equal(mt, seatdomain.FieldPlanType, elems[0].Key())
		assert.Equal(mt, "enterprise", elems[0].Value().StringValue())
		assert.Equal(mt, seatdomain.FieldLastActivityEditor, elems[1].Key())
		assert.Equal(mt, bson.TypeNull, elems[1].Value().Type)
		assert.Equal(mt, "2024-01-01T00:00:00Z", update.Lookup("updates", "0", "q", "created_at").StringValue())
	})

	mt.Run("empty patch sends nothing", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		require.NoError(mt, repo.Patch(context.Background(), seatdomain.Seat{}, seatdomain.SeatPatch{}))
		assert.Zero(mt, countSent(mt, "update"))
	})
}

func TestSeatCountByDatePlanPipeline(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("groups by day and plan", func(mt *mtest.T) {
		repo := NewSeatRepository(mt.DB, newNode(mt.T))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+SeatCollection, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: bson.D{{Key: "date", Value: "2024-01-01"}, {Key: "plan_type", Value: "business"}}},
				{Key: "count", Value: int32(2)},
			},
			bson.D{
				{Key: "_id", Value: bson.D{{Key: "date", Value: "2024-01-02"}, {Key: "plan_type", Value: seatdomain.UnknownPlanType}}},
				{Key: "count", Value: int32(1)},
			},
		))

		counts, err := repo.CountByDatePlan(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []seatdomain.PlanCount{
			{Date: "2024-01-01", PlanType: "business", Count: 2},
			{Date: "2024-01-02", PlanType: seatdomain.UnknownPlanType, Count: 1},
		}, counts)

		agg := sentCommand(mt, "aggregate")
		substr, err := agg.Lookup("pipeline", "0", "$group", "_id", "date", "$substr").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, substr, 3)
		assert.Equal(mt, "$created_at", substr[0].StringValue())
		assert.Equal(mt, int64(10), substr[2].AsInt64())
		ifNull, err := agg.Lookup("pipeline", "0", "$group", "_id", "plan_type", "$ifNull").Array().Values()
		require.NoError(mt, err)
		assert.Equal(mt, seatdomain.UnknownPlanType, ifNull[1].StringValue())
	})
}
