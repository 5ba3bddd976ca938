package mongostore

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBSONRoundTripKeepsNumbers(t *testing.T) {
	doc, err := bsonFromJSON([]byte(`{"date":"2024-01-01","total_active_users":10,"ratio":2.5,"big":12345678901}`))
	require.NoError(t, err)

	doc = withField(doc, "_id", int64(42))
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	body, err := documentJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-01","total_active_users":10,"ratio":2.5,"big":12345678901}`, string(body))
	assert.Equal(t, snowflake.ID(42), snowflakeID(raw))

	metric, err := usageFromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", metric.Date)
}

func TestSnowflakeIDIgnoresObjectIDs(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: primitive.NewObjectID()}})
	require.NoError(t, err)
	assert.Zero(t, snowflakeID(raw))
}

func TestWithFieldReplacesExistingKey(t *testing.T) {
	doc := withField(bson.D{{Key: "date", Value: "x"}, {Key: "a", Value: 1}}, "date", "2024-01-01")
	assert.Equal(t, bson.D{{Key: "a", Value: 1}, {Key: "date", Value: "2024-01-01"}}, doc)
}

func TestSeatFromRaw(t *testing.T) {
	doc, err := bsonFromJSON([]byte(`{"created_at":"2024-01-01T00:00:00Z","plan_type":"business","assignee":{"id":7,"login":"octo"}}`))
	require.NoError(t, err)
	raw, err := bson.Marshal(withField(doc, "_id", int64(99)))
	require.NoError(t, err)

	seat, err := seatFromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(99), seat.ID)
	assert.Equal(t, "7", seat.AssigneeID)
	assert.Equal(t, "octo", seat.AssigneeLogin)
	require.NotNil(t, seat.PlanType)
	assert.Equal(t, "business", *seat.PlanType)
}

func TestIdentityFilterMatchesNumericAndStringIDs(t *testing.T) {
	filter := identityFilter("2024-01-01T00:00:00Z", "7")
	assert.Equal(t, bson.A{"7", int64(7)}, filter[1].Value.(bson.D)[0].Value)

	filter = identityFilter("2024-01-01T00:00:00Z", "user-7")
	assert.Equal(t, bson.A{"user-7"}, filter[1].Value.(bson.D)[0].Value)
}
