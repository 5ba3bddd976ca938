package mongostore

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seatRepo struct {
	coll  *mongo.Collection
	genID *snowflake.Node
}

func NewSeatRepository(database *mongo.Database, genID *snowflake.Node) seatdomain.Repository {
	return &seatRepo{
		coll:  database.Collection(SeatCollection),
		genID: genID,
	}
}

func identityFilter(createdAt, assigneeID string) bson.D {
	return bson.D{
		{Key: "created_at", Value: createdAt},
		{Key: "assignee.id", Value: bson.D{{Key: "$in", Value: assigneeIDValues(assigneeID)}}},
	}
}

func (r *seatRepo) FindByIdentity(ctx context.Context, createdAt, assigneeID string) (*seatdomain.Seat, error) {
	raw, err := r.coll.FindOne(ctx, identityFilter(createdAt, assigneeID)).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	seat, err := seatFromRaw(raw)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepo) Insert(ctx context.Context, seat *seatdomain.Seat) error {
	if seat.ID == 0 {
		seat.ID = r.genID.Generate()
	}
	doc, err := bsonFromJSON(seat.Document)
	if err != nil {
		return err
	}
	doc = withField(doc, "_id", int64(seat.ID))
	_, err = r.coll.InsertOne(ctx, doc)
	return err
}

func (r *seatRepo) Patch(ctx context.Context, stored seatdomain.Seat, patch seatdomain.SeatPatch) error {
	if patch.Empty() {
		return nil
	}
	set := bson.D{}
	for _, field := range patch.Fields() {
		set = append(set, bson.E{Key: field, Value: patch.Columns()[field]})
	}
	_, err := r.coll.UpdateOne(ctx,
		identityFilter(stored.AssignedAt, stored.AssigneeID),
		bson.D{{Key: "$set", Value: set}},
	)
	return err
}

func (r *seatRepo) List(ctx context.Context) ([]seatdomain.Seat, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []seatdomain.Seat
	for cursor.Next(ctx) {
		seat, err := seatFromRaw(cursor.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, seat)
	}
	return out, cursor.Err()
}

type planCountDoc struct {
	ID struct {
		Date     string `bson:"date"`
		PlanType string `bson:"plan_type"`
	} `bson:"_id"`
	Count int64 `bson:"count"`
}

func (r *seatRepo) CountByDatePlan(ctx context.Context) ([]seatdomain.PlanCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "date", Value: bson.D{{Key: "$substr", Value: bson.A{"$created_at", 0, 10}}}},
				{Key: "plan_type", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$plan_type", seatdomain.UnknownPlanType}}}},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.date", Value: 1}, {Key: "_id.plan_type", Value: 1}}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []planCountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]seatdomain.PlanCount, 0, len(docs))
	for _, doc := range docs {
		out = append(out, seatdomain.PlanCount{Date: doc.ID.Date, PlanType: doc.ID.PlanType, Count: doc.Count})
	}
	return out, nil
}

func (r *seatRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func seatFromRaw(raw bson.Raw) (seatdomain.Seat, error) {
	body, err := documentJSON(raw)
	if err != nil {
		return seatdomain.Seat{}, err
	}
	seat, err := seatdomain.ParseSeat(body)
	if err != nil {
		return seatdomain.Seat{}, err
	}
	seat.ID = snowflakeID(raw)
	return seat, nil
}
