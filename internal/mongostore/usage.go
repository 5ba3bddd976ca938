package mongostore

import (
	"bytes"
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	usagerepository "github.com/smallbiznis/copilot-insights/internal/usage/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type usageRepo struct {
	coll  *mongo.Collection
	genID *snowflake.Node
}

func NewUsageRepository(database *mongo.Database, genID *snowflake.Node) usagedomain.Repository {
	return &usageRepo{
		coll:  database.Collection(UsageCollection),
		genID: genID,
	}
}

func (r *usageRepo) Upsert(ctx context.Context, date string, document map[string]any) (usagedomain.UpsertOutcome, error) {
	var current []byte
	raw, err := r.coll.FindOne(ctx, bson.D{{Key: "date", Value: date}}).Raw()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return "", err
	default:
		body, err := documentJSON(raw)
		if err != nil {
			return "", err
		}
		if current, err = usagerepository.CanonicalJSON(body); err != nil {
			return "", err
		}
	}

	merged, err := usagerepository.MergeDocument(current, document)
	if err != nil {
		return "", err
	}
	if current != nil && bytes.Equal(current, merged) {
		return usagedomain.UpsertUnchanged, nil
	}

	set, err := bsonFromJSON(merged)
	if err != nil {
		return "", err
	}
	set = withField(set, "date", date)

	_, err = r.coll.UpdateOne(ctx,
		bson.D{{Key: "date", Value: date}},
		bson.D{
			{Key: "$set", Value: set},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: int64(r.genID.Generate())}}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", err
	}
	if current == nil {
		return usagedomain.UpsertInserted, nil
	}
	return usagedomain.UpsertUpdated, nil
}

func (r *usageRepo) List(ctx context.Context, filter usagedomain.ListFilter) ([]usagedomain.UsageMetric, error) {
	query := bson.D{}
	window := bson.D{}
	if filter.From != "" {
		window = append(window, bson.E{Key: "$gte", Value: filter.From})
	}
	if filter.To != "" {
		window = append(window, bson.E{Key: "$lte", Value: filter.To})
	}
	if len(window) > 0 {
		query = append(query, bson.E{Key: "date", Value: window})
	}

	return r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *usageRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func (r *usageRepo) Sample(ctx context.Context, limit int) ([]usagedomain.UsageMetric, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.D{}, opts)
}

func (r *usageRepo) find(ctx context.Context, query bson.D, opts *options.FindOptions) ([]usagedomain.UsageMetric, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []usagedomain.UsageMetric
	for cursor.Next(ctx) {
		metric, err := usageFromRaw(cursor.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, metric)
	}
	return out, cursor.Err()
}

func usageFromRaw(raw bson.Raw) (usagedomain.UsageMetric, error) {
	body, err := documentJSON(raw)
	if err != nil {
		return usagedomain.UsageMetric{}, err
	}
	date, _ := raw.Lookup("date").StringValueOK()
	return usagedomain.UsageMetric{
		ID:       snowflakeID(raw),
		Date:     date,
		Document: body,
	}, nil
}
