package repository

import (
	"bytes"
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	"github.com/smallbiznis/copilot-insights/pkg/db"
	"github.com/smallbiznis/copilot-insights/pkg/db/option"
	"github.com/smallbiznis/copilot-insights/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct {
	db    *gorm.DB
	genID *snowflake.Node
	store repository.Repository[usagedomain.UsageMetric]
}

func Provide(conn *gorm.DB, genID *snowflake.Node) usagedomain.Repository {
	return &repo{
		db:    conn,
		genID: genID,
		store: repository.ProvideStore[usagedomain.UsageMetric](conn),
	}
}

// Upsert retries once when a concurrent writer inserted the same date between
// the lookup and the insert; the second pass then sees that row.
func (r *repo) Upsert(ctx context.Context, date string, document map[string]any) (usagedomain.UpsertOutcome, error) {
	outcome, err := r.upsertOnce(ctx, date, document)
	if db.IsDuplicateKeyErr(err) {
		return r.upsertOnce(ctx, date, document)
	}
	return outcome, err
}

func (r *repo) upsertOnce(ctx context.Context, date string, document map[string]any) (usagedomain.UpsertOutcome, error) {
	var outcome usagedomain.UpsertOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := r.store.WithTrx(tx)

		existing, err := store.FindOne(ctx, &usagedomain.UsageMetric{Date: date})
		if err != nil {
			return err
		}

		if existing == nil {
			body, err := MergeDocument(nil, document)
			if err != nil {
				return err
			}
			if err := store.Create(ctx, &usagedomain.UsageMetric{
				ID:       r.genID.Generate(),
				Date:     date,
				Document: datatypes.JSON(body),
			}); err != nil {
				return err
			}
			outcome = usagedomain.UpsertInserted
			return nil
		}

		current, err := CanonicalJSON(existing.Document)
		if err != nil {
			return err
		}
		merged, err := MergeDocument(current, document)
		if err != nil {
			return err
		}
		if bytes.Equal(current, merged) {
			outcome = usagedomain.UpsertUnchanged
			return nil
		}

		if err := store.Update(ctx, existing.ID, map[string]any{
			"document": datatypes.JSON(merged),
		}); err != nil {
			return err
		}
		outcome = usagedomain.UpsertUpdated
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (r *repo) List(ctx context.Context, filter usagedomain.ListFilter) ([]usagedomain.UsageMetric, error) {
	opts := []option.QueryOption{option.WithSortBy("date", option.Asc)}
	if filter.From != "" {
		opts = append(opts, option.WithWhere("date >= ?", filter.From))
	}
	if filter.To != "" {
		opts = append(opts, option.WithWhere("date <= ?", filter.To))
	}

	rows, err := r.store.Find(ctx, &usagedomain.UsageMetric{}, opts...)
	if err != nil {
		return nil, err
	}
	return derefAll(rows), nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, &usagedomain.UsageMetric{})
}

func (r *repo) Sample(ctx context.Context, limit int) ([]usagedomain.UsageMetric, error) {
	rows, err := r.store.Find(ctx, &usagedomain.UsageMetric{},
		option.WithSortBy("id", option.Asc),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	return derefAll(rows), nil
}

func derefAll[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			out = append(out, *row)
		}
	}
	return out
}
