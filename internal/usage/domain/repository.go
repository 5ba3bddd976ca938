package domain

import "context"

//go:generate mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks

// UpsertOutcome reports what an upsert did to the stored document.
type UpsertOutcome string

const (
	UpsertInserted  UpsertOutcome = "inserted"
	UpsertUpdated   UpsertOutcome = "updated"
	UpsertUnchanged UpsertOutcome = "unchanged"
)

// ListFilter bounds a listing by inclusive YYYY-MM-DD dates. Empty bounds are open.
type ListFilter struct {
	From string
	To   string
}

type Repository interface {
	// Upsert stores document under date, merging its top-level fields over any
	// existing document for that date.
	Upsert(ctx context.Context, date string, document map[string]any) (UpsertOutcome, error)
	// List returns metrics ordered by date ascending.
	List(ctx context.Context, filter ListFilter) ([]UsageMetric, error)
	Count(ctx context.Context) (int64, error)
	// Sample returns up to limit documents in storage order.
	Sample(ctx context.Context, limit int) ([]UsageMetric, error)
}
