package domain

import "context"

//go:generate mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks

// PlanCount is the number of seats created on Date with PlanType.
type PlanCount struct {
	Date     string
	PlanType string
	Count    int64
}

// UnknownPlanType labels seats stored without a plan type.
const UnknownPlanType = "unknown"

type Repository interface {
	// FindByIdentity returns nil, nil when no seat matches.
	FindByIdentity(ctx context.Context, createdAt, assigneeID string) (*Seat, error)
	Insert(ctx context.Context, seat *Seat) error
	// Patch sets only the fields present in patch on the stored seat.
	Patch(ctx context.Context, stored Seat, patch SeatPatch) error
	List(ctx context.Context) ([]Seat, error)
	// CountByDatePlan groups seats by the date part of created_at and plan type,
	// ordered by date.
	CountByDatePlan(ctx context.Context) ([]PlanCount, error)
	Count(ctx context.Context) (int64, error)
}
