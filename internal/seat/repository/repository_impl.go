package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	"github.com/smallbiznis/copilot-insights/pkg/db/option"
	"github.com/smallbiznis/copilot-insights/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct {
	db    *gorm.DB
	genID *snowflake.Node
	store repository.Repository[seatdomain.Seat]
}

func Provide(db *gorm.DB, genID *snowflake.Node) seatdomain.Repository {
	return &repo{
		db:    db,
		genID: genID,
		store: repository.ProvideStore[seatdomain.Seat](db),
	}
}

func (r *repo) FindByIdentity(ctx context.Context, createdAt, assigneeID string) (*seatdomain.Seat, error) {
	return r.store.FindOne(ctx, &seatdomain.Seat{AssignedAt: createdAt, AssigneeID: assigneeID})
}

func (r *repo) Insert(ctx context.Context, seat *seatdomain.Seat) error {
	if seat.ID == 0 {
		seat.ID = r.genID.Generate()
	}
	return r.store.Create(ctx, seat)
}

func (r *repo) Patch(ctx context.Context, stored seatdomain.Seat, patch seatdomain.SeatPatch) error {
	if patch.Empty() {
		return nil
	}
	document, err := patch.ApplyDocument(stored.Document)
	if err != nil {
		return err
	}
	columns := patch.Columns()
	columns["document"] = datatypes.JSON(document)
	return r.store.Update(ctx, stored.ID, columns)
}

func (r *repo) List(ctx context.Context) ([]seatdomain.Seat, error) {
	rows, err := r.store.Find(ctx, &seatdomain.Seat{},
		option.WithSortBy("created_at", option.Asc),
		option.WithSortBy("id", option.Asc),
	)
	if err != nil {
		return nil, err
	}
	out := make([]seatdomain.Seat, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

type planCountRow struct {
	Day      string `gorm:"column:day"`
	PlanType string `gorm:"column:plan_type"`
	Total    int64  `gorm:"column:total"`
}

func (r *repo) CountByDatePlan(ctx context.Context) ([]seatdomain.PlanCount, error) {
	var rows []planCountRow
	err := r.db.WithContext(ctx).
		Model(&seatdomain.Seat{}).
		Select("substr(created_at, 1, 10) AS day, COALESCE(plan_type, '" + seatdomain.UnknownPlanType + "') AS plan_type, COUNT(*) AS total").
		Group("1, 2").
		Order("1 ASC, 2 ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]seatdomain.PlanCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, seatdomain.PlanCount{Date: row.Day, PlanType: row.PlanType, Count: row.Total})
	}
	return out, nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, &seatdomain.Seat{})
}
