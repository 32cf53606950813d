package member

import (
	"context"
	"time"

	"gymdesk/internal/mealplan"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Member, error)
	Update(ctx context.Context, m *Member) error
	Renew(ctx context.Context, id, subscriptionType string, start, end time.Time, priceDelta float64) (*Member, error)
	ApplyPayment(ctx context.Context, id string, amount float64, idempotencyKey string) (*Member, float64, bool, error)
	SetMealPlan(ctx context.Context, id string, plan *mealplan.Plan) (*Member, error)
	Delete(ctx context.Context, id string) error
	EndDates(ctx context.Context) ([]time.Time, error)
}
