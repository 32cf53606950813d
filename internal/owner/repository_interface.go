package owner

import (
	"context"
	"time"

	"gymdesk/internal/calc"
)

type Repository interface {
	Create(ctx context.Context, o *Owner) error
	FindByEmail(ctx context.Context, email string) (*Owner, error)
	FindByID(ctx context.Context, uid string) (*Owner, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PricingFor(ctx context.Context, uid string) (calc.Pricing, error)
	UpdateSettings(ctx context.Context, uid, gymName string, pricing calc.Pricing) (*Owner, error)
	UpdateSubscription(ctx context.Context, uid string, start *time.Time, end time.Time) (*Owner, error)
	ListAll(ctx context.Context) ([]Owner, error)
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]Owner, error)
	SubscriptionEnds(ctx context.Context) ([]time.Time, error)

	Notifications(ctx context.Context, uid string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, uid, id string) error
	InsertNotifications(ctx context.Context, uids []string, message string) ([]Notification, error)
}
