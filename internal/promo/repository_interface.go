package promo

import (
	"context"

	"gymdesk/internal/calc"
)

type Repository interface {
	Create(ctx context.Context, code string, promoType calc.PromoType, maxUses int) (*Code, error)
	List(ctx context.Context) ([]Code, error)
	DeleteUnused(ctx context.Context, id string) error
	Redeem(ctx context.Context, code string) (calc.PromoType, error)
}
