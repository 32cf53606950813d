package promo

import (
	"context"
	"errors"
	"strings"

	"gymdesk/internal/api"
	"gymdesk/internal/calc"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/google/uuid"
)

const generatedCodeLength = 10

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Code, error)
	List(ctx context.Context) ([]Code, error)
	Delete(ctx context.Context, id string) error
	Redeem(ctx context.Context, code string) (calc.PromoType, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Code, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = generateCode()
	}
	return s.repo.Create(ctx, code, req.Type, req.MaxUses)
}

func (s *service) List(ctx context.Context) ([]Code, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteUnused(ctx, id)
}

func (s *service) Redeem(ctx context.Context, code string) (calc.PromoType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	promoType, err := s.repo.Redeem(ctx, code)
	switch {
	case err == nil:
		metrics.RecordPromoRedemption("success")
		logger.Info("promo code redeemed", "code", code, "type", promoType)
	case errors.Is(err, api.ErrNotFound):
		metrics.RecordPromoRedemption("not_found")
	case errors.Is(err, api.ErrExhausted):
		metrics.RecordPromoRedemption("exhausted")
	default:
		metrics.RecordPromoRedemption("error")
	}
	return promoType, err
}

func generateCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:generatedCodeLength])
}
