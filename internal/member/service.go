package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/calc"
	"gymdesk/internal/config"
	"gymdesk/internal/logger"
	"gymdesk/internal/mealplan"
	"gymdesk/internal/metrics"
)

const expiringSoonWindow = 3 * 24 * time.Hour

// PricingSource returns an owner's price table.
type PricingSource interface {
	PricingFor(ctx context.Context, ownerID string) (calc.Pricing, error)
}

type Service interface {
	Register(ctx context.Context, ownerID string, req RegisterRequest) (*Member, error)
	Get(ctx context.Context, ownerID, id string) (*Member, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]Member, error)
	Update(ctx context.Context, ownerID, id string, req UpdateRequest) (*Member, error)
	Renew(ctx context.Context, ownerID, id string, req RenewRequest) (*Member, error)
	ApplyPayment(ctx context.Context, ownerID, id string, amount float64, idempotencyKey string) (*PaymentResult, error)
	Delete(ctx context.Context, ownerID, id string) error
	GenerateMealPlan(ctx context.Context, ownerID, id string, goal mealplan.Goal) (*Member, error)
	Dashboard(ctx context.Context, ownerID string) (*Dashboard, error)
	StatusCounts(ctx context.Context) (active, expired int, err error)
}

type service struct {
	repo          Repository
	pricing       PricingSource
	generator     mealplan.Generator
	renewalPolicy string
	now           func() time.Time
}

func NewService(repo Repository, pricing PricingSource, generator mealplan.Generator, renewalPolicy string) Service {
	return &service{
		repo:          repo,
		pricing:       pricing,
		generator:     generator,
		renewalPolicy: renewalPolicy,
		now:           time.Now,
	}
}

func (s *service) Register(ctx context.Context, ownerID string, req RegisterRequest) (*Member, error) {
	subType, err := calc.NewSubscriptionType(req.Period, req.Classes)
	if err != nil {
		return nil, err
	}

	calories, err := dailyCalories(req.Biometrics)
	if err != nil {
		return nil, err
	}

	pricing, err := s.pricing.PricingFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	price := pricing.PriceFor(subType)

	now := s.now()
	end, err := calc.EndDate(now, subType.Period)
	if err != nil {
		return nil, err
	}

	paid := req.AmountPaid
	if paid > price {
		paid = price
	}

	m := &Member{
		GymOwnerID:        ownerID,
		Name:              strings.TrimSpace(req.Name),
		Phone:             optionalString(req.Phone),
		SubscriptionType:  subType.String(),
		SubscriptionPrice: price,
		AmountPaid:        paid,
		StartDate:         now,
		EndDate:           end,
		Age:               req.Age,
		Weight:            req.Weight,
		Height:            req.Height,
		Gender:            req.Gender,
		DailyCalories:     calories,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	metrics.RecordMemberRegistered(string(subType.Period))
	logger.Info("member registered", "owner_id", ownerID, "member_id", m.ID, "type", m.SubscriptionType)

	m.derive(now)
	return m, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Member, error) {
	m, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	m.derive(s.now())
	return m, nil
}

func (s *service) List(ctx context.Context, ownerID string, filter ListFilter) ([]Member, error) {
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	members := make([]Member, 0, len(all))
	for _, m := range all {
		// Fail closed if the store ever returns a foreign row.
		if m.GymOwnerID != ownerID {
			return nil, fmt.Errorf("%w: member %s", api.ErrUnauthorized, m.ID)
		}
		m.derive(now)
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

func (s *service) Update(ctx context.Context, ownerID, id string, req UpdateRequest) (*Member, error) {
	m, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		m.Phone = optionalString(*req.Phone)
	}
	if req.Age != nil {
		m.Age = req.Age
	}
	if req.Weight != nil {
		m.Weight = req.Weight
	}
	if req.Height != nil {
		m.Height = req.Height
	}
	if req.Gender != nil {
		m.Gender = req.Gender
	}

	m.DailyCalories, err = dailyCalories(Biometrics{Age: m.Age, Weight: m.Weight, Height: m.Height, Gender: m.Gender})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	m.derive(s.now())
	return m, nil
}

// Renew starts a new window at now. Debt handling follows the configured
// renewal policy; the end date is never moved earlier than it already is.
func (s *service) Renew(ctx context.Context, ownerID, id string, req RenewRequest) (*Member, error) {
	m, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	subType, err := calc.NewSubscriptionType(req.Period, req.Classes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	end, err := calc.EndDate(now, subType.Period)
	if err != nil {
		return nil, err
	}
	if end.Before(m.EndDate) {
		end = m.EndDate
	}

	var priceDelta float64
	switch s.renewalPolicy {
	case config.RenewalBlock:
		if debt := calc.Debt(m.SubscriptionPrice, m.AmountPaid); debt > 0 {
			return nil, fmt.Errorf("%w: outstanding debt of %.2f must be paid before renewal", api.ErrValidation, debt)
		}
	case config.RenewalAccumulate:
		pricing, err := s.pricing.PricingFor(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		priceDelta = pricing.PriceFor(subType)
	}

	renewed, err := s.repo.Renew(ctx, id, subType.String(), now, end, priceDelta)
	if err != nil {
		return nil, err
	}

	metrics.RecordMemberRenewal(string(subType.Period))
	logger.Info("member renewed", "owner_id", ownerID, "member_id", id, "type", renewed.SubscriptionType,
		"policy", s.renewalPolicy, "price_delta", priceDelta)

	renewed.derive(now)
	return renewed, nil
}

func (s *service) ApplyPayment(ctx context.Context, ownerID, id string, amount float64, idempotencyKey string) (*PaymentResult, error) {
	if calc.RoundCents(amount) <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be at least one cent", api.ErrValidation)
	}
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return nil, err
	}

	m, applied, replayed, err := s.repo.ApplyPayment(ctx, id, amount, idempotencyKey)
	if err != nil {
		if errors.Is(err, api.ErrValidation) {
			metrics.RecordPayment("rejected", 0)
		}
		return nil, err
	}

	if replayed {
		metrics.RecordPayment("replayed", 0)
		logger.Info("payment replayed", "member_id", id, "idempotency_key", idempotencyKey, "applied", applied)
	} else {
		metrics.RecordPayment("applied", applied)
		logger.Info("payment applied", "member_id", id, "requested", amount, "applied", applied)
	}

	m.derive(s.now())
	return &PaymentResult{Member: m, Applied: applied, Replayed: replayed}, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("member deleted", "owner_id", ownerID, "member_id", id)
	return nil
}

// GenerateMealPlan replaces the member's stored plan with a fresh one built
// for their daily calories.
func (s *service) GenerateMealPlan(ctx context.Context, ownerID, id string, goal mealplan.Goal) (*Member, error) {
	m, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if m.DailyCalories == nil {
		return nil, fmt.Errorf("%w: member has no daily calorie estimate; complete age, weight, height and gender first", api.ErrValidation)
	}

	plan, err := s.generator.Generate(ctx, *m.DailyCalories, goal)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetMealPlan(ctx, id, plan)
	if err != nil {
		return nil, err
	}

	updated.derive(s.now())
	return updated, nil
}

func (s *service) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	members, err := s.List(ctx, ownerID, ListFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &Dashboard{TotalMembers: len(members)}
	for _, m := range members {
		switch m.Status {
		case calc.StatusActive:
			d.ActiveMembers++
			if m.EndDate.Sub(now) <= expiringSoonWindow {
				d.ExpiringSoon++
			}
		case calc.StatusExpired:
			d.ExpiredMembers++
		}
		if m.Debt > 0 {
			d.MembersWithDebt++
			d.OutstandingDebt += m.Debt
		}
	}
	d.OutstandingDebt = calc.RoundCents(d.OutstandingDebt)
	return d, nil
}

func (s *service) StatusCounts(ctx context.Context) (int, int, error) {
	ends, err := s.repo.EndDates(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	var active, expired int
	for _, end := range ends {
		if calc.DeriveStatus(now, end) == calc.StatusActive {
			active++
		} else {
			expired++
		}
	}
	return active, expired, nil
}

// owned loads a member and fails closed when it belongs to another owner.
func (s *service) owned(ctx context.Context, ownerID, id string) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.GymOwnerID != ownerID {
		logger.Warn("cross-tenant member access", "owner_id", ownerID, "member_id", id)
		return nil, fmt.Errorf("%w: member %s belongs to another gym", api.ErrUnauthorized, id)
	}
	return m, nil
}

func dailyCalories(b Biometrics) (*int, error) {
	if b.Age == nil || b.Weight == nil || b.Height == nil || b.Gender == nil {
		return nil, nil
	}
	kcal, err := calc.BMR(*b.Gender, *b.Weight, *b.Height, *b.Age)
	if err != nil {
		return nil, err
	}
	return &kcal, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
