package owner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/calc"
	"gymdesk/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PromoRedeemer consumes one use of a promo code.
type PromoRedeemer interface {
	Redeem(ctx context.Context, code string) (calc.PromoType, error)
}

// Mailer queues owner facing email.
type Mailer interface {
	SendWelcome(ctx context.Context, to, gymName string, subscriptionEnd time.Time) error
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Me(ctx context.Context, uid string) (*Owner, error)
	Status(ctx context.Context, uid string) (calc.Status, error)
	UpdateSettings(ctx context.Context, uid string, req SettingsRequest) (*Owner, error)
	Notifications(ctx context.Context, uid string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, uid, id string) error
	StatusCounts(ctx context.Context) (active, expired int, err error)
}

type service struct {
	repo      Repository
	promos    PromoRedeemer
	mailer    Mailer
	jwtSecret string
	now       func() time.Time
}

func NewService(repo Repository, promos PromoRedeemer, mailer Mailer, jwtSecret string) Service {
	return &service{
		repo:      repo,
		promos:    promos,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// Signup redeems the promo code before the account exists. A failure after
// redemption leaves the use consumed; it is logged with the code so an admin
// can restore it.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	promoType, err := s.promos.Redeem(ctx, req.PromoCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	end, err := calc.PromoWindowEnd(now, promoType)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("signup failed after promo redemption", "code", req.PromoCode, "email", email, "error", err)
		return nil, err
	}

	o := &Owner{
		Email:             email,
		PasswordHash:      passwordHash,
		GymName:           strings.TrimSpace(req.GymName),
		SubscriptionStart: now,
		SubscriptionEnd:   end,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		logger.Error("signup failed after promo redemption", "code", req.PromoCode, "email", email, "error", err)
		return nil, err
	}

	resp, err := s.issueTokens(o)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, o.Email, o.GymName, o.SubscriptionEnd); err != nil {
			logger.WithError(err).Warn("welcome email not queued", "uid", o.UID)
		}
	}

	logger.Info("gym owner signed up", "uid", o.UID, "promo_type", promoType, "subscription_end", end)
	o.Derive(now)
	return resp, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	o, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(o.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueTokens(o)
	if err != nil {
		return nil, err
	}
	o.Derive(s.now())
	return resp, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", err
	}

	o, err := s.repo.FindByID(ctx, claims.UID)
	if err != nil {
		return "", err
	}
	// An expired owner must not mint new sessions from an old refresh token.
	if calc.DeriveStatus(s.now(), o.SubscriptionEnd) == calc.StatusExpired {
		logger.Info("refresh refused for expired subscription", "uid", o.UID)
		return "", fmt.Errorf("%w: subscription ended %s", api.ErrSubscriptionExpired, o.SubscriptionEnd.Format(time.DateOnly))
	}

	return auth.GenerateAccessToken(o.UID, o.Email, auth.RoleOwner, s.jwtSecret)
}

func (s *service) Me(ctx context.Context, uid string) (*Owner, error) {
	o, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	o.Derive(s.now())
	return o, nil
}

func (s *service) Status(ctx context.Context, uid string) (calc.Status, error) {
	o, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return "", err
	}
	return calc.DeriveStatus(s.now(), o.SubscriptionEnd), nil
}

func (s *service) UpdateSettings(ctx context.Context, uid string, req SettingsRequest) (*Owner, error) {
	current, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	gymName := current.GymName
	if req.GymName != nil {
		gymName = strings.TrimSpace(*req.GymName)
	}
	pricing := current.Pricing
	if req.Pricing != nil {
		pricing = *req.Pricing
	}
	if err := validatePricing(pricing); err != nil {
		return nil, err
	}

	o, err := s.repo.UpdateSettings(ctx, uid, gymName, pricing)
	if err != nil {
		return nil, err
	}

	logger.Info("gym settings updated", "uid", uid)
	o.Derive(s.now())
	return o, nil
}

func (s *service) Notifications(ctx context.Context, uid string) ([]Notification, error) {
	return s.repo.Notifications(ctx, uid)
}

func (s *service) MarkNotificationRead(ctx context.Context, uid, id string) error {
	return s.repo.MarkNotificationRead(ctx, uid, id)
}

func (s *service) StatusCounts(ctx context.Context) (int, int, error) {
	ends, err := s.repo.SubscriptionEnds(ctx)
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

func (s *service) issueTokens(o *Owner) (*AuthResponse, error) {
	accessToken, refreshToken, err := auth.GenerateTokens(o.UID, o.Email, auth.RoleOwner, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, Owner: o}, nil
}

func validatePricing(p calc.Pricing) error {
	for _, v := range []float64{p.DailyIron, p.DailyFitness, p.WeeklyIron, p.WeeklyFitness, p.MonthlyIron, p.MonthlyFitness} {
		if v < 0 {
			return fmt.Errorf("%w: prices must not be negative", api.ErrValidation)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
