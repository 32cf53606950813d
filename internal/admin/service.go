// Package admin implements the privileged operations served by cmd/admin:
// admin login, owner listing, owner subscription edits and notification
// broadcast. Promo code management is mounted from package promo.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/logger"
	"gymdesk/internal/owner"
)

var ErrInvalidCredentials = errors.New("invalid admin credentials")

// OwnerStore is the slice of the owner store the admin service writes to.
type OwnerStore interface {
	FindByID(ctx context.Context, uid string) (*owner.Owner, error)
	ListAll(ctx context.Context) ([]owner.Owner, error)
	UpdateSubscription(ctx context.Context, uid string, start *time.Time, end time.Time) (*owner.Owner, error)
	InsertNotifications(ctx context.Context, uids []string, message string) ([]owner.Notification, error)
}

type Mailer interface {
	SendNotification(ctx context.Context, to, gymName, message string) error
}

type Credentials struct {
	Email        string
	PasswordHash string
	JWTSecret    string
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (string, error)
	ListOwners(ctx context.Context) ([]owner.Owner, error)
	UpdateSubscription(ctx context.Context, uid string, req SubscriptionRequest) (*owner.Owner, error)
	SendNotification(ctx context.Context, req NotificationRequest) (int, error)
}

type service struct {
	owners OwnerStore
	mailer Mailer
	creds  Credentials
	now    func() time.Time
}

func NewService(owners OwnerStore, mailer Mailer, creds Credentials) Service {
	return &service{
		owners: owners,
		mailer: mailer,
		creds:  creds,
		now:    time.Now,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (string, error) {
	emailMatches := strings.EqualFold(strings.TrimSpace(req.Email), s.creds.Email)
	// bcrypt runs even when the email does not match.
	passwordMatches := auth.CheckPassword(s.creds.PasswordHash, req.Password)
	if !emailMatches || !passwordMatches {
		logger.Warn("admin login rejected", "email", req.Email)
		return "", ErrInvalidCredentials
	}

	token, err := auth.GenerateAccessToken("admin", s.creds.Email, auth.RoleAdmin, s.creds.JWTSecret)
	if err != nil {
		return "", err
	}
	logger.Info("admin logged in", "email", s.creds.Email)
	return token, nil
}

func (s *service) ListOwners(ctx context.Context) ([]owner.Owner, error) {
	owners, err := s.owners.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range owners {
		owners[i].Derive(now)
	}
	return owners, nil
}

func (s *service) UpdateSubscription(ctx context.Context, uid string, req SubscriptionRequest) (*owner.Owner, error) {
	if req.SubscriptionStart != nil && !req.SubscriptionEnd.After(*req.SubscriptionStart) {
		return nil, fmt.Errorf("%w: subscription end must be after start", api.ErrValidation)
	}
	if req.SubscriptionStart == nil {
		current, err := s.owners.FindByID(ctx, uid)
		if err != nil {
			return nil, err
		}
		if !req.SubscriptionEnd.After(current.SubscriptionStart) {
			return nil, fmt.Errorf("%w: subscription end must be after start", api.ErrValidation)
		}
	}

	o, err := s.owners.UpdateSubscription(ctx, uid, req.SubscriptionStart, req.SubscriptionEnd)
	if err != nil {
		return nil, err
	}

	o.Derive(s.now())
	logger.Info("owner subscription updated", "uid", uid, "subscription_end", o.SubscriptionEnd, "status", o.Status)
	return o, nil
}

// SendNotification stores the message in each recipient's inbox and queues
// an email copy. It returns the number of recipients.
func (s *service) SendNotification(ctx context.Context, req NotificationRequest) (int, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return 0, fmt.Errorf("%w: message is empty", api.ErrValidation)
	}

	var recipients []owner.Owner
	if req.OwnerUID != "" {
		o, err := s.owners.FindByID(ctx, req.OwnerUID)
		if err != nil {
			return 0, err
		}
		recipients = []owner.Owner{*o}
	} else {
		all, err := s.owners.ListAll(ctx)
		if err != nil {
			return 0, err
		}
		recipients = all
	}

	if len(recipients) == 0 {
		return 0, nil
	}

	uids := make([]string, len(recipients))
	for i, o := range recipients {
		uids[i] = o.UID
	}

	if _, err := s.owners.InsertNotifications(ctx, uids, message); err != nil {
		return 0, err
	}

	if s.mailer != nil {
		for _, o := range recipients {
			if err := s.mailer.SendNotification(ctx, o.Email, o.GymName, message); err != nil {
				logger.WithError(err).Warn("notification email not queued", "uid", o.UID)
			}
		}
	}

	logger.Info("notification sent", "recipients", len(recipients), "broadcast", req.OwnerUID == "")
	return len(recipients), nil
}
