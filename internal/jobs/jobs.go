// Package jobs holds the periodic background work of the owner API:
// refreshing subscription status gauges and emailing expiry reminders.
package jobs

import (
	"context"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
	"gymdesk/internal/owner"
)

const (
	reminderWindow = 3 * 24 * time.Hour
	jobTimeout     = 5 * time.Minute
)

// StatusCounter counts active and expired subscriptions.
type StatusCounter interface {
	StatusCounts(ctx context.Context) (active, expired int, err error)
}

type ExpiringOwners interface {
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]owner.Owner, error)
}

type Mailer interface {
	SendExpiryReminder(ctx context.Context, to, gymName string, subscriptionEnd time.Time) error
	QueueLength(ctx context.Context) int64
}

type Jobs struct {
	members StatusCounter
	owners  StatusCounter
	expiry  ExpiringOwners
	mailer  Mailer
	now     func() time.Time
}

func NewJobs(members, owners StatusCounter, expiry ExpiringOwners, mailer Mailer) *Jobs {
	return &Jobs{
		members: members,
		owners:  owners,
		expiry:  expiry,
		mailer:  mailer,
		now:     time.Now,
	}
}

// RefreshGauges recomputes the member and owner status gauges and samples
// the email queue length.
func (j *Jobs) RefreshGauges(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	activeMembers, expiredMembers, err := j.members.StatusCounts(ctx)
	if err != nil {
		logger.WithError(err).Error("status gauge refresh failed", "scope", "members")
		return err
	}
	activeOwners, expiredOwners, err := j.owners.StatusCounts(ctx)
	if err != nil {
		logger.WithError(err).Error("status gauge refresh failed", "scope", "owners")
		return err
	}

	metrics.SetStatusCounts(activeMembers, expiredMembers, activeOwners, expiredOwners)
	queued := j.mailer.QueueLength(ctx)

	logger.Debug("status gauges refreshed",
		"active_members", activeMembers,
		"expired_members", expiredMembers,
		"active_owners", activeOwners,
		"expired_owners", expiredOwners,
		"email_queue", queued,
	)
	return nil
}

// RemindExpiring emails every owner whose subscription ends within the next
// three days. It returns how many reminders were queued.
func (j *Jobs) RemindExpiring(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	now := j.now()
	owners, err := j.expiry.ExpiringBetween(ctx, now, now.Add(reminderWindow))
	if err != nil {
		logger.WithError(err).Error("expiry reminder lookup failed")
		return 0, err
	}

	sent := 0
	for _, o := range owners {
		if err := j.mailer.SendExpiryReminder(ctx, o.Email, o.GymName, o.SubscriptionEnd); err != nil {
			logger.WithError(err).Warn("expiry reminder not queued", "uid", o.UID)
			continue
		}
		sent++
	}

	logger.Info("expiry reminders queued", "candidates", len(owners), "queued", sent)
	return sent, nil
}
