package owner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/calc"
	"gymdesk/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const ownerColumns = `uid, email, password_hash, gym_name, subscription_start, subscription_end,
	price_daily_iron, price_daily_fitness, price_weekly_iron, price_weekly_fitness,
	price_monthly_iron, price_monthly_fitness, created_at`

const notificationColumns = `id, gym_owner_id, message, is_read, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Owner) error {
	if o.UID == "" {
		o.UID = uuid.NewString()
	}

	query := `
		INSERT INTO gym_owners (uid, email, password_hash, gym_name, subscription_start, subscription_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		o.UID, o.Email, o.PasswordHash, o.GymName, o.SubscriptionStart, o.SubscriptionEnd,
	).Scan(&o.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Owner, error) {
	return r.findOne(ctx, `SELECT `+ownerColumns+` FROM gym_owners WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, uid string) (*Owner, error) {
	return r.findOne(ctx, `SELECT `+ownerColumns+` FROM gym_owners WHERE uid = $1`, uid)
}

func (r *repository) findOne(ctx context.Context, query string, arg string) (*Owner, error) {
	var o Owner
	if err := r.db.GetContext(ctx, &o, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: gym owner", api.ErrNotFound)
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM gym_owners WHERE email = $1)`, email)
}

func (r *repository) PricingFor(ctx context.Context, uid string) (calc.Pricing, error) {
	query := `
		SELECT price_daily_iron, price_daily_fitness, price_weekly_iron, price_weekly_fitness,
			price_monthly_iron, price_monthly_fitness
		FROM gym_owners
		WHERE uid = $1
	`

	var p calc.Pricing
	if err := r.db.GetContext(ctx, &p, query, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calc.Pricing{}, fmt.Errorf("%w: gym owner %s", api.ErrNotFound, uid)
		}
		return calc.Pricing{}, err
	}
	return p, nil
}

func (r *repository) UpdateSettings(ctx context.Context, uid, gymName string, p calc.Pricing) (*Owner, error) {
	query := `
		UPDATE gym_owners
		SET gym_name = $2,
			price_daily_iron = $3, price_daily_fitness = $4,
			price_weekly_iron = $5, price_weekly_fitness = $6,
			price_monthly_iron = $7, price_monthly_fitness = $8
		WHERE uid = $1
		RETURNING ` + ownerColumns

	var o Owner
	err := r.db.GetContext(ctx, &o, query, uid, gymName,
		p.DailyIron, p.DailyFitness, p.WeeklyIron, p.WeeklyFitness, p.MonthlyIron, p.MonthlyFitness)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: gym owner %s", api.ErrNotFound, uid)
		}
		return nil, err
	}
	return &o, nil
}

// UpdateSubscription sets the subscription end and, when start is non-nil,
// the start as well.
func (r *repository) UpdateSubscription(ctx context.Context, uid string, start *time.Time, end time.Time) (*Owner, error) {
	query := `
		UPDATE gym_owners
		SET subscription_start = COALESCE($2, subscription_start), subscription_end = $3
		WHERE uid = $1
		RETURNING ` + ownerColumns

	var o Owner
	if err := r.db.GetContext(ctx, &o, query, uid, start, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: gym owner %s", api.ErrNotFound, uid)
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Owner, error) {
	owners := []Owner{}
	err := r.db.SelectContext(ctx, &owners, `SELECT `+ownerColumns+` FROM gym_owners ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *repository) ExpiringBetween(ctx context.Context, from, to time.Time) ([]Owner, error) {
	owners := []Owner{}
	err := r.db.SelectContext(ctx, &owners,
		`SELECT `+ownerColumns+` FROM gym_owners
		 WHERE subscription_end > $1 AND subscription_end <= $2
		 ORDER BY subscription_end`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *repository) SubscriptionEnds(ctx context.Context) ([]time.Time, error) {
	var ends []time.Time
	if err := r.db.SelectContext(ctx, &ends, `SELECT subscription_end FROM gym_owners`); err != nil {
		return nil, err
	}
	return ends, nil
}

func (r *repository) Notifications(ctx context.Context, uid string) ([]Notification, error) {
	notifications := []Notification{}
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT `+notificationColumns+` FROM notifications WHERE gym_owner_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repository) MarkNotificationRead(ctx context.Context, uid, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND gym_owner_id = $2`, id, uid)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", api.ErrNotFound, id)
	}
	return nil
}

// InsertNotifications writes one row per owner in a single transaction.
func (r *repository) InsertNotifications(ctx context.Context, uids []string, message string) ([]Notification, error) {
	created := make([]Notification, 0, len(uids))
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, uid := range uids {
			var n Notification
			err := tx.GetContext(ctx, &n,
				`INSERT INTO notifications (id, gym_owner_id, message)
				 VALUES ($1, $2, $3)
				 RETURNING `+notificationColumns,
				uuid.NewString(), uid, message,
			)
			if err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
					return fmt.Errorf("%w: gym owner %s", api.ErrNotFound, uid)
				}
				return err
			}
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
