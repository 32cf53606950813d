package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/calc"
	"gymdesk/internal/mealplan"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const memberColumns = `id, gym_owner_id, name, phone, subscription_type, subscription_price, amount_paid,
	start_date, end_date, age, weight, height, gender, daily_calories, meal_plan, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO members (id, gym_owner_id, name, phone, subscription_type, subscription_price, amount_paid,
			start_date, end_date, age, weight, height, gender, daily_calories, meal_plan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		m.ID, m.GymOwnerID, m.Name, m.Phone, m.SubscriptionType, m.SubscriptionPrice, m.AmountPaid,
		m.StartDate, m.EndDate, m.Age, m.Weight, m.Height, m.Gender, m.DailyCalories, m.MealPlan,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %s", api.ErrNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM members WHERE gym_owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) Update(ctx context.Context, m *Member) error {
	query := `
		UPDATE members
		SET name = $2, phone = $3, age = $4, weight = $5, height = $6, gender = $7, daily_calories = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.Name, m.Phone, m.Age, m.Weight, m.Height, m.Gender, m.DailyCalories,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: member %s", api.ErrNotFound, m.ID)
	}
	return err
}

// Renew moves the subscription window. Only the type, the window and, when
// priceDelta is non-zero, the price change.
func (r *repository) Renew(ctx context.Context, id, subscriptionType string, start, end time.Time, priceDelta float64) (*Member, error) {
	query := `
		UPDATE members
		SET subscription_type = $2, start_date = $3, end_date = $4,
			subscription_price = subscription_price + $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + memberColumns

	var m Member
	err := r.db.QueryRowxContext(ctx, query, id, subscriptionType, start, end, priceDelta).StructScan(&m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %s", api.ErrNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

// ApplyPayment adds min(amount, debt) to amount_paid under a row lock and
// records it in the payment ledger. A non-empty idempotencyKey already present
// in the ledger returns the member unchanged with replayed set.
func (r *repository) ApplyPayment(ctx context.Context, id string, amount float64, idempotencyKey string) (*Member, float64, bool, error) {
	if calc.RoundCents(amount) <= 0 {
		return nil, 0, false, fmt.Errorf("%w: payment below one cent", api.ErrValidation)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, false, err
	}
	defer tx.Rollback()

	var m Member
	err = tx.QueryRowxContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id,
	).StructScan(&m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, false, fmt.Errorf("%w: member %s", api.ErrNotFound, id)
		}
		return nil, 0, false, err
	}

	if idempotencyKey != "" {
		// A replay reports what the original request applied.
		var previous float64
		err = tx.GetContext(ctx, &previous,
			`SELECT applied_amount FROM member_payments WHERE member_id = $1 AND idempotency_key = $2`,
			id, idempotencyKey,
		)
		switch {
		case err == nil:
			return &m, previous, true, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, 0, false, err
		}
	}

	debt := calc.Debt(m.SubscriptionPrice, m.AmountPaid)
	if debt <= 0 {
		return nil, 0, false, fmt.Errorf("%w: member has no outstanding debt", api.ErrValidation)
	}
	applied := calc.RoundCents(math.Min(amount, debt))

	err = tx.QueryRowxContext(ctx,
		`UPDATE members
		 SET amount_paid = amount_paid + $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+memberColumns,
		applied, id,
	).StructScan(&m)
	if err != nil {
		return nil, 0, false, err
	}

	key := sql.NullString{String: idempotencyKey, Valid: idempotencyKey != ""}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO member_payments (id, member_id, idempotency_key, requested_amount, applied_amount)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (member_id, idempotency_key) DO NOTHING`,
		uuid.NewString(), id, key, amount, applied,
	)
	if err != nil {
		return nil, 0, false, err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, 0, false, fmt.Errorf("%w: payment %q already recorded", api.ErrExhausted, idempotencyKey)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, false, err
	}
	return &m, applied, false, nil
}

func (r *repository) SetMealPlan(ctx context.Context, id string, plan *mealplan.Plan) (*Member, error) {
	var m Member
	err := r.db.QueryRowxContext(ctx,
		`UPDATE members SET meal_plan = $2, updated_at = NOW() WHERE id = $1 RETURNING `+memberColumns,
		id, plan,
	).StructScan(&m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %s", api.ErrNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: member %s", api.ErrNotFound, id)
	}
	return nil
}

func (r *repository) EndDates(ctx context.Context) ([]time.Time, error) {
	var ends []time.Time
	if err := r.db.SelectContext(ctx, &ends, `SELECT end_date FROM members`); err != nil {
		return nil, err
	}
	return ends, nil
}
