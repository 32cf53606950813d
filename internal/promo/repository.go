package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdesk/internal/api"
	"gymdesk/internal/calc"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, code string, promoType calc.PromoType, maxUses int) (*Code, error) {
	query := `
		INSERT INTO promo_codes (id, code, type, status, uses, max_uses)
		VALUES ($1, $2, $3, 'active', 0, $4)
		RETURNING id, code, type, status, uses, max_uses, created_at
	`

	var c Code
	err := r.db.GetContext(ctx, &c, query, uuid.NewString(), code, promoType, maxUses)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: promo code %q already exists", api.ErrValidation, code)
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context) ([]Code, error) {
	query := `
		SELECT id, code, type, status, uses, max_uses, created_at
		FROM promo_codes
		ORDER BY created_at DESC
	`

	codes := []Code{}
	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, err
	}
	return codes, nil
}

// DeleteUnused removes a code that has never been redeemed.
func (r *repository) DeleteUnused(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = $1 AND uses = 0`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: promo code not found or already redeemed", api.ErrNotFound)
	}
	return nil
}

// Redeem consumes one use of code inside a single transaction. The row lock
// serializes concurrent redemptions so the last use is granted exactly once.
func (r *repository) Redeem(ctx context.Context, code string) (calc.PromoType, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var c Code
	err = tx.QueryRowxContext(ctx,
		`SELECT id, code, type, status, uses, max_uses, created_at
		 FROM promo_codes
		 WHERE code = $1
		 FOR UPDATE`,
		code,
	).StructScan(&c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: promo code %q", api.ErrNotFound, code)
		}
		return "", err
	}

	if c.Status != StatusActive || c.Uses >= c.MaxUses {
		return "", fmt.Errorf("%w: promo code %q has no uses left", api.ErrExhausted, code)
	}

	newUses := c.Uses + 1
	newStatus := StatusActive
	if newUses >= c.MaxUses {
		newStatus = StatusUsed
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE promo_codes
		 SET uses = $1, status = $2
		 WHERE id = $3`,
		newUses, newStatus, c.ID,
	)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return c.Type, nil
}
