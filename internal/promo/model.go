package promo

import (
	"time"

	"gymdesk/internal/calc"
)

type Status string

const (
	StatusActive Status = "active"
	StatusUsed   Status = "used"
)

// Code grants a new gym owner account a pre-paid subscription window.
type Code struct {
	ID        string         `db:"id" json:"id"`
	Code      string         `db:"code" json:"code"`
	Type      calc.PromoType `db:"type" json:"type"`
	Status    Status         `db:"status" json:"status"`
	Uses      int            `db:"uses" json:"uses"`
	MaxUses   int            `db:"max_uses" json:"maxUses"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

type CreateRequest struct {
	Code    string         `json:"code" binding:"omitempty,min=4,max=64,alphanum"`
	Type    calc.PromoType `json:"type" binding:"required,oneof=monthly yearly"`
	MaxUses int            `json:"maxUses" binding:"required,min=1,max=100000"`
}
