package owner

import (
	"time"

	"gymdesk/internal/calc"
)

// Owner is a gym owner account. Its own subscription window gates access to
// the owner API.
type Owner struct {
	UID               string    `db:"uid" json:"uid"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	GymName           string    `db:"gym_name" json:"gymName"`
	SubscriptionStart time.Time `db:"subscription_start" json:"subscriptionStart"`
	SubscriptionEnd   time.Time `db:"subscription_end" json:"subscriptionEnd"`
	calc.Pricing      `json:"pricing"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`

	Status   calc.Status `db:"-" json:"status"`
	DaysLeft int         `db:"-" json:"daysLeft"`
}

// Derive fills the status fields from the subscription window.
func (o *Owner) Derive(now time.Time) {
	o.Status = calc.DeriveStatus(now, o.SubscriptionEnd)
	o.DaysLeft = calc.DaysLeft(now, o.SubscriptionEnd)
}

type Notification struct {
	ID         string    `db:"id" json:"id"`
	GymOwnerID string    `db:"gym_owner_id" json:"gymOwnerId"`
	Message    string    `db:"message" json:"message"`
	IsRead     bool      `db:"is_read" json:"isRead"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	GymName   string `json:"gymName" binding:"required,min=1,max=120"`
	PromoCode string `json:"promoCode" binding:"required,min=4,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type SettingsRequest struct {
	GymName *string       `json:"gymName" binding:"omitempty,min=1,max=120"`
	Pricing *calc.Pricing `json:"pricing"`
}

type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Owner        *Owner `json:"owner"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
