package admin

import "time"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// NotificationRequest targets one owner when OwnerUID is set, otherwise all.
type NotificationRequest struct {
	OwnerUID string `json:"ownerUid" binding:"omitempty,max=64"`
	Message  string `json:"message" binding:"required,min=1,max=2000"`
}

type NotificationResult struct {
	Recipients int `json:"recipients"`
}

type SubscriptionRequest struct {
	SubscriptionStart *time.Time `json:"subscriptionStart"`
	SubscriptionEnd   time.Time  `json:"subscriptionEnd" binding:"required"`
}
