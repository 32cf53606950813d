package member

import (
	"time"

	"gymdesk/internal/calc"
	"gymdesk/internal/mealplan"
)

type Member struct {
	ID                string         `db:"id" json:"id"`
	GymOwnerID        string         `db:"gym_owner_id" json:"gymOwnerId"`
	Name              string         `db:"name" json:"name"`
	Phone             *string        `db:"phone" json:"phone,omitempty"`
	SubscriptionType  string         `db:"subscription_type" json:"subscriptionType"`
	SubscriptionPrice float64        `db:"subscription_price" json:"subscriptionPrice"`
	AmountPaid        float64        `db:"amount_paid" json:"amountPaid"`
	StartDate         time.Time      `db:"start_date" json:"startDate"`
	EndDate           time.Time      `db:"end_date" json:"endDate"`
	Age               *int           `db:"age" json:"age,omitempty"`
	Weight            *float64       `db:"weight" json:"weight,omitempty"`
	Height            *float64       `db:"height" json:"height,omitempty"`
	Gender            *calc.Gender   `db:"gender" json:"gender,omitempty"`
	DailyCalories     *int           `db:"daily_calories" json:"dailyCalories,omitempty"`
	MealPlan          *mealplan.Plan `db:"meal_plan" json:"mealPlan,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`

	// Derived on every read.
	Status   calc.Status `db:"-" json:"status"`
	Debt     float64     `db:"-" json:"debt"`
	DaysLeft int         `db:"-" json:"daysLeft"`
}

func (m *Member) derive(now time.Time) {
	m.Status = calc.DeriveStatus(now, m.EndDate)
	m.Debt = calc.Debt(m.SubscriptionPrice, m.AmountPaid)
	m.DaysLeft = calc.DaysLeft(now, m.EndDate)
}

// Biometrics are optional; daily calories are computed only when all four are set.
type Biometrics struct {
	Age    *int         `json:"age" binding:"omitempty,min=10,max=100"`
	Weight *float64     `json:"weight" binding:"omitempty,min=30,max=400"`
	Height *float64     `json:"height" binding:"omitempty,min=100,max=260"`
	Gender *calc.Gender `json:"gender" binding:"omitempty,oneof=male female"`
}

type RegisterRequest struct {
	Name       string   `json:"name" binding:"required,min=1,max=120"`
	Phone      string   `json:"phone" binding:"omitempty,max=32"`
	Period     string   `json:"period" binding:"required,oneof=Daily Weekly Monthly"`
	Classes    []string `json:"classes" binding:"required,min=1,max=2,dive,oneof=Iron Fitness"`
	AmountPaid float64  `json:"amountPaid" binding:"gte=0"`
	Biometrics
}

type UpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	Biometrics
}

type RenewRequest struct {
	Period  string   `json:"period" binding:"required,oneof=Daily Weekly Monthly"`
	Classes []string `json:"classes" binding:"required,min=1,max=2,dive,oneof=Iron Fitness"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type MealPlanRequest struct {
	Goal mealplan.Goal `json:"goal" binding:"omitempty,oneof=bulking weightLoss maintenance"`
}

// PaymentResult reports what a payment request actually changed.
type PaymentResult struct {
	Member   *Member `json:"member"`
	Applied  float64 `json:"applied"`
	Replayed bool    `json:"replayed"`
}

type ListFilter struct {
	Status calc.Status `form:"status" binding:"omitempty,oneof=active expired"`
	Search string      `form:"q" binding:"omitempty,max=120"`
}

type Dashboard struct {
	TotalMembers    int     `json:"totalMembers"`
	ActiveMembers   int     `json:"activeMembers"`
	ExpiredMembers  int     `json:"expiredMembers"`
	ExpiringSoon    int     `json:"expiringSoon"`
	MembersWithDebt int     `json:"membersWithDebt"`
	OutstandingDebt float64 `json:"outstandingDebt"`
}
