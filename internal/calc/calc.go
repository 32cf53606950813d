// Package calc holds the pure subscription and nutrition calculations. Every
// read path derives status through DeriveStatus; nothing stores it.
package calc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gymdesk/internal/api"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Bounds shared with the request validation layer.
const (
	MinWeightKg = 30
	MinHeightCm = 100
	MinAge      = 10
	MaxAge      = 100
)

// BMR estimates daily calories with the Mifflin-St Jeor equation.
func BMR(gender Gender, weightKg, heightCm float64, ageYears int) (int, error) {
	if weightKg < MinWeightKg || heightCm < MinHeightCm || ageYears < MinAge || ageYears > MaxAge {
		return 0, fmt.Errorf("%w: biometrics out of range (weight>=%d, height>=%d, age %d-%d)",
			api.ErrValidation, MinWeightKg, MinHeightCm, MinAge, MaxAge)
	}

	base := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	switch gender {
	case GenderMale:
		base += 5
	case GenderFemale:
		base -= 161
	default:
		return 0, fmt.Errorf("%w: unknown gender %q", api.ErrValidation, gender)
	}

	return int(math.Round(base)), nil
}

// DeriveStatus reports Expired only when now is strictly after end.
func DeriveStatus(now, end time.Time) Status {
	if now.After(end) {
		return StatusExpired
	}
	return StatusActive
}

// Debt is price minus paid, rounded to cents. It is not clamped; payments are
// clamped when applied.
func Debt(price, paid float64) float64 {
	return RoundCents(price - paid)
}

// RoundCents rounds a money amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DaysLeft returns whole days until end, or 0 once expired.
func DaysLeft(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

type Period string

const (
	PeriodDaily   Period = "Daily"
	PeriodWeekly  Period = "Weekly"
	PeriodMonthly Period = "Monthly"
)

func ParsePeriod(s string) (Period, error) {
	for _, p := range []Period{PeriodDaily, PeriodWeekly, PeriodMonthly} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown period %q", api.ErrValidation, s)
}

// EndDate returns the end of a subscription window starting at start.
func EndDate(start time.Time, period Period) (time.Time, error) {
	switch period {
	case PeriodDaily:
		return start.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		return start.AddDate(0, 0, 7), nil
	case PeriodMonthly:
		return addMonthsClamped(start, 1), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown period %q", api.ErrValidation, period)
	}
}

// addMonthsClamped adds months keeping the day of month, clamped to the last
// day of the target month. time.AddDate would normalize Jan 31 + 1 month to Mar 3.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	hh, mm, ss := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// PromoType is the subscription window a promo code grants.
type PromoType string

const (
	PromoMonthly PromoType = "monthly"
	PromoYearly  PromoType = "yearly"
)

func (t PromoType) Valid() bool {
	return t == PromoMonthly || t == PromoYearly
}

// PromoWindowEnd returns the end of an owner subscription granted by a promo code.
func PromoWindowEnd(start time.Time, t PromoType) (time.Time, error) {
	switch t {
	case PromoMonthly:
		return addMonthsClamped(start, 1), nil
	case PromoYearly:
		return addMonthsClamped(start, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown promo type %q", api.ErrValidation, t)
	}
}
