package calc

import (
	"fmt"
	"strings"

	"gymdesk/internal/api"
)

type Class string

const (
	ClassIron    Class = "Iron"
	ClassFitness Class = "Fitness"
)

func ParseClass(s string) (Class, error) {
	for _, c := range []Class{ClassIron, ClassFitness} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown class %q", api.ErrValidation, s)
}

// SubscriptionType is a period plus one or two classes, serialized as
// "Monthly Iron & Fitness".
type SubscriptionType struct {
	Period  Period
	Classes []Class
}

func NewSubscriptionType(period string, classes []string) (SubscriptionType, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return SubscriptionType{}, err
	}
	if len(classes) == 0 || len(classes) > 2 {
		return SubscriptionType{}, fmt.Errorf("%w: one or two classes required", api.ErrValidation)
	}

	st := SubscriptionType{Period: p}
	seen := map[Class]bool{}
	for _, raw := range classes {
		c, err := ParseClass(raw)
		if err != nil {
			return SubscriptionType{}, err
		}
		if seen[c] {
			return SubscriptionType{}, fmt.Errorf("%w: duplicate class %q", api.ErrValidation, c)
		}
		seen[c] = true
		st.Classes = append(st.Classes, c)
	}
	// Canonical order keeps the stored string stable.
	if len(st.Classes) == 2 && st.Classes[0] == ClassFitness {
		st.Classes[0], st.Classes[1] = st.Classes[1], st.Classes[0]
	}
	return st, nil
}

func ParseSubscriptionType(s string) (SubscriptionType, error) {
	period, rest, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return SubscriptionType{}, fmt.Errorf("%w: malformed subscription type %q", api.ErrValidation, s)
	}
	return NewSubscriptionType(period, strings.Split(rest, "&"))
}

func (st SubscriptionType) String() string {
	names := make([]string, len(st.Classes))
	for i, c := range st.Classes {
		names[i] = string(c)
	}
	return string(st.Period) + " " + strings.Join(names, " & ")
}

// Pricing is the owner's price table, one price per period and class.
type Pricing struct {
	DailyIron      float64 `db:"price_daily_iron" json:"dailyIron" binding:"gte=0"`
	DailyFitness   float64 `db:"price_daily_fitness" json:"dailyFitness" binding:"gte=0"`
	WeeklyIron     float64 `db:"price_weekly_iron" json:"weeklyIron" binding:"gte=0"`
	WeeklyFitness  float64 `db:"price_weekly_fitness" json:"weeklyFitness" binding:"gte=0"`
	MonthlyIron    float64 `db:"price_monthly_iron" json:"monthlyIron" binding:"gte=0"`
	MonthlyFitness float64 `db:"price_monthly_fitness" json:"monthlyFitness" binding:"gte=0"`
}

func (p Pricing) price(period Period, class Class) float64 {
	switch {
	case period == PeriodDaily && class == ClassIron:
		return p.DailyIron
	case period == PeriodDaily && class == ClassFitness:
		return p.DailyFitness
	case period == PeriodWeekly && class == ClassIron:
		return p.WeeklyIron
	case period == PeriodWeekly && class == ClassFitness:
		return p.WeeklyFitness
	case period == PeriodMonthly && class == ClassIron:
		return p.MonthlyIron
	case period == PeriodMonthly && class == ClassFitness:
		return p.MonthlyFitness
	}
	return 0
}

// PriceFor sums the class prices for the subscription's period.
func (p Pricing) PriceFor(st SubscriptionType) float64 {
	var total float64
	for _, c := range st.Classes {
		total += p.price(st.Period, c)
	}
	return total
}
