package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PromoRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_promo_redemptions_total",
			Help: "Promo code redemption attempts by result",
		},
		[]string{"result"},
	)

	MembersRegisteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_members_registered_total",
			Help: "Total number of registered members",
		},
		[]string{"period"},
	)

	MemberRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_member_renewals_total",
			Help: "Total number of member renewals",
		},
		[]string{"period"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_total",
			Help: "Payment applications by result",
		},
		[]string{"result"},
	)

	PaymentsAppliedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_applied_amount_total",
			Help: "Sum of applied payment amounts",
		},
	)

	MealPlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_meal_plans_total",
			Help: "Meal plan generation attempts by result",
		},
		[]string{"result"},
	)

	MealPlanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gymdesk_meal_plan_duration_seconds",
			Help:    "Generative model call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	SessionsRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_sessions_revoked_total",
			Help: "Access tokens revoked because the owner subscription expired",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	Members = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymdesk_members",
			Help: "Number of members by derived status",
		},
		[]string{"status"},
	)

	Owners = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymdesk_owners",
			Help: "Number of gym owner accounts by derived status",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPromoRedemption(result string) {
	PromoRedemptionsTotal.WithLabelValues(result).Inc()
}

func RecordMemberRegistered(period string) {
	MembersRegisteredTotal.WithLabelValues(period).Inc()
}

func RecordMemberRenewal(period string) {
	MemberRenewalsTotal.WithLabelValues(period).Inc()
}

func RecordPayment(result string, applied float64) {
	PaymentsTotal.WithLabelValues(result).Inc()
	if applied > 0 {
		PaymentsAppliedAmount.Add(applied)
	}
}

func RecordMealPlan(result string, seconds float64) {
	MealPlansTotal.WithLabelValues(result).Inc()
	MealPlanDuration.Observe(seconds)
}

func RecordSessionRevoked() {
	SessionsRevokedTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

// SetStatusCounts publishes the member and owner status gauges.
func SetStatusCounts(activeMembers, expiredMembers, activeOwners, expiredOwners int) {
	Members.WithLabelValues("active").Set(float64(activeMembers))
	Members.WithLabelValues("expired").Set(float64(expiredMembers))
	Owners.WithLabelValues("active").Set(float64(activeOwners))
	Owners.WithLabelValues("expired").Set(float64(expiredOwners))
}
