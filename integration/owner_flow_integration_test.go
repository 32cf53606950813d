package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/calc"
	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/email"
	"gymdesk/internal/mealplan"
	"gymdesk/internal/member"
	"gymdesk/internal/owner"
	"gymdesk/internal/promo"
	"gymdesk/internal/server"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, int, mealplan.Goal) (*mealplan.Plan, error) {
	return &mealplan.Plan{}, nil
}

type env struct {
	db      *sqlx.DB
	handler http.Handler
}

// setup needs TEST_DSN (Postgres) and TEST_REDIS_ADDR. Either missing skips.
func setup(t *testing.T) *env {
	t.Helper()

	dsn := os.Getenv("TEST_DSN")
	redisAddr := os.Getenv("TEST_REDIS_ADDR")
	if dsn == "" || redisAddr == "" {
		t.Skip("TEST_DSN and TEST_REDIS_ADDR must be set for integration tests")
	}

	conn, err := db.Connect(dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: cannot connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(conn, "../migrations"))

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping integration tests: cannot reach redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:         "integration-secret",
		RenewalDebtPolicy: config.RenewalCarryForward,
	}
	srv := server.New(cfg, server.Deps{
		DB:        conn,
		Redis:     rdb,
		Email:     email.New(rdb, email.Settings{From: "noreply@gymdesk.test"}),
		Generator: stubGenerator{},
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &env{db: conn, handler: srv.Handler()}
}

func (e *env) call(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// signup creates a promo code and an owner account with it.
func (e *env) signup(t *testing.T) (owner.AuthResponse, string) {
	t.Helper()
	ctx := context.Background()

	code, err := promo.NewRepository(e.db).Create(ctx, "IT"+uuid.NewString()[:8], calc.PromoMonthly, 1)
	require.NoError(t, err)
	t.Cleanup(func() { e.db.Exec(`DELETE FROM promo_codes WHERE id = $1`, code.ID) })

	addr := fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8])
	w := e.call(t, http.MethodPost, "/auth/signup", "", owner.SignupRequest{
		Email:     addr,
		Password:  "password123",
		GymName:   "Integration Gym",
		PromoCode: code.Code,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp owner.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	t.Cleanup(func() { e.db.Exec(`DELETE FROM gym_owners WHERE uid = $1`, resp.Owner.UID) })

	// The code had one use left.
	w = e.call(t, http.MethodPost, "/auth/signup", "", owner.SignupRequest{
		Email:     "second-" + addr,
		Password:  "password123",
		GymName:   "Second Gym",
		PromoCode: code.Code,
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	return resp, addr
}

func TestOwnerFlow_MemberPayments(t *testing.T) {
	e := setup(t)
	auth, _ := e.signup(t)
	token := auth.AccessToken

	pricing := calc.Pricing{MonthlyIron: 100, MonthlyFitness: 80}
	w := e.call(t, http.MethodPut, "/settings", token, owner.SettingsRequest{Pricing: &pricing}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.call(t, http.MethodPost, "/members", token, member.RegisterRequest{
		Name:       "Sam",
		Period:     "Monthly",
		Classes:    []string{"Iron", "Fitness"},
		AmountPaid: 50,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var m member.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 180.0, m.SubscriptionPrice)
	assert.Equal(t, 130.0, m.Debt)

	pay := func() member.PaymentResult {
		w := e.call(t, http.MethodPost, "/members/"+m.ID+"/payments", token,
			member.PaymentRequest{Amount: 40}, map[string]string{member.IdempotencyHeader: "receipt-1"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res member.PaymentResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		return res
	}

	first := pay()
	assert.Equal(t, 40.0, first.Applied)
	assert.False(t, first.Replayed)

	second := pay()
	assert.True(t, second.Replayed)
	assert.Equal(t, 40.0, second.Applied)
	assert.Equal(t, 90.0, second.Member.AmountPaid)

	var ledger int
	require.NoError(t, e.db.Get(&ledger, `SELECT COUNT(*) FROM member_payments WHERE member_id = $1`, m.ID))
	assert.Equal(t, 1, ledger)

	w = e.call(t, http.MethodGet, "/dashboard", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash member.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, 1, dash.TotalMembers)
	assert.Equal(t, 90.0, dash.OutstandingDebt)
}

func TestOwnerFlow_TenantIsolation(t *testing.T) {
	e := setup(t)
	alice, _ := e.signup(t)
	bob, _ := e.signup(t)

	w := e.call(t, http.MethodPost, "/members", alice.AccessToken, member.RegisterRequest{
		Name: "Alice's member", Period: "Daily", Classes: []string{"Iron"},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m member.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))

	w = e.call(t, http.MethodGet, "/members/"+m.ID, bob.AccessToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.call(t, http.MethodDelete, "/members/"+m.ID, bob.AccessToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.call(t, http.MethodGet, "/members", bob.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestOwnerFlow_ExpiredSessionRevoked(t *testing.T) {
	e := setup(t)
	auth, _ := e.signup(t)

	_, err := e.db.Exec(`UPDATE gym_owners SET subscription_end = $1 WHERE uid = $2`,
		time.Now().Add(-time.Hour), auth.Owner.UID)
	require.NoError(t, err)

	w := e.call(t, http.MethodGet, "/me", auth.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"expired"`)

	w = e.call(t, http.MethodGet, "/members", auth.AccessToken, nil, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "subscription_expired")

	w = e.call(t, http.MethodGet, "/me", auth.AccessToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.call(t, http.MethodPost, "/auth/refresh", "", owner.RefreshRequest{RefreshToken: auth.RefreshToken}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "subscription_expired")
}
