package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymdesk/internal/admin"
	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/email"
	"gymdesk/internal/mealplan"
	"gymdesk/internal/member"
	"gymdesk/internal/owner"
	"gymdesk/internal/promo"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Deps are the shared clients both routers are built from.
type Deps struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	Email     *email.Service
	Generator mealplan.Generator
}

type Server struct {
	router  *gin.Engine
	limiter *RateLimiter
	http    *http.Server
}

// New builds the gym owner API served by cmd/app.
func New(cfg *config.Config, deps Deps) *Server {
	s := newServer(cfg, deps)
	router := s.router

	denylist := auth.NewDenylist(deps.Redis)
	owners := owner.NewRepository(deps.DB)
	promos := promo.NewService(promo.NewRepository(deps.DB))

	ownerService := owner.NewService(owners, promos, deps.Email, cfg.JWTSecret)
	memberService := member.NewService(member.NewRepository(deps.DB), owners, deps.Generator, cfg.RenewalDebtPolicy)

	ownerHandler := owner.NewHandler(ownerService)
	memberHandler := member.NewHandler(memberService)
	mealPlanHandler := mealplan.NewHandler(deps.Generator)

	public := router.Group("/auth")
	{
		public.POST("/signup", ownerHandler.Signup)
		public.POST("/login", ownerHandler.Login)
		public.POST("/refresh", ownerHandler.RefreshToken)
	}

	authed := router.Group("/")
	authed.Use(auth.AuthMiddleware(cfg.JWTSecret, denylist), auth.RequireRole(auth.RoleOwner))
	authed.GET("/me", ownerHandler.GetMe)

	gated := authed.Group("/")
	gated.Use(owner.SessionGate(ownerService, denylist))
	{
		gated.PUT("/settings", ownerHandler.UpdateSettings)
		gated.GET("/notifications", ownerHandler.ListNotifications)
		gated.POST("/notifications/:id/read", ownerHandler.MarkNotificationRead)

		gated.GET("/dashboard", memberHandler.Dashboard)
		gated.GET("/members", memberHandler.List)
		gated.POST("/members", memberHandler.Register)
		gated.GET("/members/:id", memberHandler.Get)
		gated.PUT("/members/:id", memberHandler.Update)
		gated.DELETE("/members/:id", memberHandler.Delete)
		gated.POST("/members/:id/renew", memberHandler.Renew)
		gated.POST("/members/:id/payments", memberHandler.ApplyPayment)
		gated.POST("/members/:id/meal-plan", memberHandler.GenerateMealPlan)

		gated.POST("/meal-plans/generate", mealPlanHandler.Generate)
	}

	return s
}

// NewAdmin builds the privileged API served by cmd/admin. It shares the
// store with the owner API but none of its routes.
func NewAdmin(cfg *config.Config, deps Deps) *Server {
	s := newServer(cfg, deps)
	router := s.router

	owners := owner.NewRepository(deps.DB)
	promoHandler := promo.NewHandler(promo.NewService(promo.NewRepository(deps.DB)))
	adminHandler := admin.NewHandler(admin.NewService(owners, deps.Email, admin.Credentials{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		JWTSecret:    cfg.AdminJWTSecret,
	}))

	router.POST("/admin/login", adminHandler.Login)

	protected := router.Group("/admin")
	protected.Use(auth.AuthMiddleware(cfg.AdminJWTSecret, nil), auth.RequireRole(auth.RoleAdmin))
	{
		protected.GET("/promo-codes", promoHandler.List)
		protected.POST("/promo-codes", promoHandler.Create)
		protected.DELETE("/promo-codes/:id", promoHandler.Delete)

		protected.POST("/notifications", adminHandler.SendNotification)
		protected.GET("/owners", adminHandler.ListOwners)
		protected.PUT("/owners/:uid/subscription", adminHandler.UpdateSubscription)
	}

	return s
}

func newServer(cfg *config.Config, deps Deps) *Server {
	registerValidation()

	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	s := &Server{router: router}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
		router.Use(RateLimitMiddleware(s.limiter))
	}

	router.GET("/health", Health(deps.DB, deps.Redis))
	router.GET("/metrics", Metrics())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on port until Shutdown is called.
func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
