package handler

import (
	"payment-processing-core/internal/adapter/http/middleware"
	redisStore "payment-processing-core/internal/adapter/storage/redis"
	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PaymentSvc     ports.PaymentService
	AccountSvc     ports.AccountService
	ReportingSvc   ports.ReportingService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	bearerAuth := middleware.BearerAuth(deps.AuthSvc, deps.Logger)
	ownerOnly := middleware.RequireRole(deps.AuthSvc, domain.RoleOwner)

	// --- Charge processing (authenticated; eligibility enforced in the
	// service, so a suspended merchant is refused even with a live token) ---
	chargeHandler := NewChargeHandler(deps.PaymentSvc, deps.ReportingSvc)
	charges := v1.Group("/charges", bearerAuth)
	{
		charges.POST("", rl("charges"), chargeHandler.CreateCharge)
		charges.GET("", rl("reporting"), chargeHandler.ListCharges)
		charges.GET("/:id", rl("reporting"), chargeHandler.GetCharge)
	}

	// --- Account self-service and owner administration ---
	accountHandler := NewAccountHandler(deps.AccountSvc, deps.ReportingSvc)
	accounts := v1.Group("/accounts", bearerAuth)
	{
		accounts.GET("/me", rl("reporting"), accountHandler.GetMyAccount)
		accounts.GET("/me/stats", rl("reporting"), accountHandler.GetMyStats)

		accounts.POST("", rl("accounts_admin"), ownerOnly, accountHandler.RegisterMerchant)
		accounts.GET("", rl("accounts_admin"), ownerOnly, accountHandler.ListMerchants)
		accounts.PATCH("/:id/status", rl("accounts_admin"), ownerOnly, accountHandler.SetStatus)
	}

	return r
}
