package handler

import (
	"time"

	"wallet-ledger-core/internal/adapter/http/middleware"
	redisStore "wallet-ledger-core/internal/adapter/storage/redis"
	"wallet-ledger-core/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	IdentitySvc      ports.IdentityService
	LedgerEngine     ports.LedgerEngine
	WalletRegistry   ports.WalletRegistry
	ReportingSvc     ports.ReportingService
	VerificationGate ports.VerificationGate
	TokenSvc         ports.TokenService
	SigSvc           ports.SignatureService
	ConfirmerSecret  string // HMAC secret for the settlement confirmer
	VerifierSecret   string // HMAC secret for the verification workflow
	CallbackMaxAge   time.Duration
	RateLimitStore   *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
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
	authHandler := NewAuthHandler(deps.IdentitySvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletRegistry, deps.ReportingSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerEngine, deps.ReportingSvc)
	verificationHandler := NewVerificationHandler(deps.VerificationGate)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", rl("wallets"), walletHandler.CreateWallet)
		wallets.GET("", rl("reads"), walletHandler.ListWallets)
		wallets.GET("/:id", rl("reads"), walletHandler.GetWallet)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.POST("", rl("transactions"), ledgerHandler.SubmitTransaction)
		transactions.GET("", rl("reads"), ledgerHandler.ListTransactions)
		transactions.GET("/:id", rl("reads"), ledgerHandler.GetTransaction)
		transactions.POST("/:id/cancel", rl("transactions"), ledgerHandler.CancelTransaction)
	}

	verifications := v1.Group("/verifications", jwtAuth)
	{
		verifications.GET("/me", rl("reads"), verificationHandler.GetStatus)
	}

	// --- HMAC-authenticated internal callbacks ---
	internal := r.Group("/internal/v1")
	{
		confirmerAuth := middleware.CallbackAuth(deps.ConfirmerSecret, deps.SigSvc, deps.CallbackMaxAge, deps.Logger)
		internal.POST("/settlements", confirmerAuth, ledgerHandler.SettleCallback)

		verifierAuth := middleware.CallbackAuth(deps.VerifierSecret, deps.SigSvc, deps.CallbackMaxAge, deps.Logger)
		internal.POST("/verifications/flags", verifierAuth, verificationHandler.SetFlag)
		internal.POST("/verifications/reject", verifierAuth, verificationHandler.Reject)
	}

	return r
}
