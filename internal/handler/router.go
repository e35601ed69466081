package handler

import (
	"net/http"
	"time"

	"recruitdesk/internal/auth"
	"recruitdesk/internal/authz"
	"recruitdesk/internal/config"
	"recruitdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter wires middleware and routes. Capability gates run per route;
// ownership checks for agents live inside the services.
func SetupRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *zap.Logger, gatewayClient service.GatewayClient) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	tokens := auth.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.AccessTTLMins)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour,
	)
	h := NewHandler(db, redisClient, cfg, log, tokens, gatewayClient)

	r := gin.New()
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Unauthenticated: login/refresh and the gateway's browser callbacks and
	// IPN. SSLCommerz posts here without credentials; idempotency and the
	// pending-state check make replayed posts harmless.
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)

	ssl := api.Group("/sslcommerz")
	{
		ssl.POST("/success", h.SSLSuccess)
		ssl.POST("/fail", h.SSLFail)
		ssl.POST("/cancel", h.SSLCancel)
		ssl.POST("/ipn", h.SSLIPN)
	}

	authed := api.Group("")
	authed.Use(AuthMiddleware(tokens))
	{
		payments := authed.Group("/payments")
		{
			payments.POST("", RequireOperation(authz.OpPaymentWrite), h.RecordPayment)
			payments.GET("/candidate/:id", RequireOperation(authz.OpPaymentRead), h.ListCandidatePayments)
			payments.GET("/transaction/:tranId", RequireOperation(authz.OpPaymentRead), h.GetReceipt)
		}

		authed.POST("/sslcommerz/init", RequireOperation(authz.OpGatewayInit), h.InitiateSSLPayment)

		candidates := authed.Group("/candidates")
		{
			candidates.POST("", RequireOperation(authz.OpCandidateWrite), h.CreateCandidate)
			candidates.GET("", RequireOperation(authz.OpCandidateRead), h.ListCandidates)
			candidates.GET("/:id", RequireOperation(authz.OpCandidateRead), h.GetCandidate)
			candidates.PUT("/:id", RequireOperation(authz.OpCandidateWrite), h.UpdateCandidate)
			candidates.DELETE("/:id", RequireOperation(authz.OpCandidateDelete), h.DeleteCandidate)
		}

		employers := authed.Group("/employers")
		{
			employers.POST("", RequireOperation(authz.OpEmployerWrite), h.CreateEmployer)
			employers.GET("", RequireOperation(authz.OpEmployerRead), h.ListEmployers)
			employers.GET("/:id", RequireOperation(authz.OpEmployerRead), h.GetEmployer)
			employers.PUT("/:id", RequireOperation(authz.OpEmployerWrite), h.UpdateEmployer)
			employers.DELETE("/:id", RequireOperation(authz.OpEmployerWrite), h.DeleteEmployer)
		}

		packages := authed.Group("/packages")
		{
			packages.POST("", RequireOperation(authz.OpPackageWrite), h.CreatePackage)
			packages.GET("", RequireOperation(authz.OpPackageRead), h.ListPackages)
			packages.GET("/:id", RequireOperation(authz.OpPackageRead), h.GetPackage)
			packages.PUT("/:id", RequireOperation(authz.OpPackageWrite), h.UpdatePackage)
			packages.DELETE("/:id", RequireOperation(authz.OpPackageWrite), h.DeletePackage)
		}

		users := authed.Group("/users")
		{
			users.POST("", RequireOperation(authz.OpUserAdmin), h.CreateUser)
			users.GET("", RequireOperation(authz.OpUserAdmin), h.ListUsers)
			users.DELETE("/:id", RequireOperation(authz.OpUserAdmin), h.DeactivateUser)
		}
	}

	return r
}
