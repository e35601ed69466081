package handler

import (
	"net/http"
	"strings"
	"time"

	"recruitdesk/internal/auth"
	"recruitdesk/internal/authz"
	"recruitdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// AuthMiddleware verifies the bearer token and stores the caller's principal
// on the request context.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokens.ParseAccess(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		role := authz.Role(claims.Role)
		if !authz.ValidRole(role) {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(principalKey, authz.Principal{UserID: claims.UserID, Role: role})
		c.Next()
	}
}

// RequireOperation gates a route on the capability table. Ownership-level
// checks (agent vs. owned candidate) still run inside the services.
func RequireOperation(op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok || !authz.Can(principal.Role, op) {
			response.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return authz.Principal{}, false
	}
	principal, ok := v.(authz.Principal)
	return principal, ok
}

func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if query != "" {
			path = path + "?" + query
		}

		log.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
	}
}

// RecoveryMiddleware converts panics into a generic 500 instead of taking
// down the process.
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    response.CodeServerError,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
