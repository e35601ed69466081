package handler

import (
	"errors"
	"net/http"

	"recruitdesk/internal/auth"
	"recruitdesk/internal/config"
	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/repository"
	"recruitdesk/internal/service"
	"recruitdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	cfg        *config.Config
	log        *zap.Logger
	ledger     *service.LedgerService
	gateway    *service.GatewayService
	candidates *service.CandidateService
	directory  *service.DirectoryService
	auth       *service.AuthService
}

func NewHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *zap.Logger, tokens *auth.TokenManager, gatewayClient service.GatewayClient) *Handler {
	return &Handler{
		cfg:        cfg,
		log:        log,
		ledger:     service.NewLedgerService(db, redisClient, cfg, log),
		gateway:    service.NewGatewayService(db, redisClient, cfg, log, gatewayClient),
		candidates: service.NewCandidateService(db, cfg, log),
		directory:  service.NewDirectoryService(db),
		auth:       service.NewAuthService(db, tokens, log),
	}
}

// writeError maps service and repository sentinels onto the response
// envelope. Anything unmapped is a 500 with a generic message; the detail
// goes to the log only.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		response.ParamError(c, err.Error())
	case errors.Is(err, repository.ErrDuplicatePayment):
		response.BusinessError(c, response.CodeParamError, err.Error())
	case errors.Is(err, service.ErrOverpayment):
		response.BusinessError(c, response.CodeOverpayment, err.Error())
	case errors.Is(err, sslcommerz.ErrInitFailed):
		// The gateway's failedreason is client-visible; the operator needs it
		// to act (bad credentials, de-activated store, amount limits).
		response.Error(c, http.StatusBadGateway, response.CodeGatewayFailed, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "invalid credentials")
	case errors.Is(err, repository.ErrCandidateNotFound):
		response.Error(c, http.StatusNotFound, response.CodeCandidateNotFound, err.Error())
	case errors.Is(err, repository.ErrTransactionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeTransactionNotFound, err.Error())
	case errors.Is(err, repository.ErrPaymentNotFound):
		response.Error(c, http.StatusNotFound, response.CodePaymentNotFound, err.Error())
	case errors.Is(err, repository.ErrEmployerNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		response.NotFound(c, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.ServerError(c, "internal error")
	}
}
