package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"
	"recruitdesk/internal/service"
	"recruitdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RecordPaymentRequest struct {
	CandidateID   int64           `json:"candidate_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentType   string          `json:"payment_type" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	TransactionID string          `json:"transaction_id"`
	Notes         string          `json:"notes"`
}

// RecordPayment handles the manual cash entry form.
func (h *Handler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	payment, err := h.ledger.RecordCashPayment(c.Request.Context(), principal, &service.RecordPaymentRequest{
		CandidateID:   req.CandidateID,
		Amount:        req.Amount,
		PaymentType:   req.PaymentType,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, payment)
}

// ListCandidatePayments returns the candidate's ledger, newest first.
func (h *Handler) ListCandidatePayments(c *gin.Context) {
	candidateID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid candidate id")
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	payments, err := h.ledger.ListCandidatePayments(c.Request.Context(), principal, candidateID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, payments)
}

// GetReceipt serves the printable receipt view by external transaction id.
func (h *Handler) GetReceipt(c *gin.Context) {
	tranID := c.Param("tranId")
	if tranID == "" {
		response.ParamError(c, "transaction id required")
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	receipt, err := h.ledger.GetReceipt(c.Request.Context(), principal, tranID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, receipt)
}

type InitiatePaymentRequest struct {
	CandidateID int64           `json:"candidate_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentType string          `json:"payment_type" binding:"required"`
}

// InitiateSSLPayment creates the pending gateway transaction and returns the
// hosted payment page URL the frontend should redirect the payer to.
func (h *Handler) InitiateSSLPayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	pageURL, err := h.gateway.InitiatePayment(c.Request.Context(), principal, &service.InitiateRequest{
		CandidateID:     req.CandidateID,
		Amount:          req.Amount,
		PaymentType:     req.PaymentType,
		CallbackBaseURL: h.callbackBaseURL(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"gateway_url": pageURL})
}

// callbackBaseURL prefers the configured public base; behind a tunnel or in
// tests it falls back to the inbound request's host.
func (h *Handler) callbackBaseURL(c *gin.Context) string {
	if h.cfg.SSLCommerz.BaseURL != "" {
		return h.cfg.SSLCommerz.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// SSLSuccess is the browser redirect target after a completed gateway payment.
// It must answer redirects, not JSON: the payer's browser lands here.
func (h *Handler) SSLSuccess(c *gin.Context) {
	h.resolveBrowserCallback(c, model.SSLTxnStatusSuccess)
}

func (h *Handler) SSLFail(c *gin.Context) {
	h.resolveBrowserCallback(c, model.SSLTxnStatusFailed)
}

func (h *Handler) SSLCancel(c *gin.Context) {
	h.resolveBrowserCallback(c, model.SSLTxnStatusCancelled)
}

func (h *Handler) resolveBrowserCallback(c *gin.Context, target string) {
	tranID := c.PostForm("tran_id")
	if tranID == "" {
		tranID = c.Query("tran_id")
	}
	if tranID == "" {
		h.redirectFrontend(c, "/payment/fail", url.Values{"msg": {"missing_transaction"}})
		return
	}

	result, err := h.gateway.ResolveCallback(c.Request.Context(), tranID, target)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			h.log.Warn("callback for unknown transaction", zap.String("tran_id", tranID))
			h.redirectFrontend(c, "/payment/fail", url.Values{"msg": {"unknown_transaction"}})
			return
		}
		h.log.Error("callback resolution failed", zap.String("tran_id", tranID), zap.Error(err))
		h.redirectFrontend(c, "/payment/fail", url.Values{
			"msg":     {"processing_error"},
			"tran_id": {tranID},
		})
		return
	}

	candidateID := strconv.FormatInt(result.CandidateID, 10)
	switch target {
	case model.SSLTxnStatusSuccess:
		// The SPA's receipt page is addressed by tran_id.
		h.redirectFrontend(c, "/payment/success/"+result.TranID, url.Values{"candidate_id": {candidateID}})
	case model.SSLTxnStatusCancelled:
		h.redirectFrontend(c, "/payment/cancel", url.Values{"candidate_id": {candidateID}})
	default:
		h.redirectFrontend(c, "/payment/fail", url.Values{
			"msg":          {"payment_failed"},
			"candidate_id": {candidateID},
		})
	}
}

func (h *Handler) redirectFrontend(c *gin.Context, path string, params url.Values) {
	target := h.cfg.SSLCommerz.FrontendURL + path
	if len(params) > 0 {
		target = target + "?" + params.Encode()
	}
	c.Redirect(http.StatusFound, target)
}

// SSLIPN is the server-to-server notification endpoint. It always answers
// 200 so the gateway stops retrying; outcomes are logged, and an unresolved
// transaction will be retried by the gateway or caught by reconciliation.
func (h *Handler) SSLIPN(c *gin.Context) {
	tranID := c.PostForm("tran_id")
	status := c.PostForm("status")

	if tranID == "" || status == "" {
		h.log.Warn("IPN with missing fields",
			zap.String("tran_id", tranID),
			zap.String("status", status),
		)
		c.String(http.StatusOK, "IPN received")
		return
	}

	result, err := h.gateway.ResolveIPN(c.Request.Context(), tranID, status)
	switch {
	case errors.Is(err, service.ErrUnknownIPNStatus):
		h.log.Warn("IPN with unrecognized status",
			zap.String("tran_id", tranID),
			zap.String("status", status),
		)
	case errors.Is(err, repository.ErrTransactionNotFound):
		h.log.Warn("IPN for unknown transaction", zap.String("tran_id", tranID))
	case err != nil:
		h.log.Error("IPN resolution failed", zap.String("tran_id", tranID), zap.Error(err))
	default:
		h.log.Info("IPN processed",
			zap.String("tran_id", tranID),
			zap.String("status", result.Status),
			zap.Bool("credited", result.Credited),
		)
	}

	c.String(http.StatusOK, "IPN received")
}
