package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

const (
	CodeCandidateNotFound   = 1001
	CodeTransactionNotFound = 1002
	CodeOverpayment         = 1003
	CodeGatewayFailed       = 1004
	CodePaymentNotFound     = 1005
	CodeInvalidCredentials  = 1006
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden deliberately carries a generic message so callers learn nothing
// about why access was denied.
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, CodeForbidden, "forbidden")
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}
