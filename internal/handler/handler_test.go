package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"recruitdesk/internal/gateway/sslcommerz"
	"recruitdesk/internal/repository"
	"recruitdesk/internal/service"
	"recruitdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantInMsg  string
	}{
		{
			name:       "gateway failure carries the failedreason",
			err:        fmt.Errorf("%w: Store Credential Error Or Store is De-active", sslcommerz.ErrInitFailed),
			wantStatus: http.StatusBadGateway,
			wantCode:   response.CodeGatewayFailed,
			wantInMsg:  "Store Credential Error",
		},
		{
			name:       "forbidden",
			err:        service.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   response.CodeForbidden,
			wantInMsg:  "forbidden",
		},
		{
			name:       "invalid credentials",
			err:        service.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   response.CodeInvalidCredentials,
			wantInMsg:  "invalid credentials",
		},
		{
			name:       "candidate not found",
			err:        repository.ErrCandidateNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   response.CodeCandidateNotFound,
			wantInMsg:  "candidate not found",
		},
		{
			name:       "transaction not found",
			err:        repository.ErrTransactionNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   response.CodeTransactionNotFound,
			wantInMsg:  "transaction not found",
		},
		{
			name:       "overpayment",
			err:        service.ErrOverpayment,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.CodeOverpayment,
			wantInMsg:  "exceeds",
		},
		{
			name:       "unmapped errors stay generic",
			err:        fmt.Errorf("dial tcp 10.0.0.5:3306: i/o timeout"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   response.CodeServerError,
			wantInMsg:  "internal error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)

			h := &Handler{log: zap.NewNop()}
			h.writeError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.Contains(t, body.Message, tc.wantInMsg)
		})
	}
}
