// Package sslcommerz talks to the SSLCommerz hosted-payment-page API. The
// protocol is a single url-encoded form POST answered with JSON; the heavy
// lifting (card/wallet collection) happens on the gateway's own page.
package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	sandboxEndpoint    = "https://sandbox.sslcommerz.com/gwprocess/v4/api.php"
	productionEndpoint = "https://securepay.sslcommerz.com/gwprocess/v4/api.php"

	statusSuccess = "SUCCESS"
)

var (
	ErrMissingCredentials = errors.New("sslcommerz store credentials not configured")

	// ErrInitFailed wraps every failed handshake so callers can surface the
	// gateway's reason to the client instead of a generic server error.
	ErrInitFailed = errors.New("gateway initiation failed")
)

type Config struct {
	StoreID       string
	StorePassword string
	Sandbox       bool
	Timeout       time.Duration
}

type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.StoreID == "" || cfg.StorePassword == "" {
		return nil, ErrMissingCredentials
	}

	endpoint := productionEndpoint
	if cfg.Sandbox {
		endpoint = sandboxEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// InitRequest carries everything the gateway needs to render the hosted page.
// Customer fields come from the candidate record; callers fill fallback
// defaults for absent values before building the request.
type InitRequest struct {
	Amount          decimal.Decimal
	Currency        string
	TranID          string
	SuccessURL      string
	FailURL         string
	CancelURL       string
	IPNURL          string
	ProductName     string
	ProductCategory string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	CustomerCountry string
}

type initResponse struct {
	Status         string `json:"status"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// InitiateSession posts the handshake and returns the hosted-payment-page URL.
// Single attempt: a failed or unreachable gateway is reported to the caller,
// who re-invokes if desired.
func (c *Client) InitiateSession(ctx context.Context, req InitRequest) (string, error) {
	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePassword)
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TranID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("ipn_url", req.IPNURL)
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", req.ProductCategory)
	form.Set("product_profile", "general")
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_phone", req.CustomerPhone)
	form.Set("cus_add1", req.CustomerAddress)
	form.Set("cus_city", req.CustomerCity)
	form.Set("cus_country", req.CustomerCountry)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: gateway unreachable: %v", ErrInitFailed, err)
	}
	defer resp.Body.Close()

	var body initResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrInitFailed, err)
	}

	if body.Status != statusSuccess || body.GatewayPageURL == "" {
		reason := body.FailedReason
		if reason == "" {
			reason = "gateway rejected the session"
		}
		return "", fmt.Errorf("%w: %s", ErrInitFailed, reason)
	}

	return body.GatewayPageURL, nil
}
