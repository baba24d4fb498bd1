package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms/config"
	"lms/logger"

	"github.com/go-resty/resty/v2"
)

const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentPending   = "pending"
)

var ErrPaymentGatewayUnavailable = errors.New("payment gateway is not configured")

type PaymentRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	ReturnURL   string `json:"return_url"`
}

type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	CheckoutURL string `json:"checkout_url"`
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error)
	VerifyPayment(ctx context.Context, reference string) (*Payment, error)
}

// Payments is nil when PAYMENT_API_URL is not configured.
var Payments PaymentGateway

func InitPaymentGateway() {
	cfg := config.AppConfig
	if cfg.PaymentAPIURL == "" {
		logger.Log.Warn().Msg("PAYMENT_API_URL not set, paid checkout is disabled")
		Payments = nil
		return
	}
	Payments = NewHTTPPaymentGateway(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
}

// PaymentGatewayOrErr returns the configured gateway or
// ErrPaymentGatewayUnavailable.
func PaymentGatewayOrErr() (PaymentGateway, error) {
	if Payments == nil {
		return nil, ErrPaymentGatewayUnavailable
	}
	return Payments, nil
}

// HTTPPaymentGateway talks to the payment provider's REST API.
type HTTPPaymentGateway struct {
	client *resty.Client
}

func NewHTTPPaymentGateway(baseURL, apiKey string) *HTTPPaymentGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPPaymentGateway{client: client}
}

func (g *HTTPPaymentGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	var payment Payment
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&payment).
		Post("/payments")
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create payment: status %d: %s", resp.StatusCode(), resp.String())
	}
	if payment.ID == "" {
		return nil, errors.New("create payment: empty payment id in response")
	}
	return &payment, nil
}

func (g *HTTPPaymentGateway) VerifyPayment(ctx context.Context, reference string) (*Payment, error) {
	var payment Payment
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("id", reference).
		SetResult(&payment).
		Get("/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("verify payment: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &payment, nil
}
