package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type CreatePaymentRequest struct {
	ReservationID string  `json:"reservation_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
}

type Payment struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type PaymentClient interface {
	Create(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (Payment, error)
	Compensate(ctx context.Context, paymentID, reason string) error
}

type HTTPPaymentClient struct {
	baseURL string
	client  *http.Client
}

func NewPaymentClient(baseURL string, timeout time.Duration) *HTTPPaymentClient {
	return &HTTPPaymentClient{baseURL: baseURL, client: newHTTPClient(timeout)}
}

func (c *HTTPPaymentClient) Create(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (Payment, error) {
	var resp struct {
		Payment Payment `json:"payment"`
	}
	url := fmt.Sprintf("%s/api/payments", c.baseURL)
	if err := postJSON(ctx, c.client, url, idempotencyKey, req, &resp); err != nil {
		return Payment{}, err
	}
	return resp.Payment, nil
}

func (c *HTTPPaymentClient) Compensate(ctx context.Context, paymentID, reason string) error {
	url := fmt.Sprintf("%s/api/payments/%s/compensate", c.baseURL, paymentID)
	body := map[string]string{"reason": reason}
	return postJSON(ctx, c.client, url, "", body, nil)
}
