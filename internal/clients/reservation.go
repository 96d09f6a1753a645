package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type CreateReservationRequest struct {
	EventID   int    `json:"eventId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Seats     int    `json:"seats"`
}

type Reservation struct {
	ID      string `json:"id"`
	EventID int    `json:"eventId"`
	Seats   int    `json:"seats"`
	Status  string `json:"status"`
}

type ReservationClient interface {
	Create(ctx context.Context, req CreateReservationRequest, idempotencyKey string) (Reservation, error)
	Compensate(ctx context.Context, reservationID, reason string) error
}

type HTTPReservationClient struct {
	baseURL string
	client  *http.Client
}

func NewReservationClient(baseURL string, timeout time.Duration) *HTTPReservationClient {
	return &HTTPReservationClient{baseURL: baseURL, client: newHTTPClient(timeout)}
}

func (c *HTTPReservationClient) Create(ctx context.Context, req CreateReservationRequest, idempotencyKey string) (Reservation, error) {
	var resp struct {
		Reservation Reservation `json:"reservation"`
	}
	url := fmt.Sprintf("%s/api/reservations", c.baseURL)
	if err := postJSON(ctx, c.client, url, idempotencyKey, req, &resp); err != nil {
		return Reservation{}, err
	}
	return resp.Reservation, nil
}

func (c *HTTPReservationClient) Compensate(ctx context.Context, reservationID, reason string) error {
	url := fmt.Sprintf("%s/api/reservations/%s/compensate", c.baseURL, reservationID)
	body := map[string]string{"reason": reason}
	return postJSON(ctx, c.client, url, "", body, nil)
}
