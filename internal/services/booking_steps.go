package services

import (
	"context"
	"fmt"

	"tickethub-core/internal/clients"
	tickethub_errors "tickethub-core/pkg/errors"
)

// BookingPayload is the client request that starts a booking saga.
type BookingPayload struct {
	EventID       int
	UserID        string
	UserName      string
	UserEmail     string
	UserPhone     string
	Seats         int
	TicketPrice   float64
	PaymentMethod string
	Preferences   map[string]any
}

const defaultCurrency = "XOF"

// BookingData flattens the payload into the saga's mutable data bag.
func BookingData(p BookingPayload) map[string]any {
	if p.PaymentMethod == "" {
		p.PaymentMethod = "card"
	}
	data := map[string]any{
		"eventId":       p.EventID,
		"userId":        p.UserID,
		"userName":      p.UserName,
		"userEmail":     p.UserEmail,
		"seats":         p.Seats,
		"ticketPrice":   p.TicketPrice,
		"paymentMethod": p.PaymentMethod,
	}
	if p.UserPhone != "" {
		data["userPhone"] = p.UserPhone
	}
	if p.Preferences != nil {
		data["preferences"] = p.Preferences
	}
	return data
}

// BookingSteps wires the reservation and payment collaborators into the
// ordered pipeline of the booking saga.
func BookingSteps(reservations clients.ReservationClient, payments clients.PaymentClient) []StepDefinition {
	return []StepDefinition{
		{
			Name:                 "reservation",
			CompletedAs:          "RESERVATION_CREATED",
			FailedAs:             "RESERVATION_FAILED",
			CompensatedAs:        "RESERVATION_COMPENSATED",
			CompensationFailedAs: "RESERVATION_COMPENSATION_FAILED",
			Forward: func(ctx context.Context, data map[string]any, idempotencyKey string) (map[string]any, error) {
				req := clients.CreateReservationRequest{
					EventID:   asInt(data["eventId"]),
					UserID:    asString(data["userId"]),
					UserName:  asString(data["userName"]),
					UserEmail: asString(data["userEmail"]),
					Seats:     asInt(data["seats"]),
				}
				reservation, err := reservations.Create(ctx, req, idempotencyKey)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"reservationId": reservation.ID,
					"seats":         req.Seats,
				}, nil
			},
			Compensate: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				reservationID := asString(data["reservationId"])
				if reservationID == "" {
					return nil, fmt.Errorf("%w: no reservationId recorded", tickethub_errors.ErrCompensationFailed)
				}
				if err := reservations.Compensate(ctx, reservationID, "saga compensation"); err != nil {
					return nil, err
				}
				return map[string]any{"reservationId": reservationID}, nil
			},
		},
		{
			Name:                 "payment",
			CompletedAs:          "PAYMENT_COMPLETED",
			FailedAs:             "PAYMENT_FAILED",
			CompensatedAs:        "PAYMENT_COMPENSATED",
			CompensationFailedAs: "PAYMENT_COMPENSATION_FAILED",
			Forward: func(ctx context.Context, data map[string]any, idempotencyKey string) (map[string]any, error) {
				amount := float64(asInt(data["seats"])) * asFloat(data["ticketPrice"])
				req := clients.CreatePaymentRequest{
					ReservationID: asString(data["reservationId"]),
					UserID:        asString(data["userId"]),
					Amount:        amount,
					Currency:      defaultCurrency,
					PaymentMethod: asString(data["paymentMethod"]),
				}
				payment, err := payments.Create(ctx, req, idempotencyKey)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"paymentId": payment.ID,
					"amount":    amount,
				}, nil
			},
			Compensate: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				paymentID := asString(data["paymentId"])
				if paymentID == "" {
					return nil, fmt.Errorf("%w: no paymentId recorded", tickethub_errors.ErrCompensationFailed)
				}
				if err := payments.Compensate(ctx, paymentID, "saga compensation"); err != nil {
					return nil, err
				}
				return map[string]any{"paymentId": paymentID}, nil
			},
		},
	}
}

// The data bag is map[string]any and may round-trip through JSON, so numeric
// values can arrive as float64 while in-process writers store ints.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
