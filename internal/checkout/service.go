package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"github.com/hsd87/JerseyAI-sub001/internal/events"
	"github.com/hsd87/JerseyAI-sub001/internal/order"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

var ErrNotPayable = errors.New("checkout: order total is not payable")

// IntentCreator creates payment intents with the payment provider.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeIntents calls the Stripe API directly.
type StripeIntents struct{}

// NewStripeIntents configures the global Stripe key and returns a live client.
func NewStripeIntents(apiKey string) StripeIntents {
	stripe.Key = apiKey
	return StripeIntents{}
}

func (StripeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

// Output is returned to the client so it can confirm the payment browser-side.
type Output struct {
	OrderID      uuid.UUID     `json:"orderId"`
	IntentID     string        `json:"intentId"`
	ClientSecret string        `json:"clientSecret"`
	Amount       pricing.Money `json:"amount"`
	Currency     string        `json:"currency"`
	Status       string        `json:"status"`
}

type Service struct {
	Orders   *order.Service
	Intents  IntentCreator
	Currency string
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// CreateIntent charges the grand total snapshotted on the order. The stored
// breakdown is authoritative, the price is never recomputed at payment time.
func (s *Service) CreateIntent(ctx context.Context, orderID uuid.UUID) (Output, error) {
	if s == nil || s.Orders == nil || s.Intents == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	ord, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Output{}, err
	}
	if ord.Breakdown.GrandTotal <= 0 {
		return Output{}, fmt.Errorf("%w: %d", ErrNotPayable, ord.Breakdown.GrandTotal)
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(ord.Breakdown.GrandTotal)),
		Currency:    stripe.String(s.Currency),
		Description: stripe.String("jersey order " + ord.ID.String()),
	}
	params.Context = ctx
	params.AddMetadata("orderId", ord.ID.String())

	pi, err := s.Intents.New(params)
	if err != nil {
		return Output{}, fmt.Errorf("create payment intent: %w", err)
	}

	if err := s.Orders.MarkAwaitingPayment(ctx, ord.ID); err != nil {
		return Output{}, fmt.Errorf("mark order awaiting payment: %w", err)
	}

	if s.Bus != nil {
		payload, _ := json.Marshal(map[string]any{
			"orderId":  ord.ID.String(),
			"intentId": pi.ID,
			"amount":   ord.Breakdown.GrandTotal,
			"currency": s.Currency,
		})
		if _, err := s.Bus.Emit(ctx, events.TopicCheckoutIntentCreated, ord.ID, payload); err != nil {
			s.Logger.Error().Err(err).Str("order_id", ord.ID.String()).Msg("emit checkout event")
		}
	}

	return Output{
		OrderID:      ord.ID,
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       ord.Breakdown.GrandTotal,
		Currency:     s.Currency,
		Status:       order.StatusAwaitingPayment,
	}, nil
}
