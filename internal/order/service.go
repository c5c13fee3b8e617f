package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hsd87/JerseyAI-sub001/internal/events"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// CreateInput carries everything needed to price and persist an order.
type CreateInput struct {
	Cart         []pricing.LineItem
	IsSubscriber bool
}

// Service prices carts and persists orders with their breakdown snapshot.
type Service struct {
	Repo   Repository
	Rules  *pricing.Store
	Bus    *events.Bus
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create computes the breakdown from the current rules and stores it verbatim
// on the order. Rules may change later; the stored snapshot is authoritative
// for this order forever.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if s == nil || s.Repo == nil || s.Rules == nil {
		return Order{}, errors.New("order service not configured")
	}
	if len(in.Cart) == 0 {
		return Order{}, fmt.Errorf("%w: cart is empty", pricing.ErrInvalidCartItem)
	}
	breakdown, err := pricing.Calculate(in.Cart, s.Rules.Snapshot(), pricing.TierSetStandard, in.IsSubscriber)
	if err != nil {
		return Order{}, err
	}
	if breakdown.Clamped() {
		s.Logger.Error().Msg("discounts exceeded base total while pricing order")
	}

	o := Order{
		ID:           uuid.New(),
		Cart:         in.Cart,
		IsSubscriber: in.IsSubscriber,
		Breakdown:    breakdown,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.CreateOrder(ctx, o); err != nil {
		return Order{}, fmt.Errorf("persist order: %w", err)
	}
	if s.Bus != nil {
		payload := map[string]any{
			"orderId":    o.ID,
			"grandTotal": o.Breakdown.GrandTotal,
			"quantity":   o.Breakdown.TotalQuantity,
		}
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, o.ID, payload); err != nil {
			s.Logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("emit order.created")
		}
	}
	return o, nil
}

// Get returns the stored order, breakdown snapshot included.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	if s == nil || s.Repo == nil {
		return Order{}, errors.New("order service not configured")
	}
	return s.Repo.GetOrder(ctx, id)
}

// MarkAwaitingPayment transitions the order once a payment intent exists.
func (s *Service) MarkAwaitingPayment(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Repo == nil {
		return errors.New("order service not configured")
	}
	return s.Repo.UpdateStatus(ctx, id, StatusAwaitingPayment)
}
