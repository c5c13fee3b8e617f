package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hsd87/JerseyAI-sub001/internal/events"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a persisted order. Breakdown is the price computed at creation
// time, stored verbatim; redisplaying a past order never recomputes it from
// current rules.
type Order struct {
	ID           uuid.UUID          `json:"id"`
	Cart         []pricing.LineItem `json:"cart"`
	IsSubscriber bool               `json:"isSubscriber"`
	Breakdown    pricing.Breakdown  `json:"breakdown"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// Order lifecycle statuses.
const (
	StatusPending         = "pending"
	StatusAwaitingPayment = "awaiting_payment"
)

// Repository defines the persistence operations the order service needs.
type Repository interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// PGRepository persists orders and domain events in Postgres.
type PGRepository struct {
	Pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            UUID PRIMARY KEY,
	cart          JSONB NOT NULL,
	is_subscriber BOOLEAN NOT NULL DEFAULT FALSE,
	breakdown     JSONB NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS domain_events (
	id           UUID PRIMARY KEY,
	topic        TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	payload      JSONB NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS domain_events_topic_idx ON domain_events (topic, occurred_at);
`

// EnsureSchema creates the tables this repository needs.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.Pool == nil {
		return errors.New("order repository not configured")
	}
	_, err := r.Pool.Exec(ctx, schema)
	return err
}

// CreateOrder inserts the order with its breakdown snapshot.
func (r *PGRepository) CreateOrder(ctx context.Context, o Order) error {
	cart, err := json.Marshal(o.Cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	breakdown, err := json.Marshal(o.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	_, err = r.Pool.Exec(ctx,
		`INSERT INTO orders (id, cart, is_subscriber, breakdown, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, cart, o.IsSubscriber, breakdown, o.Status, o.CreatedAt,
	)
	return err
}

// GetOrder fetches an order by id.
func (r *PGRepository) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	var (
		o             Order
		cartJSON      []byte
		breakdownJSON []byte
	)
	row := r.Pool.QueryRow(ctx,
		`SELECT id, cart, is_subscriber, breakdown, status, created_at
		 FROM orders WHERE id = $1`, id)
	if err := row.Scan(&o.ID, &cartJSON, &o.IsSubscriber, &breakdownJSON, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if err := json.Unmarshal(cartJSON, &o.Cart); err != nil {
		return Order{}, fmt.Errorf("decode cart: %w", err)
	}
	if err := json.Unmarshal(breakdownJSON, &o.Breakdown); err != nil {
		return Order{}, fmt.Errorf("decode breakdown: %w", err)
	}
	return o, nil
}

// UpdateStatus transitions an order's status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertEvent implements events.Store against the domain_events table.
func (r *PGRepository) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	ev := events.Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload, ev.OccurredAt,
	)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}
