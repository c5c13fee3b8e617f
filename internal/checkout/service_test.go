package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/hsd87/JerseyAI-sub001/internal/events"
	"github.com/hsd87/JerseyAI-sub001/internal/order"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

type memRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
	events []events.Event
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[uuid.UUID]order.Order{}}
}

func (r *memRepo) CreateOrder(_ context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *memRepo) GetOrder(_ context.Context, id uuid.UUID) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *memRepo) InsertEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := events.Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	r.events = append(r.events, ev)
	return ev, nil
}

type fakeIntents struct {
	params *stripe.PaymentIntentParams
	err    error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_test_123", ClientSecret: "pi_test_123_secret"}, nil
}

func newTestService(t *testing.T, repo *memRepo, intents IntentCreator) *Service {
	t.Helper()
	store, err := pricing.NewStore(pricing.DefaultRules(1500))
	require.NoError(t, err)
	orders := &order.Service{
		Repo:   repo,
		Rules:  store,
		Bus:    &events.Bus{Store: repo},
		Logger: zerolog.Nop(),
	}
	return &Service{
		Orders:   orders,
		Intents:  intents,
		Currency: "usd",
		Bus:      &events.Bus{Store: repo},
		Logger:   zerolog.Nop(),
	}
}

func createOrder(t *testing.T, svc *Service) order.Order {
	t.Helper()
	ord, err := svc.Orders.Create(context.Background(), order.CreateInput{
		Cart: []pricing.LineItem{{ProductID: "jersey-1", UnitPrice: 4500, Quantity: 12}},
	})
	require.NoError(t, err)
	return ord
}

func TestCreateIntentChargesStoredTotal(t *testing.T) {
	repo := newMemRepo()
	intents := &fakeIntents{}
	svc := newTestService(t, repo, intents)
	ord := createOrder(t, svc)

	out, err := svc.CreateIntent(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, ord.ID, out.OrderID)
	require.Equal(t, "pi_test_123", out.IntentID)
	require.Equal(t, "pi_test_123_secret", out.ClientSecret)
	require.Equal(t, ord.Breakdown.GrandTotal, out.Amount)
	require.Equal(t, order.StatusAwaitingPayment, out.Status)

	require.NotNil(t, intents.params)
	require.Equal(t, int64(ord.Breakdown.GrandTotal), *intents.params.Amount)
	require.Equal(t, "usd", *intents.params.Currency)
	require.Equal(t, ord.ID.String(), intents.params.Metadata["orderId"])

	stored, err := repo.GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusAwaitingPayment, stored.Status)
}

func TestCreateIntentUsesSnapshotNotCurrentRules(t *testing.T) {
	repo := newMemRepo()
	intents := &fakeIntents{}
	svc := newTestService(t, repo, intents)
	ord := createOrder(t, svc)

	// Harsher rules after the order exists must not change the charge.
	harsher := pricing.DefaultRules(1500)
	harsher.ShippingTiers = []pricing.ShippingTier{{Threshold: 0, Cost: 9900}}
	require.NoError(t, svc.Orders.Rules.Swap(harsher))

	out, err := svc.CreateIntent(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, ord.Breakdown.GrandTotal, out.Amount)
}

func TestCreateIntentEmitsEvent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, &fakeIntents{})
	ord := createOrder(t, svc)

	_, err := svc.CreateIntent(context.Background(), ord.ID)
	require.NoError(t, err)

	var found bool
	for _, ev := range repo.events {
		if ev.Topic == events.TopicCheckoutIntentCreated {
			found = true
			require.Equal(t, ord.ID, ev.AggregateID)
			var payload map[string]any
			require.NoError(t, json.Unmarshal(ev.Payload, &payload))
			require.Equal(t, "pi_test_123", payload["intentId"])
		}
	}
	require.True(t, found, "expected %s event", events.TopicCheckoutIntentCreated)
}

func TestCreateIntentUnknownOrder(t *testing.T) {
	svc := newTestService(t, newMemRepo(), &fakeIntents{})
	_, err := svc.CreateIntent(context.Background(), uuid.New())
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreateIntentProviderFailureKeepsOrderPending(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, &fakeIntents{err: errors.New("stripe down")})
	ord := createOrder(t, svc)

	_, err := svc.CreateIntent(context.Background(), ord.ID)
	require.Error(t, err)

	stored, err := repo.GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, stored.Status)
}

func TestIntentEndpoint(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, &fakeIntents{})
	ord := createOrder(t, svc)
	handler := NewHandler(HandlerConfig{Service: svc, Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/intent",
		strings.NewReader(`{"orderId":"`+ord.ID.String()+`"}`))
	rec := httptest.NewRecorder()
	handler.CreateIntent(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data Output `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "pi_test_123", resp.Data.IntentID)
	require.Equal(t, "usd", resp.Data.Currency)
}

func TestIntentEndpointErrors(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, &fakeIntents{err: errors.New("stripe down")})
	ord := createOrder(t, svc)
	handler := NewHandler(HandlerConfig{Service: svc, Logger: zerolog.Nop()})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `junk`, http.StatusBadRequest},
		{"missing order id", `{}`, http.StatusBadRequest},
		{"bad uuid", `{"orderId":"abc"}`, http.StatusBadRequest},
		{"unknown order", `{"orderId":"00000000-0000-4000-8000-000000000001"}`, http.StatusNotFound},
		{"provider failure", `{"orderId":"` + ord.ID.String() + `"}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/checkout/intent", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.CreateIntent(rec, req)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}
