package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []Event
	fail   bool
}

func (s *memStore) InsertEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (Event, error) {
	if s.fail {
		return Event{}, errors.New("insert failed")
	}
	ev := Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
	s.events = append(s.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []Event
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.seen = append(n.seen, event)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	id := uuid.New()
	ev, err := bus.Emit(context.Background(), TopicOrderCreated, id, map[string]any{"grandTotal": 46605})
	require.NoError(t, err)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.Equal(t, id, ev.AggregateID)
	require.Len(t, store.events, 1)
	require.Len(t, notifier.seen, 1)
	require.True(t, json.Valid(ev.Payload))
}

func TestEmitValidation(t *testing.T) {
	bus := &Bus{Store: &memStore{}}

	_, err := bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), TopicOrderCreated, uuid.Nil, nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), json.RawMessage(`{broken`))
	require.Error(t, err)
}

func TestEmitNotifierErrorsDoNotDropEvent(t *testing.T) {
	store := &memStore{}
	bad := &recordingNotifier{err: errors.New("boom")}
	bus := &Bus{Store: store, Notifiers: []Notifier{bad}}

	_, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), nil)
	require.Error(t, err)
	require.Len(t, store.events, 1, "event persists even when a notifier fails")
}

func TestDefaultTopicsAreUnique(t *testing.T) {
	topics := DefaultTopics()
	require.NotEmpty(t, topics)
	seen := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		require.NotEmpty(t, topic)
		_, dup := seen[topic]
		require.False(t, dup, topic)
		seen[topic] = struct{}{}
	}
}
