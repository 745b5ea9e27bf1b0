package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newTestConsumer() *KafkaConsumer {
	return newKafkaConsumer(nil, &ConsumerConfig{GroupID: "test", Topics: []string{"chat.lifecycle"}}, zap.NewNop())
}

func envelopeBytes(t *testing.T, eventType string, payload any) []byte {
	t.Helper()
	env, err := NewEnvelope(eventType, payload)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return b
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope("message_received", map[string]string{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "message_received", env.EventType)
	assert.Len(t, env.EventID, 36)
	assert.False(t, env.OccurredAt.IsZero())
	assert.JSONEq(t, `{"text":"hi"}`, string(env.Payload))
}

func TestConsumeClaim_DispatchesAndMarks(t *testing.T) {
	c := newTestConsumer()

	var got []string
	handler := NewFunctionHandler([]string{"message_received", "feedback_received"}, func(_ context.Context, e *Envelope) error {
		got = append(got, e.EventType)
		if e.EventType == "feedback_received" {
			return errors.New("rejected")
		}
		return nil
	})
	for _, typ := range handler.SupportedEventTypes() {
		c.handlers[typ] = handler
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 5)}
	claim.messages <- &sarama.ConsumerMessage{Value: envelopeBytes(t, "message_received", map[string]string{"text": "hi"})}
	claim.messages <- &sarama.ConsumerMessage{Value: envelopeBytes(t, "feedback_received", map[string]bool{"positive": true})}
	claim.messages <- &sarama.ConsumerMessage{Value: envelopeBytes(t, "documents_stored", map[string]any{})}
	claim.messages <- &sarama.ConsumerMessage{Value: []byte("{not json")}
	claim.messages <- &sarama.ConsumerMessage{Value: []byte(`{"payload":{}}`)}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	h := &consumerGroupHandler{consumer: c}
	require.NoError(t, h.ConsumeClaim(session, claim))

	assert.Equal(t, []string{"message_received", "feedback_received"}, got)
	assert.Len(t, session.marked, 5)
}

func TestHandleMessage_Errors(t *testing.T) {
	h := &consumerGroupHandler{consumer: newTestConsumer()}

	err := h.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("nope")})
	assert.ErrorContains(t, err, "unmarshal")

	err = h.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{"event_id":"x"}`)})
	assert.ErrorContains(t, err, "event_type")

	// unknown types are skipped
	err = h.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: envelopeBytes(t, "other", nil)})
	assert.NoError(t, err)
}

func TestSubscribe_NoTopics(t *testing.T) {
	c := newKafkaConsumer(nil, &ConsumerConfig{GroupID: "test"}, zap.NewNop())
	err := c.Subscribe(context.Background(), NewFunctionHandler(nil, nil))
	assert.Error(t, err)
}
