package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestProducer_ClosedRejectsProduce(t *testing.T) {
	p, err := New(Config{Brokers: []string{"127.0.0.1:1"}, Acks: "1"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	err = p.Produce(context.Background(), &Message{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, p.Healthy(context.Background()), ErrClosed)
}

func TestToRecord(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "identity.audit",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"event_type": "identity_resolved"},
	})
	assert.Equal(t, "identity.audit", rec.Topic)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte("identity_resolved"), rec.Headers[0].Value)
}
