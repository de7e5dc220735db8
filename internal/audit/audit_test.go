package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"idlookup/internal/platform/kafka/producer"
	"idlookup/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	sink      *MemorySink
	publisher *Publisher
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.sink = NewMemorySink(0)
	s.publisher = NewPublisher(s.sink)
}

func (s *PublisherSuite) TestEmitStampsEvent() {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := s.publisher.Emit(ctx, Event{Action: ActionIdentityResolved, IDHash: "abc", SearchCount: 2})
	s.Require().NoError(err)

	events := s.sink.Events()
	s.Require().Len(events, 1)
	s.NotEmpty(events[0].ID)
	s.Equal(now, events[0].Timestamp)
	s.Equal("req-1", events[0].RequestID)
	s.Equal(int64(2), events[0].SearchCount)
}

func (s *PublisherSuite) TestEmitKeepsCallerValues() {
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.publisher.Emit(context.Background(), Event{ID: "fixed", Action: ActionIdentityResolved, Timestamp: at, RequestID: "mine"})
	s.Require().NoError(err)

	got := s.sink.Events()[0]
	s.Equal("fixed", got.ID)
	s.Equal(at, got.Timestamp)
	s.Equal("mine", got.RequestID)
}

func (s *PublisherSuite) TestEmitRequiresAction() {
	s.Error(s.publisher.Emit(context.Background(), Event{IDHash: "abc"}))
	s.Empty(s.sink.Events())
}

type recordingProducer struct {
	mu   sync.Mutex
	msgs []*producer.Message
	err  error
}

func (p *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestKafkaSinkAppend(t *testing.T) {
	t.Run("publishes json keyed by id hash", func(t *testing.T) {
		p := &recordingProducer{}
		sink := NewKafkaSink(p, "identity.audit")
		event := Event{ID: "e1", Action: ActionIdentityResolved, IDHash: "0123456789abcdef", IsNewUser: true, SearchCount: 1, HolidayCount: 2}

		require.NoError(t, sink.Append(context.Background(), event))
		require.Len(t, p.msgs, 1)

		msg := p.msgs[0]
		assert.Equal(t, "identity.audit", msg.Topic)
		assert.Equal(t, []byte("0123456789abcdef"), msg.Key)
		assert.Equal(t, ActionIdentityResolved, msg.Headers[HeaderEventType])
		assert.Equal(t, "e1", msg.Headers[HeaderEventID])

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "0123456789abcdef", decoded["id_hash"])
		assert.Equal(t, true, decoded["is_new_user"])
		assert.Equal(t, float64(2), decoded["holiday_count"])
		assert.NotContains(t, decoded, "id_number")
	})

	t.Run("wraps producer failure", func(t *testing.T) {
		cause := errors.New("broker down")
		sink := NewKafkaSink(&recordingProducer{err: cause}, "t")
		err := sink.Append(context.Background(), Event{Action: ActionIdentityResolved})
		assert.ErrorIs(t, err, cause)
	})
}

func TestAsyncSink(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("rejects when the buffer is full", func(t *testing.T) {
		sink := NewAsyncSink(NewMemorySink(0), 1, discard)
		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))
		assert.ErrorIs(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}), ErrBufferFull)
	})

	t.Run("forwards queued events and drains on shutdown", func(t *testing.T) {
		next := &recordingProducer{}
		sink := NewAsyncSink(NewKafkaSink(next, "t"), 8, discard)
		for i := 0; i < 3; i++ {
			require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- sink.Run(ctx) }()

		assert.Eventually(t, func() bool { return next.count() == 3 }, time.Second, 10*time.Millisecond)
		cancel()
		require.NoError(t, <-done)
	})

	t.Run("flush empties the queue without a running worker", func(t *testing.T) {
		next := &recordingProducer{}
		sink := NewAsyncSink(NewKafkaSink(next, "t"), 8, discard)
		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))
		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))

		sink.Flush(context.Background())
		assert.Equal(t, 2, next.count())
	})

	t.Run("flush after the worker stopped forwards late events", func(t *testing.T) {
		next := &recordingProducer{}
		sink := NewAsyncSink(NewKafkaSink(next, "t"), 8, discard)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, sink.Run(ctx))

		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))
		assert.Equal(t, 0, next.count())

		sink.Flush(context.Background())
		assert.Equal(t, 1, next.count())
	})

	t.Run("forward failures do not stop the worker", func(t *testing.T) {
		next := &recordingProducer{err: errors.New("down")}
		sink := NewAsyncSink(NewKafkaSink(next, "t"), 8, discard)
		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, sink.Run(ctx))
		assert.Equal(t, 0, next.count())
	})
}

// TestMemorySinkRetentionIsBounded validates that the in-process sink keeps
// only the newest events.
//
// Justification: Without a broker the server records every resolution here
// for its whole lifetime, so retention must not grow with traffic.
func TestMemorySinkRetentionIsBounded(t *testing.T) {
	sink := NewMemorySink(3)
	for i := 1; i <= 10000; i++ {
		require.NoError(t, sink.Append(context.Background(), Event{Action: ActionIdentityResolved, SearchCount: int64(i)}))
	}

	events := sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int64{9998, 9999, 10000},
		[]int64{events[0].SearchCount, events[1].SearchCount, events[2].SearchCount})
	assert.Len(t, NewMemorySink(0).ring, DefaultMemoryCapacity)
}

func TestMemorySinkBeforeWrap(t *testing.T) {
	sink := NewMemorySink(4)
	require.NoError(t, sink.Append(context.Background(), Event{ID: "a"}))
	require.NoError(t, sink.Append(context.Background(), Event{ID: "b"}))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
}

func TestLogSinkAndMultiSink(t *testing.T) {
	var buf bytes.Buffer
	memory := NewMemorySink(2)
	failing := NewKafkaSink(&recordingProducer{err: errors.New("down")}, "t")
	sink := MultiSink{memory, failing, NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))}

	err := sink.Append(context.Background(), Event{ID: "evt-1", Action: ActionIdentityResolved, IDHash: "abc"})

	require.Error(t, err, "a failing sink is reported")
	assert.Len(t, memory.Events(), 1, "other sinks still receive the event")
	assert.Contains(t, buf.String(), `"event_id":"evt-1"`)
	assert.Contains(t, buf.String(), `"id_hash":"abc"`)
}
