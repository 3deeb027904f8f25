package kafka_infra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsume_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		messages: []kafka.Message{{Offset: 1}, {Offset: 2, Value: []byte("bad")}, {Offset: 3}},
		cancel:   cancel,
	}
	var handled []int64
	failures := 0
	handler := func(ctx context.Context, m kafka.Message) error {
		handled = append(handled, m.Offset)
		if string(m.Value) == "bad" && failures < 2 {
			failures++
			return errors.New("store unavailable")
		}
		return nil
	}

	c := newConsumer(reader, "transaction_events", "panel", handler, zap.NewNop())
	c.retryDelay = time.Millisecond
	err := c.Consume(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 2, 2, 3}, handled)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestConsume_NeverCommitsPastUnhandledMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		messages: []kafka.Message{{Offset: 7, Value: []byte("bad")}, {Offset: 8}},
		cancel:   cancel,
	}
	attempts := map[int64]int{}
	handler := func(ctx context.Context, m kafka.Message) error {
		attempts[m.Offset]++
		if attempts[m.Offset] == 3 {
			cancel()
		}
		return errors.New("store unavailable")
	}

	c := newConsumer(reader, "transaction_events", "panel", handler, zap.NewNop())
	c.retryDelay = time.Millisecond
	require.NoError(t, c.Consume(ctx))

	assert.Equal(t, map[int64]int{7: 3}, attempts)
	assert.Empty(t, reader.committed)
	assert.Len(t, reader.messages, 1)
}

func TestConsume_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newConsumer(&fakeReader{cancel: func() {}}, "t", "g", nil, zap.NewNop())
	assert.ErrorIs(t, c.Consume(ctx), context.Canceled)
}
