package kafka_infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProduce_SetsTopicAndKey(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, time.Second, zap.NewNop())

	require.NoError(t, p.Produce(context.Background(), "acc-1", "account_events", []byte(`{"a":1}`)))
	require.Len(t, w.written, 1)
	assert.Equal(t, "account_events", w.written[0].Topic)
	assert.Equal(t, []byte("acc-1"), w.written[0].Key)
	assert.Equal(t, []byte(`{"a":1}`), w.written[0].Value)
}

func TestProduce_WrapsWriterError(t *testing.T) {
	cause := errors.New("leader not available")
	p := newProducer(&fakeWriter{err: cause}, time.Second, zap.NewNop())

	err := p.Produce(context.Background(), "k", "account_events", nil)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, p.Close())
}
