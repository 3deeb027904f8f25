package outbox_repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel/internal/domain"
)

func TestGetPendingMessages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").
		WithArgs("PENDING", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "aggregate_type", "message_type", "topic", "key_value", "payload", "status", "created_at", "sent_at"}).
			AddRow("m1", "acc-1", "account", "account.registered", "account_events", "acc-1", []byte(`{}`), "PENDING", now, nil))

	repo := NewOutboxRepository(db)
	msgs, err := repo.GetPendingMessages(context.Background(), db, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "account.registered", msgs[0].MessageType)
	assert.Nil(t, msgs[0].SentAt)
}

func TestUpdateMessageStatusTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE outbox_messages").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewOutboxRepository(db)
	err = repo.UpdateMessageStatusTx(context.Background(), db, "m1", domain.OutboxStatusSent)
	assert.Error(t, err)
}
