package inbox_repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel/internal/domain"
)

func TestCreateMessageTx_DuplicateIsAlreadyProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO inbox_messages").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	repo := NewInboxRepository(db)
	err = repo.CreateMessageTx(context.Background(), db, &domain.InboxMessage{
		ID:         "evt-1",
		EventType:  "transaction.created",
		Status:     domain.InboxStatusNew,
		ReceivedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrMessageAlreadyProcessed)
}

func TestUpdateStatusTx_MissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE inbox_messages").
		WithArgs("PROCESSED", sqlmock.AnyArg(), "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewInboxRepository(db)
	err = repo.UpdateStatusTx(context.Background(), db, "evt-1", domain.InboxStatusProcessed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
