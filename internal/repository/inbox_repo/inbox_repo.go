package inbox_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"panel/internal/domain"
)

var ErrMessageAlreadyProcessed = errors.New("inbox message already processed")

type inboxRepository struct {
	db *sql.DB
}

func NewInboxRepository(db *sql.DB) *inboxRepository {
	return &inboxRepository{db: db}
}

// CreateMessageTx records msg. The inbox row is written in the same
// transaction as the change the event causes, so an existing row means the
// event was already applied.
func (r *inboxRepository) CreateMessageTx(ctx context.Context, querier domain.Querier, msg *domain.InboxMessage) error {
	query := `
		INSERT INTO inbox_messages (id, event_type, payload, status, received_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var processedAt sql.NullTime
	if msg.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *msg.ProcessedAt, Valid: true}
	}

	_, err := querier.ExecContext(ctx, query,
		msg.ID,
		msg.EventType,
		msg.Payload,
		msg.Status,
		msg.ReceivedAt,
		processedAt,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrMessageAlreadyProcessed
		}
		return fmt.Errorf("failed to create inbox message: %w", err)
	}
	return nil
}

func (r *inboxRepository) UpdateStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.InboxMessageStatus) error {
	query := `
		UPDATE inbox_messages
		SET status = $1, processed_at = CASE WHEN $1::VARCHAR = 'PROCESSED' THEN $2 ELSE processed_at END
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update inbox message status %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for inbox message update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inbox message with id %s not found for status update", id)
	}
	return nil
}
