package panel

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/domain/event"
	"panel/internal/infrastructure/database"
	"panel/internal/repository/inbox_repo"
	"panel/internal/repository/transactions_repo"
)

// TransactionIngestor applies transaction events from the payment processor
// to the local transaction log. Each event is applied at most once.
type TransactionIngestor struct {
	transactor   database.Transactor
	transactions transactions_repo.TransactionRepository
	inbox        inbox_repo.InboxRepository
	now          func() time.Time
	logger       *zap.Logger
}

func NewTransactionIngestor(
	transactor database.Transactor,
	transactions transactions_repo.TransactionRepository,
	inbox inbox_repo.InboxRepository,
	logger *zap.Logger,
) *TransactionIngestor {
	return &TransactionIngestor{
		transactor:   transactor,
		transactions: transactions,
		inbox:        inbox,
		now:          time.Now,
		logger:       logger,
	}
}

// ApplyTransactionEvent records evt in the inbox and applies it in the same
// database transaction. A redelivered event is a no-op.
func (i *TransactionIngestor) ApplyTransactionEvent(ctx context.Context, evt event.TransactionEvent, raw []byte) error {
	if err := checkTransactionEvent(evt); err != nil {
		return err
	}
	tx := transactionFromEvent(evt, i.now())

	err := i.transactor.WithinTx(ctx, func(q domain.Querier) error {
		msg := &domain.InboxMessage{
			ID:         evt.EventID,
			EventType:  evt.Type,
			Payload:    raw,
			Status:     domain.InboxStatusNew,
			ReceivedAt: i.now(),
		}
		if err := i.inbox.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}

		if err := i.apply(ctx, q, evt.Type, tx); err != nil {
			return err
		}
		return i.inbox.UpdateStatusTx(ctx, q, evt.EventID, domain.InboxStatusProcessed)
	})
	if errors.Is(err, inbox_repo.ErrMessageAlreadyProcessed) {
		i.logger.Info("Transaction event already processed, skipping", zap.String("event_id", evt.EventID))
		return nil
	}
	if err != nil {
		if e, ok := domain.AsError(err); ok {
			return e
		}
		return domain.NewStoreUnavailableError(err)
	}

	i.logger.Info("Transaction event applied",
		zap.String("event_id", evt.EventID),
		zap.String("type", evt.Type),
		zap.String("transaction_id", tx.ID),
		zap.String("account_id", tx.AccountID))
	return nil
}

// apply inserts or updates tx. A created event for a known transaction only
// refreshes its state, and an updated event for an unknown one inserts it.
// A transaction id that is already stored under another account or order is
// rejected.
func (i *TransactionIngestor) apply(ctx context.Context, q domain.Querier, eventType string, tx *domain.Transaction) error {
	var err error
	switch eventType {
	case event.TypeTransactionCreated:
		var inserted bool
		inserted, err = i.transactions.InsertTx(ctx, q, tx)
		if err != nil || inserted {
			return err
		}
		err = i.transactions.UpdateStateTx(ctx, q, tx)
	default:
		err = i.transactions.UpdateStateTx(ctx, q, tx)
		if errors.Is(err, transactions_repo.ErrTransactionNotFound) {
			var inserted bool
			inserted, err = i.transactions.InsertTx(ctx, q, tx)
			if err == nil && !inserted {
				err = transactions_repo.ErrTransactionNotFound
			}
		}
	}
	if errors.Is(err, transactions_repo.ErrTransactionNotFound) {
		return domain.NewValidationError("transaction %s is already recorded for another account or order", tx.ID)
	}
	return err
}

func checkTransactionEvent(evt event.TransactionEvent) error {
	switch {
	case evt.Type != event.TypeTransactionCreated && evt.Type != event.TypeTransactionUpdated:
		return domain.NewValidationError("unsupported event type: %s", evt.Type)
	case evt.EventID == "":
		return domain.NewValidationError("event_id is required")
	case evt.TransactionID == "":
		return domain.NewValidationError("transaction_id is required")
	case evt.AccountID == "":
		return domain.NewValidationError("account_id is required")
	case evt.OrderID == "":
		return domain.NewValidationError("order_id is required")
	}
	return nil
}

func transactionFromEvent(evt event.TransactionEvent, now time.Time) *domain.Transaction {
	valid := true
	if evt.Valid != nil {
		valid = *evt.Valid
	}
	created := evt.Timestamp
	if created.IsZero() {
		created = now
	}
	return &domain.Transaction{
		ID:        evt.TransactionID,
		AccountID: evt.AccountID,
		OrderID:   evt.OrderID,
		Type:      evt.TxType,
		Status:    domain.TransactionStatus(evt.Status),
		Valid:     valid,
		Amount:    evt.Amount,
		Currency:  evt.Currency,
		CreatedAt: created,
		UpdatedAt: now,
	}
}
