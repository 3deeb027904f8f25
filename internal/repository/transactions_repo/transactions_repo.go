package transactions_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"panel/internal/domain"
)

type transactionRepository struct {
	db       *sql.DB
	defaults Defaults
}

func NewTransactionRepository(db *sql.DB, defaults Defaults) *transactionRepository {
	return &transactionRepository{db: db, defaults: defaults}
}

func (r *transactionRepository) FindTx(ctx context.Context, querier domain.Querier, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query, args, err := buildFindQuery(filter, r.defaults)
	if err != nil {
		return nil, err
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", filter.AccountID, err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.ID,
			&t.Seq,
			&t.AccountID,
			&t.OrderID,
			&t.Type,
			&t.Status,
			&t.Valid,
			&t.Amount,
			&t.Currency,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// InsertTx stores a new transaction. It reports false when a transaction
// with the same id already exists.
func (r *transactionRepository) InsertTx(ctx context.Context, querier domain.Querier, t *domain.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (id, account_id, order_id, type, status, is_valid, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := querier.ExecContext(ctx, query,
		t.ID,
		t.AccountID,
		t.OrderID,
		t.Type,
		t.Status,
		t.Valid,
		t.Amount,
		t.Currency,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for transaction insert: %w", err)
	}
	return rowsAffected == 1, nil
}

// UpdateStateTx changes status and validity only. The row must match id,
// account_id and order_id, so an event can never move a transaction to
// another account or order.
func (r *transactionRepository) UpdateStateTx(ctx context.Context, querier domain.Querier, t *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, is_valid = $2, updated_at = $3
		WHERE id = $4 AND account_id = $5 AND order_id = $6
	`
	res, err := querier.ExecContext(ctx, query, string(t.Status), t.Valid, time.Now(), t.ID, t.AccountID, t.OrderID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s for account %s and order %s: %w", t.ID, t.AccountID, t.OrderID, ErrTransactionNotFound)
	}
	return nil
}
