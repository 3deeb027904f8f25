package coins_repo

import (
	"context"
	"database/sql"
	"fmt"

	"panel/internal/domain"
)

type coinRepository struct {
	db *sql.DB
}

func NewCoinRepository(db *sql.DB) *coinRepository {
	return &coinRepository{db: db}
}

// ListByAccountTx returns the coins currently owned by accountID, optionally
// restricted to one currency. Coins are written by the issuing service; this
// repository only reads them.
func (r *coinRepository) ListByAccountTx(ctx context.Context, querier domain.Querier, accountID string, currency *string) ([]domain.Coin, error) {
	query := `
		SELECT id, account_id, currency, value
		FROM coins
		WHERE account_id = $1
	`
	args := []any{accountID}
	if currency != nil {
		query += ` AND currency = $2`
		args = append(args, *currency)
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coins for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var coins []domain.Coin
	for rows.Next() {
		var c domain.Coin
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Currency, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coins: %w", err)
	}

	return coins, nil
}
