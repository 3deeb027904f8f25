package coins_repo

import (
	"context"

	"panel/internal/domain"
)

type CoinRepository interface {
	ListByAccountTx(ctx context.Context, querier domain.Querier, accountID string, currency *string) ([]domain.Coin, error)
}
