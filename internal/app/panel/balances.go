package panel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/repository/coins_repo"
)

// BalanceAggregator computes balances from the coins an account owns. It
// never writes coins.
type BalanceAggregator struct {
	db     domain.Querier
	repo   coins_repo.CoinRepository
	logger *zap.Logger
}

func NewBalanceAggregator(db domain.Querier, repo coins_repo.CoinRepository, logger *zap.Logger) *BalanceAggregator {
	return &BalanceAggregator{db: db, repo: repo, logger: logger}
}

// GetBalances returns one balance per currency held by accountID, sorted by
// currency. With a currency set, at most that currency is returned, and a
// currency without coins is reported as a zero balance. A failed store read
// is an error and never a zero balance.
func (a *BalanceAggregator) GetBalances(ctx context.Context, accountID string, currency *string) ([]domain.Balance, error) {
	coins, err := a.repo.ListByAccountTx(ctx, a.db, accountID, currency)
	if err != nil {
		return nil, domain.NewStoreUnavailableError(err)
	}

	balances, err := Aggregate(coins)
	if err != nil {
		a.logger.Error("Failed to aggregate balances", zap.String("account_id", accountID), zap.Error(err))
		return nil, domain.NewInternalError(err)
	}
	if currency != nil && len(balances) == 0 {
		balances = []domain.Balance{{Currency: *currency}}
	}

	a.logger.Debug("Balances aggregated",
		zap.String("account_id", accountID),
		zap.Int("coins", len(coins)),
		zap.Int("currencies", len(balances)))
	return balances, nil
}

// ErrBalanceOverflow is returned when a currency total does not fit in int64.
var ErrBalanceOverflow = errors.New("balance overflow")

// Aggregate groups coins by currency, summing face values and counting
// records. The result does not depend on the order of coins. A total that
// would overflow is an error rather than a wrapped value.
func Aggregate(coins []domain.Coin) ([]domain.Balance, error) {
	byCurrency := make(map[string]*domain.Balance)
	for _, c := range coins {
		b, ok := byCurrency[c.Currency]
		if !ok {
			b = &domain.Balance{Currency: c.Currency}
			byCurrency[c.Currency] = b
		}
		if (c.Value > 0 && b.Value > math.MaxInt64-c.Value) || (c.Value < 0 && b.Value < math.MinInt64-c.Value) {
			return nil, fmt.Errorf("%w: currency %s", ErrBalanceOverflow, c.Currency)
		}
		b.Value += c.Value
		b.NumberOfCoins++
	}

	balances := make([]domain.Balance, 0, len(byCurrency))
	for _, b := range byCurrency {
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Currency < balances[j].Currency
	})
	return balances, nil
}
