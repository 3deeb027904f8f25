package panel

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panel/internal/domain"
)

func TestGetBalances_SumsCoinsPerCurrency(t *testing.T) {
	repo := &fakeCoinRepo{coins: []domain.Coin{
		{ID: "c1", AccountID: "acc-a", Currency: "XBT", Value: 50000},
		{ID: "c2", AccountID: "acc-a", Currency: "XBT", Value: 25000},
		{ID: "c3", AccountID: "acc-b", Currency: "XBT", Value: 99999},
	}}
	aggregator := NewBalanceAggregator(nil, repo, zap.NewNop())

	balances, err := aggregator.GetBalances(context.Background(), "acc-a", ptr("XBT"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Balance{{Currency: "XBT", Value: 75000, NumberOfCoins: 2}}, balances)
}

func TestGetBalances_RequestedCurrencyWithoutCoins(t *testing.T) {
	repo := &fakeCoinRepo{coins: []domain.Coin{{ID: "c1", AccountID: "acc-a", Currency: "XBT", Value: 1}}}
	aggregator := NewBalanceAggregator(nil, repo, zap.NewNop())

	balances, err := aggregator.GetBalances(context.Background(), "acc-a", ptr("USD"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Balance{{Currency: "USD"}}, balances)
}

func TestGetBalances_AllCurrencies(t *testing.T) {
	repo := &fakeCoinRepo{coins: []domain.Coin{
		{ID: "c1", AccountID: "acc-a", Currency: "XBT", Value: 10},
		{ID: "c2", AccountID: "acc-a", Currency: "EUR", Value: 3},
		{ID: "c3", AccountID: "acc-a", Currency: "EUR", Value: 4},
	}}
	aggregator := NewBalanceAggregator(nil, repo, zap.NewNop())

	balances, err := aggregator.GetBalances(context.Background(), "acc-a", nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Balance{
		{Currency: "EUR", Value: 7, NumberOfCoins: 2},
		{Currency: "XBT", Value: 10, NumberOfCoins: 1},
	}, balances)

	empty, err := aggregator.GetBalances(context.Background(), "acc-none", nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetBalances_StoreFailureIsNotZero(t *testing.T) {
	aggregator := NewBalanceAggregator(nil, &fakeCoinRepo{err: errStoreDown}, zap.NewNop())

	balances, err := aggregator.GetBalances(context.Background(), "acc-a", ptr("XBT"))
	require.Error(t, err)
	assert.Nil(t, balances)
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))
}

func TestAggregate_OrderIndependent(t *testing.T) {
	var coins []domain.Coin
	var want int64
	for i := 1; i <= 50; i++ {
		coins = append(coins, domain.Coin{AccountID: "acc", Currency: "XBT", Value: int64(i * 7)})
		want += int64(i * 7)
	}
	expected := []domain.Balance{{Currency: "XBT", Value: want, NumberOfCoins: 50}}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(coins), func(a, b int) { coins[a], coins[b] = coins[b], coins[a] })
		balances, err := Aggregate(coins)
		require.NoError(t, err)
		assert.Equal(t, expected, balances)
	}
}

func TestAggregate_Empty(t *testing.T) {
	balances, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Balance{}, balances)
}

func TestAggregate_OverflowIsAnError(t *testing.T) {
	for name, coins := range map[string][]domain.Coin{
		"positive": {
			{ID: "c1", Currency: "XBT", Value: math.MaxInt64},
			{ID: "c2", Currency: "XBT", Value: 1},
		},
		"negative": {
			{ID: "c1", Currency: "XBT", Value: math.MinInt64},
			{ID: "c2", Currency: "XBT", Value: -1},
		},
	} {
		t.Run(name, func(t *testing.T) {
			balances, err := Aggregate(coins)
			assert.ErrorIs(t, err, ErrBalanceOverflow)
			assert.Nil(t, balances)
		})
	}

	balances, err := Aggregate([]domain.Coin{
		{ID: "c1", Currency: "XBT", Value: math.MaxInt64},
		{ID: "c2", Currency: "EUR", Value: 1},
	})
	require.NoError(t, err)
	assert.Len(t, balances, 2)
}

func TestGetBalances_OverflowIsInternal(t *testing.T) {
	repo := &fakeCoinRepo{coins: []domain.Coin{
		{ID: "c1", AccountID: "acc-a", Currency: "XBT", Value: math.MaxInt64},
		{ID: "c2", AccountID: "acc-a", Currency: "XBT", Value: math.MaxInt64},
	}}
	aggregator := NewBalanceAggregator(nil, repo, zap.NewNop())

	balances, err := aggregator.GetBalances(context.Background(), "acc-a", nil)
	require.Error(t, err)
	assert.Nil(t, balances)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}
