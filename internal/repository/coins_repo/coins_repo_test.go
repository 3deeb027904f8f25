package coins_repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByAccountTx_AllCurrencies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "currency", "value"}).
			AddRow("c1", "acc-1", "XBT", 50000).
			AddRow("c2", "acc-1", "XBT", 25000))

	repo := NewCoinRepository(db)
	coins, err := repo.ListByAccountTx(context.Background(), db, "acc-1", nil)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, int64(25000), coins[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByAccountTx_OneCurrency(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("AND currency = $2")).
		WithArgs("acc-1", "USD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "currency", "value"}))

	usd := "USD"
	repo := NewCoinRepository(db)
	coins, err := repo.ListByAccountTx(context.Background(), db, "acc-1", &usd)
	require.NoError(t, err)
	assert.Empty(t, coins)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByAccountTx_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection refused")
	mock.ExpectQuery("FROM coins").WillReturnError(boom)

	repo := NewCoinRepository(db)
	_, err = repo.ListByAccountTx(context.Background(), db, "acc-1", nil)
	assert.ErrorIs(t, err, boom)
}
