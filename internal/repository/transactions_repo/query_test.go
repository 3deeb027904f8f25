package transactions_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestBuildFindQuery_Defaults(t *testing.T) {
	query, args, err := buildFindQuery(domain.TransactionFilter{AccountID: "acc-1"}, StoreDefaults())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+selectColumns+" FROM transactions WHERE account_id = $1 AND is_valid = TRUE ORDER BY created_at DESC, seq DESC LIMIT $2 OFFSET $3",
		query)
	assert.Equal(t, []any{"acc-1", 20, 0}, args)
}

func TestBuildFindQuery_AllFilters(t *testing.T) {
	before := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	filter := domain.TransactionFilter{
		AccountID: "acc-1",
		Type:      ptr("payment"),
		Status:    ptr("COMPLETED"),
		Before:    &before,
		After:     &after,
		Offset:    ptr(40),
		Limit:     ptr(10),
		Order:     ptr(domain.SortAsc),
		OrderBy:   ptr("amount"),
		OnlyValid: ptr(false),
	}

	query, args, err := buildFindQuery(filter, StoreDefaults())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+selectColumns+" FROM transactions WHERE account_id = $1 AND type = $2 AND status = $3 AND created_at < $4 AND created_at > $5 ORDER BY amount ASC, seq ASC LIMIT $6 OFFSET $7",
		query)
	assert.Equal(t, []any{"acc-1", "payment", "COMPLETED", before, after, 10, 40}, args)
}

func TestBuildFindQuery_ByID(t *testing.T) {
	filter := domain.TransactionFilter{
		AccountID: "acc-1",
		ID:        ptr("tx-9"),
		Limit:     ptr(1),
		OnlyValid: ptr(false),
	}
	query, args, err := buildFindQuery(filter, StoreDefaults())
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE account_id = $1 AND id = $2 ORDER BY")
	assert.NotContains(t, query, "is_valid = TRUE")
	assert.Equal(t, []any{"acc-1", "tx-9", 1, 0}, args)
}

func TestBuildFindQuery_LimitIsCapped(t *testing.T) {
	_, args, err := buildFindQuery(domain.TransactionFilter{AccountID: "a", Limit: ptr(5000)}, StoreDefaults())
	require.NoError(t, err)
	assert.Equal(t, 200, args[len(args)-2])

	_, args, err = buildFindQuery(domain.TransactionFilter{AccountID: "a", Limit: ptr(0), Offset: ptr(-3)}, StoreDefaults())
	require.NoError(t, err)
	assert.Equal(t, 20, args[len(args)-2])
	assert.Equal(t, 0, args[len(args)-1])
}

func TestBuildFindQuery_RejectsUnknownOrderBy(t *testing.T) {
	_, _, err := buildFindQuery(domain.TransactionFilter{AccountID: "a", OrderBy: ptr("amount; DROP TABLE transactions")}, StoreDefaults())
	assert.ErrorIs(t, err, ErrUnsupportedOrderBy)
}
